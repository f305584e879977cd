package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"optionflow/config"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/session"
)

// Server exposes the live session state as a JSON snapshot API for the
// presentation layer. Rendering is the consumer's problem; this server only
// serves state.
type Server struct {
	cfg        config.DashboardConfig
	state      *session.State
	log        *logger.Log
	httpServer *http.Server
}

// NewServer constructs a dashboard server when the dashboard feature is
// enabled. When the dashboard is disabled the returned server will be nil.
func NewServer(cfg config.DashboardConfig, state *session.State, log *logger.Log) *Server {
	if !cfg.Enabled {
		return nil
	}
	cfg.Address = normalizeAddress(cfg.Address)
	return &Server{
		cfg:   cfg,
		state: state,
		log:   log,
	}
}

// Run starts the dashboard HTTP server and blocks until the provided context
// is cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	router, err := s.buildRouter()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	s.log.WithComponent("dashboard").WithFields(logger.Fields{"address": s.cfg.Address}).Info("dashboard listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.GET("/api/state", s.handleState)
	router.GET("/api/trades", s.handleTrades)
	router.GET("/api/autotrades", s.handleAutoTrades)
	router.GET("/api/prints", s.handlePrints)
	router.GET("/api/quotes/:conid", s.handleQuote)

	return router, nil
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected":  s.state.Connected(),
		"trades":     len(s.state.Trades()),
		"autoTrades": len(s.state.AutoTrades()),
		"prints":     len(s.state.Prints()),
		"stats":      s.state.Stats(),
	})
}

func (s *Server) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.tradeRows(s.state.Trades())})
}

func (s *Server) handleAutoTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.tradeRows(s.state.AutoTrades())})
}

func (s *Server) handlePrints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prints": s.state.Prints()})
}

func (s *Server) handleQuote(c *gin.Context) {
	conid, err := strconv.ParseInt(c.Param("conid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conid must be an integer"})
		return
	}

	payload := gin.H{"conid": conid}
	if q, ok := s.state.OptionQuote(conid); ok {
		payload["option"] = q
	}
	if q, ok := s.state.UnderlyingQuote(conid); ok {
		payload["underlying"] = q
	}
	c.JSON(http.StatusOK, payload)
}

// tradeRows joins each trade with its directory metadata and the derived P&L
// figures. P&L is computed here, on read, never stored on the record.
func (s *Server) tradeRows(trades []models.TradeSummary) []gin.H {
	rows := make([]gin.H, 0, len(trades))
	for _, tr := range trades {
		m := s.state.LookupMapping(tr.Conid)
		rows = append(rows, gin.H{
			"trade":      tr,
			"symbol":     m.Symbol,
			"strike":     m.Strike,
			"expiry":     m.Expiry,
			"dollarPnl":  tr.DollarPnL(),
			"percentPnl": tr.PercentPnL(),
		})
	}
	return rows
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8090"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8090"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8090")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8090")
	}

	return addr
}
