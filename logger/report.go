package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type channelStat struct {
	messages int64
	bytes    int64
}

var (
	errorsFeed    int64
	errorsSession int64
	warnsFeed     int64
	warnsSession  int64
	tradeEvents   int64
	printEvents   int64
	quoteEvents   int64
	mappingEvents int64
	statsEvents   int64
	droppedFrames int64
	reconnects    int64
	channels      sync.Map // map[string]*channelStat
)

func recordWarn(component string) {
	if strings.Contains(component, "feed") {
		atomic.AddInt64(&warnsFeed, 1)
	} else if strings.Contains(component, "session") || strings.Contains(component, "dispatcher") {
		atomic.AddInt64(&warnsSession, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "feed") {
		atomic.AddInt64(&errorsFeed, 1)
	} else if strings.Contains(component, "session") || strings.Contains(component, "dispatcher") {
		atomic.AddInt64(&errorsSession, 1)
	}
}

// IncrementTradeEvent counts an ingested CALL/PUT trade summary.
func IncrementTradeEvent(size int) {
	atomic.AddInt64(&tradeEvents, 1)
	recordChannel("trade_events", size)
}

// IncrementPrintEvent counts an ingested PRINT record.
func IncrementPrintEvent(size int) {
	atomic.AddInt64(&printEvents, 1)
	recordChannel("print_events", size)
}

// IncrementQuoteEvent counts an ingested option or underlying quote.
func IncrementQuoteEvent(size int) {
	atomic.AddInt64(&quoteEvents, 1)
	recordChannel("quote_events", size)
}

// IncrementMappingEvent counts an ingested identifier mapping.
func IncrementMappingEvent(size int) {
	atomic.AddInt64(&mappingEvents, 1)
	recordChannel("mapping_events", size)
}

// IncrementStatsEvent counts an ingested trading stats snapshot.
func IncrementStatsEvent(size int) {
	atomic.AddInt64(&statsEvents, 1)
	recordChannel("stats_events", size)
}

// IncrementDroppedFrame counts a frame dropped because it could not be
// decoded or because the raw channel was full.
func IncrementDroppedFrame() {
	atomic.AddInt64(&droppedFrames, 1)
}

// IncrementReconnect counts a feed reconnection attempt.
func IncrementReconnect() {
	atomic.AddInt64(&reconnects, 1)
}

// RecordChannelMessage records a message flowing through a named channel.
func RecordChannelMessage(name string, size int) {
	recordChannel(name, size)
}

func recordChannel(name string, size int) {
	v, _ := channels.LoadOrStore(name, &channelStat{})
	cs := v.(*channelStat)
	atomic.AddInt64(&cs.messages, 1)
	atomic.AddInt64(&cs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and ingest statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	netStats, _ := gnet.IOCounters(false)
	channelData := map[string]map[string]int64{}
	channels.Range(func(k, v any) bool {
		name := k.(string)
		cs := v.(*channelStat)
		channelData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&cs.messages),
			"bytes":    atomic.LoadInt64(&cs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"errors_feed":    atomic.LoadInt64(&errorsFeed),
		"errors_session": atomic.LoadInt64(&errorsSession),
		"warns_feed":     atomic.LoadInt64(&warnsFeed),
		"warns_session":  atomic.LoadInt64(&warnsSession),
		"trade_events":   atomic.LoadInt64(&tradeEvents),
		"print_events":   atomic.LoadInt64(&printEvents),
		"quote_events":   atomic.LoadInt64(&quoteEvents),
		"mapping_events": atomic.LoadInt64(&mappingEvents),
		"stats_events":   atomic.LoadInt64(&statsEvents),
		"dropped_frames": atomic.LoadInt64(&droppedFrames),
		"reconnects":     atomic.LoadInt64(&reconnects),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuPct,
		"memory_mb":      int64(memStats.Used) / 1024 / 1024,
		"channels":       channelData,
		"net_bytes_sent": int64(bytesSent),
		"net_bytes_recv": int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("Flow-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-ErrorsFeed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_feed"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-ErrorsSession"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_session"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-TradeEvents"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["trade_events"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-PrintEvents"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["print_events"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-QuoteEvents"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["quote_events"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-DroppedFrames"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["dropped_frames"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-Reconnects"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["reconnects"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("Flow-NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range channelData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("Flow-ChannelMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("Flow-ChannelBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
