package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type channelStat struct {
	messages int64
	bytes    int64
}

var (
	errorsStream    int64
	errorsCollector int64
	warnsStream     int64
	warnsCollector  int64
	streamFrames    int64
	busPublishes    int64
	storeWrites     int64
	deadLetters     int64
	reconnects      int64
	channels        sync.Map // map[string]*channelStat
)

func recordWarn(component string) {
	if strings.Contains(component, "stream") {
		atomic.AddInt64(&warnsStream, 1)
	} else if strings.Contains(component, "collector") {
		atomic.AddInt64(&warnsCollector, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "stream") {
		atomic.AddInt64(&errorsStream, 1)
	} else if strings.Contains(component, "collector") {
		atomic.AddInt64(&errorsCollector, 1)
	}
}

func IncrementStreamFrame(size int) {
	atomic.AddInt64(&streamFrames, 1)
	recordChannel("stream_ws", size)
}

func IncrementBusPublish(count int) {
	atomic.AddInt64(&busPublishes, int64(count))
	recordChannel("bus_publish", count)
}

func IncrementStoreWrite(count int) {
	atomic.AddInt64(&storeWrites, int64(count))
	recordChannel("store_write", count)
}

func IncrementDeadLetter() {
	atomic.AddInt64(&deadLetters, 1)
}

func IncrementReconnect() {
	atomic.AddInt64(&reconnects, 1)
}

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

// StartReport begins periodic logging of pipeline statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
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

	fields := Fields{
		"errors_stream":    atomic.LoadInt64(&errorsStream),
		"errors_collector": atomic.LoadInt64(&errorsCollector),
		"warns_stream":     atomic.LoadInt64(&warnsStream),
		"warns_collector":  atomic.LoadInt64(&warnsCollector),
		"stream_frames":    atomic.LoadInt64(&streamFrames),
		"bus_publishes":    atomic.LoadInt64(&busPublishes),
		"store_writes":     atomic.LoadInt64(&storeWrites),
		"dead_letters":     atomic.LoadInt64(&deadLetters),
		"reconnects":       atomic.LoadInt64(&reconnects),
		"goroutines":       runtime.NumGoroutine(),
		"channels":         channelData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("StreamFrames"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["stream_frames"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("BusPublishes"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["bus_publishes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("StoreWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["store_writes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("DeadLetters"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["dead_letters"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Reconnects"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["reconnects"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsStream"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_stream"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsCollector"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_collector"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsStream"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_stream"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsCollector"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_collector"].(int64)))},
	)

	for name, stats := range channelData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("ChannelMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("ChannelBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Channel"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
