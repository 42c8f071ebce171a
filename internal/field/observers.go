package field

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ProgressUpdate reports the completion of one preset.
type ProgressUpdate struct {
	// Index is the position of the preset in the requested list.
	Index int
	// Value is the normalized progress (0.0 to 1.0).
	Value float64
}

// ProgressObserver receives progress notifications.
type ProgressObserver interface {
	Update(index int, progress float64)
}

// ChannelObserver forwards progress to a channel without blocking; updates
// are dropped while the channel is full.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer that sends updates to ch. A nil
// channel discards updates.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver.
func (o *ChannelObserver) Update(index int, progress float64) {
	if o.channel == nil {
		return
	}
	if progress > 1.0 {
		progress = 1.0
	}
	select {
	case o.channel <- ProgressUpdate{Index: index, Value: progress}:
	default:
	}
}

// LoggingObserver logs progress at debug level whenever it advanced by at
// least threshold since the last log line for that preset.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastLog   map[int]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates a throttled logging observer. A non-positive
// threshold defaults to 0.25.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.25
	}
	return &LoggingObserver{logger: logger, threshold: threshold, lastLog: make(map[int]float64)}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(index int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	last := o.lastLog[index]
	if progress >= 1.0 || last == 0 && progress > 0 || progress-last >= o.threshold {
		o.logger.Debug().
			Int("preset", index).
			Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
			Msg("field progress")
		o.lastLog[index] = progress
	}
}

// observers fans one update out to several observers.
type observers []ProgressObserver

func (obs observers) Update(index int, progress float64) {
	for _, o := range obs {
		if o != nil {
			o.Update(index, progress)
		}
	}
}
