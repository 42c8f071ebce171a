// Package cli renders ertscan results for the terminal: the scan, ladder and
// residual reports, the run history, and the progress display of field
// generation.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/ertscan/internal/field"
	"github.com/agbru/ertscan/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// CLIColorProvider implements apperrors.ColorProvider with the current theme.
type CLIColorProvider struct{}

// Yellow returns the warning color of the current theme.
func (CLIColorProvider) Yellow() string { return ui.ColorFair() }

// Reset returns the reset escape code of the current theme.
func (CLIColorProvider) Reset() string { return ui.ColorReset() }

// Spinner abstracts the terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState aggregates the progress of the fields being generated and
// estimates the remaining time from the average rate so far.
type ProgressState struct {
	progresses []float64
	start      time.Time
	now        func() time.Time
}

// NewProgressState tracks numFields fields, starting the clock now.
func NewProgressState(numFields int) *ProgressState {
	return &ProgressState{
		progresses: make([]float64, numFields),
		start:      time.Now(),
		now:        time.Now,
	}
}

// Update records the progress of one field. Out-of-range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress over all fields.
func (ps *ProgressState) CalculateAverage() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

// ETA extrapolates the remaining time linearly; it is negative while no
// progress has been made.
func (ps *ProgressState) ETA() time.Duration {
	avg := ps.CalculateAverage()
	if avg <= 0 {
		return -1
	}
	if avg >= 1 {
		return 0
	}
	elapsed := ps.now().Sub(ps.start)
	return time.Duration(float64(elapsed) * (1 - avg) / avg)
}

// FormatETA renders an ETA for the progress line.
func FormatETA(eta time.Duration) string {
	switch {
	case eta < 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	}
	return eta.Round(time.Second).String()
}

// progressBar generates a textual progress bar of the given width.
func progressBar(progress float64, length int) string {
	progress = max(0, min(1, progress))
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// DisplayProgress runs the spinner and progress bar until progressChan is
// closed, then prints a final 100 % line. It is meant to run in its own
// goroutine and calls wg.Done on return.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numFields: The number of fields contributing to the progress.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan field.ProgressUpdate, numFields int, out io.Writer) {
	defer wg.Done()
	if numFields <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressState(numFields)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	spinnerStopped := false
	defer func() {
		if !spinnerStopped {
			s.Stop()
		}
	}()

	label := "Progress"
	if numFields > 1 {
		label = fmt.Sprintf("Progress (%d fields)", numFields)
	}

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				spinnerStopped = true
				fmt.Fprintf(out, "%s: %6.2f%% [%s]\n", label, 100.0, progressBar(1, ProgressBarWidth))
				return
			}
			state.Update(update.Index, update.Value)
		case <-ticker.C:
			avg := state.CalculateAverage()
			s.UpdateSuffix(fmt.Sprintf(" %s: %6.2f%% [%s] ETA: %s",
				label, avg*100, progressBar(avg, ProgressBarWidth), FormatETA(state.ETA())))
		}
	}
}
