// Package progress draws an in-place terminal progress bar for long CLI
// runs such as GeoJSON reprojection and preview rendering.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bar refreshes at a fixed interval and supports concurrent Add calls
// from multiple worker goroutines. A nil *Bar ignores every call.
type Bar struct {
	w         io.Writer
	total     int64
	processed atomic.Int64
	label     string
	unit      string
	barWidth  int
	start     time.Time
	done      chan struct{}
	finished  sync.Once
	mu        sync.Mutex
}

// New starts a bar writing to w. unit names the counted items ("features",
// "rows").
func New(w io.Writer, label, unit string, total int64) *Bar {
	b := &Bar{
		w:        w,
		total:    total,
		label:    label,
		unit:     unit,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Add marks n more items as processed.
func (b *Bar) Add(n int) {
	if b == nil {
		return
	}
	b.processed.Add(int64(n))
}

// Processed returns the number of items counted so far.
func (b *Bar) Processed() int64 {
	if b == nil {
		return 0
	}
	return b.processed.Load()
}

// Finish stops the refresh loop and prints the final bar state with a
// newline. Calling it more than once is harmless.
func (b *Bar) Finish() {
	if b == nil {
		return
	}
	b.finished.Do(func() {
		close(b.done)
		b.draw()
		fmt.Fprint(b.w, "\n")
	})
}

func (b *Bar) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.draw()
		}
	}
}

func (b *Bar) draw() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.w, "\r%s\033[K", b.render(time.Since(b.start)))
}

func (b *Bar) render(elapsed time.Duration) string {
	processed := b.processed.Load()

	var frac float64
	if b.total > 0 {
		frac = min(float64(processed)/float64(b.total), 1)
	}
	filled := int(float64(b.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.barWidth-filled)

	rate := float64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}
	return fmt.Sprintf("%s [%s] %3.0f%%  %d/%d %s  %.0f/s  %s",
		b.label, bar, frac*100, processed, b.total, b.unit, rate, formatDuration(elapsed))
}

// formatDuration formats a duration concisely (e.g. "1m23s", "45s", "0s").
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
