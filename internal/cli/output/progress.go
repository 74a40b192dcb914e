package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar displays completed units (requests, tokens) against a total.
// It is safe for concurrent use.
type ProgressBar struct {
	w       io.Writer
	title   string
	unit    string
	total   int64
	current int64
	width   int
	start   time.Time
	mu      sync.Mutex
}

// NewProgressBar creates a new progress bar counting unit.
func NewProgressBar(w io.Writer, title, unit string) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		unit:  unit,
		width: 40,
		start: time.Now(),
	}
}

// SetTotal sets the expected number of units.
func (p *ProgressBar) SetTotal(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// Increment adds to current progress.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// Finish renders the final state and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	rate := ""
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = fmt.Sprintf(" %.0f %s/s", float64(p.current)/elapsed, p.unit)
	}

	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d %s%s", p.title, p.current, p.unit, rate)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}

	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d %s)%s",
		p.title, bar, percent*100, p.current, p.total, p.unit, rate)
}
