package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"QuoteBoard/internal/alert"
	"QuoteBoard/internal/model"
)

// CloseLabel is the label of the close-price line on every panel.
const CloseLabel = "Close Price"

// Text writes frames as plain text, e.g. to a terminal.
type Text struct {
	mu sync.Mutex
	w  io.Writer
	// Candles is how many of the most recent bars are listed per symbol.
	Candles int
}

// NewText creates a text surface writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w, Candles: 5}
}

func (t *Text) Render(_ context.Context, frame *model.Frame) error {
	out := FormatFrame(frame, t.Candles)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, out)
	return err
}

// FormatFrame formats a frame as a text block.
func FormatFrame(frame *model.Frame, candles int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 %s\n", frame.Title))
	b.WriteString(strings.Repeat("═", 60) + "\n")

	for i := range frame.Panels {
		b.WriteString(FormatPanel(&frame.Panels[i], candles))
		b.WriteString("\n")
	}

	for _, f := range frame.Failures {
		b.WriteString(fmt.Sprintf("❌ %s: data unavailable (%s)\n", f.Symbol, f.Error))
	}
	for i := range frame.Alerts {
		b.WriteString(alert.Message(&frame.Alerts[i]) + "\n")
	}

	b.WriteString(fmt.Sprintf("⏱️ Last updated: %s\n\n", frame.UpdatedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatPanel formats one symbol's block.
func FormatPanel(p *model.Panel, candles int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("── %s ──\n", p.Symbol))

	if p.NoData {
		b.WriteString("  No data available for this symbol\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  Close: %.2f | Range: %.2f - %.2f (%.0f%%) | Alert at: %.2f\n",
		p.LatestClose, p.Low, p.High, p.RangePos*100, p.Threshold))

	// Latest value of every line except the close itself.
	var mas []string
	for _, ls := range p.Lines {
		if ls.Label == CloseLabel {
			continue
		}
		v := "n/a"
		if n := len(ls.Points); n > 0 && ls.Points[n-1].Value.Valid {
			v = fmt.Sprintf("%.2f", ls.Points[n-1].Value.Value)
		}
		mas = append(mas, fmt.Sprintf("%s: %s", ls.Label, v))
	}
	if len(mas) > 0 {
		b.WriteString("  " + strings.Join(mas, " | ") + "\n")
	}

	start := len(p.Candles) - candles
	if start < 0 {
		start = 0
	}
	for _, q := range p.Candles[start:] {
		b.WriteString(fmt.Sprintf("  %s  O %.2f  H %.2f  L %.2f  C %.2f\n",
			q.Time.Format("15:04"), q.Open, q.High, q.Low, q.Close))
	}
	for _, n := range p.Notes {
		b.WriteString("  ℹ️ " + n + "\n")
	}
	return b.String()
}
