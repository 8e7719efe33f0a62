// Package cartview derives the visible cart state (counter badges, drawer
// lines, total) from enriched cart lines and fans it out to registered sinks.
// Rendering is a pure function of the lines; sinks are notified in full after
// every cart mutation so no surface shows a stale partial state.
package cartview

import (
	"github.com/andrifs/tokobolen/internal/domain"
)

type View struct {
	Count      int
	Lines      []domain.CartLine
	Total      int64
	TotalLabel string
}

func (v View) Empty() bool { return len(v.Lines) == 0 }

// Build computes the full view from the current enriched cart.
func Build(lines []domain.CartLine) View {
	v := View{Lines: lines}
	for _, l := range lines {
		v.Count += l.Qty
		v.Total += l.Subtotal()
	}
	v.TotalLabel = FormatRupiah(v.Total)
	return v
}
