package boarddom

// Layout holds the fixed widths the board stylesheet uses, in pixels.
type Layout struct {
	ColumnWidth    int
	Gap            int
	AddColumnWidth int
}

// DefaultLayout matches the board stylesheet.
var DefaultLayout = Layout{ColumnWidth: 272, Gap: 12, AddColumnWidth: 272}

// StripWidth is the scrollable width of a strip holding n columns.
func (l Layout) StripWidth(n int) int {
	return n*(l.ColumnWidth+l.Gap) + l.AddColumnWidth
}

// ScrollState is the horizontal scroll position of the column strip.
type ScrollState struct {
	Left        int
	ClientWidth int
}

// Scroll returns the current scroll state.
func (d *Document) Scroll() ScrollState { return d.scroll }

// MaxScroll returns the largest offset the strip can scroll to.
func (d *Document) MaxScroll() int {
	max := d.layout.StripWidth(len(d.ColumnIDs())) - d.scroll.ClientWidth
	if max < 0 {
		return 0
	}
	return max
}

// SetScroll records a scroll offset reported by the browser, clamped to
// the strip.
func (d *Document) SetScroll(left int) {
	d.scroll.Left = d.clamp(left)
}

// SetClientWidth records the visible width of the strip.
func (d *Document) SetClientWidth(w int) {
	if w < 0 {
		w = 0
	}
	d.scroll.ClientWidth = w
	d.scroll.Left = d.clamp(d.scroll.Left)
}

func (d *Document) clamp(left int) int {
	if left < 0 {
		return 0
	}
	if max := d.MaxScroll(); left > max {
		return max
	}
	return left
}
