package ui

// DefaultThreshold is the width under which the diff stacks.
const DefaultThreshold = 1200

type Mode int

const (
	SideBySide Mode = iota
	Stacked
)

func (m Mode) String() string {
	if m == Stacked {
		return "stacked"
	}
	return "side-by-side"
}

// Layout switches the diff between side-by-side and stacked rendering
// from the current width alone.
type Layout struct {
	Threshold int
}

func (l Layout) threshold() int {
	if l.Threshold <= 0 {
		return DefaultThreshold
	}
	return l.Threshold
}

func (l Layout) ModeFor(width int) Mode {
	if width < l.threshold() {
		return Stacked
	}
	return SideBySide
}

// Apply sets the widget's rendering mode for width and returns it.
func (l Layout) Apply(w *DiffWidget, width int) Mode {
	mode := l.ModeFor(width)
	w.SetSideBySide(mode == SideBySide)
	return mode
}
