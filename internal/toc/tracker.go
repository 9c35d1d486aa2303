package toc

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultRootMargin biases observation to the top fifth of the viewport.
const DefaultRootMargin = "0px 0px -80% 0px"

// Length is a CSS length in pixels or percent of the viewport height.
type Length struct {
	Value   float64
	Percent bool
}

func (l Length) resolve(viewportHeight float64) float64 {
	if l.Percent {
		return l.Value / 100 * viewportHeight
	}
	return l.Value
}

// Margin grows (or, when negative, shrinks) the observed viewport.
type Margin struct {
	Top, Right, Bottom, Left Length
}

// ParseMargin parses a root margin in CSS shorthand with one to four
// px or % values.
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 4 {
		return Margin{}, fmt.Errorf("invalid root margin %q", s)
	}
	vals := make([]Length, len(fields))
	for i, f := range fields {
		l, err := parseLength(f)
		if err != nil {
			return Margin{}, fmt.Errorf("invalid root margin %q: %w", s, err)
		}
		vals[i] = l
	}
	switch len(vals) {
	case 1:
		return Margin{vals[0], vals[0], vals[0], vals[0]}, nil
	case 2:
		return Margin{vals[0], vals[1], vals[0], vals[1]}, nil
	case 3:
		return Margin{vals[0], vals[1], vals[2], vals[1]}, nil
	default:
		return Margin{vals[0], vals[1], vals[2], vals[3]}, nil
	}
}

func parseLength(s string) (Length, error) {
	switch {
	case strings.HasSuffix(s, "%"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return Length{Value: v, Percent: true}, err
	case strings.HasSuffix(s, "px"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		return Length{Value: v}, err
	case s == "0":
		return Length{}, nil
	default:
		return Length{}, fmt.Errorf("unsupported length %q", s)
	}
}

// Box is the vertical extent of a heading within the page.
type Box struct {
	Top, Height float64
}

// Tracker follows which heading is active while scrolling. The active
// heading is the first one, in document order, that intersects the
// margin-adjusted viewport. When none does, the previous one stays active.
type Tracker struct {
	headings []Heading
	margin   Margin
	active   string
}

// NewTracker creates a Tracker with the default root margin.
func NewTracker(headings []Heading) *Tracker {
	m, _ := ParseMargin(DefaultRootMargin)
	return &Tracker{headings: headings, margin: m}
}

// SetMargin replaces the root margin.
func (t *Tracker) SetMargin(m Margin) {
	t.margin = m
}

// Observe recomputes the active heading for a scroll position and returns
// its id. positions maps heading ids to their boxes; headings without a
// box are treated as not intersecting.
func (t *Tracker) Observe(positions map[string]Box, scrollTop, viewportHeight float64) string {
	top := scrollTop - t.margin.Top.resolve(viewportHeight)
	bottom := scrollTop + viewportHeight + t.margin.Bottom.resolve(viewportHeight)

	for _, h := range t.headings {
		box, ok := positions[h.ID]
		if !ok {
			continue
		}
		if box.Top < bottom && box.Top+box.Height > top {
			t.active = h.ID
			return t.active
		}
	}
	return t.active
}

// Active returns the id of the active heading, or "" before any heading
// has intersected.
func (t *Tracker) Active() string {
	return t.active
}

// Headings returns the tracked headings.
func (t *Tracker) Headings() []Heading {
	return t.headings
}
