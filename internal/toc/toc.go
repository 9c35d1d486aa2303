// Package toc builds a page's table of contents and tracks which heading
// is active as the page scrolls.
package toc

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"
	"golang.org/x/net/html"

	"github.com/f4ah6o/docsearch-go/internal/highlight"
)

// Heading is one table of contents entry.
type Heading struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Level int    `json:"level"`
}

// Extract lists the h1-h6 headings of the content region picked by selector
// in document order. Headings without an id get one derived from their
// label, and the id is written back to the node so links resolve.
func Extract(root *html.Node, selector string) []Heading {
	region := highlight.ContentRegion(root, selector)
	used := map[string]int{}

	headings := []Heading{}
	goquery.NewDocumentFromNode(region).Find("h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		label := strings.Join(strings.Fields(s.Text()), " ")
		if label == "" {
			return
		}
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))

		id, ok := s.Attr("id")
		if !ok || id == "" {
			id = uniqueID(used, label, i)
			s.SetAttr("id", id)
		} else {
			used[id]++
		}
		headings = append(headings, Heading{ID: id, Label: label, Level: level})
	})
	return headings
}

func uniqueID(used map[string]int, label string, i int) string {
	base := slug.Make(label)
	if base == "" {
		base = fmt.Sprintf("heading-%d", i+1)
	}
	used[base]++
	if n := used[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

// TargetOffset is where clicking a heading scrolls to: the heading's top
// minus a tenth of the viewport height.
func TargetOffset(top, viewportHeight float64) float64 {
	return top - 0.1*viewportHeight
}

// ScrollDuration returns how long scrolling over distance pixels takes.
// Short distances scroll at a fixed ratio, longer ones add a smaller
// per-pixel increment, and the result is clamped to [1ms, 1s].
func ScrollDuration(distance float64) time.Duration {
	d := math.Abs(distance)
	var ms float64
	if d <= 500 {
		ms = d * 0.3
	} else {
		ms = 150 + (d-500)*0.1
	}
	ms = math.Max(1, math.Min(ms, 1000))
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// FrameInterval is the animation tick, about one display frame.
const FrameInterval = 16 * time.Millisecond

// Animate moves linearly from from to to over duration, calling frame
// with each intermediate position. The final call always receives to
// unless ctx is cancelled first.
func Animate(ctx context.Context, from, to float64, duration time.Duration, frame func(pos float64)) error {
	if duration <= 0 {
		frame(to)
		return nil
	}

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			progress := float64(now.Sub(start)) / float64(duration)
			if progress >= 1 {
				frame(to)
				return nil
			}
			frame(from + (to-from)*progress)
		}
	}
}
