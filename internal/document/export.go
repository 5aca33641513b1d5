package document

import (
	"fmt"
	"strings"

	"github.com/cbegin/tabplay-go/internal/tab"
)

// Export writes the document in the plain-text exchange format: a
// "---"-delimited metadata header followed by [TEXT] and [TAB] bodies.
func Export(d *Document) string {
	var b strings.Builder
	md := d.Metadata
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"%s\"\n", md.Title)
	fmt.Fprintf(&b, "tuning: \"%s\"\n", md.Tuning)
	fmt.Fprintf(&b, "spacing: %d\n", md.Spacing)
	fmt.Fprintf(&b, "instrument: \"%s\"\n", md.Instrument)
	b.WriteString("blocks:\n")
	for _, blk := range d.Blocks {
		fmt.Fprintf(&b, "  - type: \"%s\"\n", blk.Type)
		if !blk.IsTab() {
			continue
		}
		bars := blk.Bars
		if bars == 0 {
			bars = tab.CountBars(blk.Content)
		}
		fmt.Fprintf(&b, "    tempo: %d\n", blk.Tempo)
		fmt.Fprintf(&b, "    duration: \"%s\"\n", blk.Duration)
		fmt.Fprintf(&b, "    bars: %d\n", bars)
	}
	b.WriteString("---\n\n")

	for _, blk := range d.Blocks {
		if blk.IsTab() {
			fmt.Fprintf(&b, "[TAB tempo=%d duration=%s]\n%s[/TAB]\n\n", blk.Tempo, blk.Duration, blk.Content)
			continue
		}
		fmt.Fprintf(&b, "[TEXT]\n%s\n[/TEXT]\n\n", blk.Content)
	}
	return b.String()
}
