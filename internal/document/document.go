package document

import (
	"slices"

	"github.com/google/uuid"

	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/tab"
)

type Metadata struct {
	Title      string `yaml:"title"`
	Tuning     string `yaml:"tuning"`
	Spacing    int    `yaml:"spacing"`
	Instrument string `yaml:"instrument"`
}

func DefaultMetadata() Metadata {
	return Metadata{
		Tuning:     tab.StandardTuning,
		Spacing:    1,
		Instrument: string(pitch.Acoustic),
	}
}

// Document is an ordered list of blocks plus metadata. It always holds at
// least one block.
type Document struct {
	Metadata Metadata
	Blocks   []Block
}

// New returns a document with an empty text block followed by a blank tab.
func New(title string) *Document {
	md := DefaultMetadata()
	md.Title = title
	return &Document{
		Metadata: md,
		Blocks:   []Block{NewTextBlock(""), NewTabBlock(md.Tuning)},
	}
}

// Instrument returns the metadata instrument, defaulting to acoustic.
func (d *Document) Instrument() pitch.Instrument {
	inst, _ := pitch.ParseInstrument(d.Metadata.Instrument)
	return inst
}

func (d *Document) index(id string) int {
	return slices.IndexFunc(d.Blocks, func(b Block) bool { return b.ID == id })
}

func (d *Document) Block(id string) (Block, bool) {
	i := d.index(id)
	if i < 0 {
		return Block{}, false
	}
	return d.Blocks[i], true
}

// Add inserts a new block after the block with id after, or appends when
// after is empty or unknown. It returns the new block's id.
func (d *Document) Add(typ BlockType, after string) string {
	b := NewTextBlock("")
	if typ == TabBlock {
		b = NewTabBlock(d.Metadata.Tuning)
	}
	i := d.index(after)
	if i < 0 {
		d.Blocks = append(d.Blocks, b)
	} else {
		d.Blocks = slices.Insert(d.Blocks, i+1, b)
	}
	return b.ID
}

// Delete removes a block. The last remaining block is never removed.
func (d *Document) Delete(id string) bool {
	i := d.index(id)
	if i < 0 || len(d.Blocks) <= 1 {
		return false
	}
	d.Blocks = slices.Delete(d.Blocks, i, i+1)
	return true
}

// Duplicate copies a block in place, right after the original.
func (d *Document) Duplicate(id string) (string, bool) {
	i := d.index(id)
	if i < 0 {
		return "", false
	}
	cp := d.Blocks[i]
	cp.ID = uuid.NewString()
	d.Blocks = slices.Insert(d.Blocks, i+1, cp)
	return cp.ID, true
}

// Move shifts a block one place up (delta -1) or down (delta 1).
func (d *Document) Move(id string, delta int) bool {
	i := d.index(id)
	j := i + delta
	if i < 0 || (delta != -1 && delta != 1) || j < 0 || j >= len(d.Blocks) {
		return false
	}
	d.Blocks[i], d.Blocks[j] = d.Blocks[j], d.Blocks[i]
	return true
}

// Update replaces a block's content; tab blocks refresh their bar count.
func (d *Document) Update(id, content string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	b := &d.Blocks[i]
	b.Content = content
	if b.IsTab() {
		b.Bars = tab.CountBars(content)
	}
	return true
}

// SetTiming changes a tab block's tempo and note value. Tempo is clamped to
// [MinTempo, MaxTempo]; an unparseable duration keeps the current one.
func (d *Document) SetTiming(id string, tempo int, duration string) bool {
	i := d.index(id)
	if i < 0 || !d.Blocks[i].IsTab() {
		return false
	}
	b := &d.Blocks[i]
	b.Tempo = clampTempo(tempo)
	if _, ok := pitch.ParseFraction(duration); ok {
		b.Duration = duration
	}
	return true
}

// Normalize pads a tab block's lines to equal length.
func (d *Document) Normalize(id string) bool {
	b, ok := d.Block(id)
	if !ok || !b.IsTab() {
		return false
	}
	return d.Update(id, tab.NormalizeLines(b.Content))
}

// AppendBars adds blank bars to the end of every line of a tab block.
func (d *Document) AppendBars(id string, n int) bool {
	b, ok := d.Block(id)
	if !ok || !b.IsTab() || n <= 0 {
		return false
	}
	parsed := tab.Parse(b.Content)
	if parsed.Empty() {
		return false
	}
	blank := tab.GenerateEmpty(n, d.Metadata.Tuning)
	lines := splitTrim(b.Content)
	extra := splitTrim(blank)
	for i := range lines {
		_, bars, _ := cutPrefix(extra[i])
		lines[i] += bars
	}
	return d.Update(id, joinLines(lines))
}
