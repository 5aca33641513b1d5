package document

import (
	"github.com/google/uuid"

	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/tab"
)

type BlockType string

const (
	TextBlock BlockType = "text"
	TabBlock  BlockType = "tab"
)

const (
	DefaultTempo    = 120
	DefaultDuration = "1/4"
	MinTempo        = 40
	MaxTempo        = 300
)

// Block is either free text or a tab diagram. Tempo, Duration and Bars
// only apply to tab blocks.
type Block struct {
	ID       string
	Type     BlockType
	Content  string
	Tempo    int
	Duration string
	Bars     int
}

func NewTextBlock(content string) Block {
	return Block{ID: uuid.NewString(), Type: TextBlock, Content: content}
}

// NewTabBlock returns a one-bar blank diagram labelled for tuning.
func NewTabBlock(tuning string) Block {
	return Block{
		ID:       uuid.NewString(),
		Type:     TabBlock,
		Content:  tab.GenerateEmpty(1, tuning),
		Tempo:    DefaultTempo,
		Duration: DefaultDuration,
		Bars:     1,
	}
}

func (b Block) IsTab() bool { return b.Type == TabBlock }

// Parsed parses the block content; text blocks parse as empty.
func (b Block) Parsed() tab.ParsedTab {
	if !b.IsTab() {
		return tab.ParsedTab{}
	}
	return tab.Parse(b.Content)
}

// Seconds is how long the block plays at its tempo, one whole note per bar.
func (b Block) Seconds() float64 {
	if !b.IsTab() {
		return 0
	}
	return float64(b.Parsed().Bars) * pitch.DurationToTime("1/1", float64(b.Tempo))
}

func clampTempo(bpm int) int {
	return min(max(bpm, MinTempo), MaxTempo)
}
