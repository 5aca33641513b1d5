package document

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/tabplay-go/internal/tab"
)

// ErrInvalidFormat is returned when text is not an exported document.
var ErrInvalidFormat = errors.New("invalid import format")

var (
	envelopeRe = regexp.MustCompile(`(?s)---(.*?)---\s*(.*)`)
	bodyRe     = regexp.MustCompile(`(?s)\[TEXT\](.*?)\[/TEXT\]|\[TAB tempo=(\d+) duration=([^\]]+)\](.*?)\[/TAB\]`)

	titleRe      = regexp.MustCompile(`title:\s*"([^"]*)"`)
	tuningRe     = regexp.MustCompile(`tuning:\s*"([^"]*)"`)
	spacingRe    = regexp.MustCompile(`spacing:\s*(\d+)`)
	instrumentRe = regexp.MustCompile(`instrument:\s*"([^"]*)"`)
)

// Import parses text written by Export. Blocks get fresh ids and tab bar
// counts are recomputed from their content.
func Import(text string) (*Document, error) {
	m := envelopeRe.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" || strings.TrimSpace(m[2]) == "" {
		return nil, fault.Wrap(ErrInvalidFormat,
			fmsg.WithDesc("missing metadata envelope",
				"This is not an exported tab: it must start with a metadata header between --- lines, followed by blocks."),
			ftag.With(ftag.InvalidArgument))
	}
	md := parseMetadata(m[1])
	blocks := parseBodies(m[2])
	if len(blocks) == 0 {
		blocks = []Block{NewTabBlock(md.Tuning)}
	}
	return &Document{Metadata: md, Blocks: blocks}, nil
}

// Issue returns the user-facing description attached to an import error.
func Issue(err error) string {
	return fmsg.GetIssue(err)
}

func parseMetadata(header string) Metadata {
	md := DefaultMetadata()
	if err := yaml.Unmarshal([]byte(header), &md); err != nil {
		// Hand-edited headers with unescaped quotes are still read field
		// by field.
		md = DefaultMetadata()
		if m := spacingRe.FindStringSubmatch(header); m != nil {
			md.Spacing, _ = strconv.Atoi(m[1])
		}
	}
	// Export writes quoted values verbatim, so backslashes are not escapes.
	if m := titleRe.FindStringSubmatch(header); m != nil {
		md.Title = m[1]
	}
	if m := tuningRe.FindStringSubmatch(header); m != nil {
		md.Tuning = m[1]
	}
	if m := instrumentRe.FindStringSubmatch(header); m != nil {
		md.Instrument = m[1]
	}
	return withDefaults(md)
}

func withDefaults(md Metadata) Metadata {
	def := DefaultMetadata()
	if md.Tuning == "" {
		md.Tuning = def.Tuning
	}
	if md.Spacing <= 0 {
		md.Spacing = def.Spacing
	}
	if md.Instrument == "" {
		md.Instrument = def.Instrument
	}
	return md
}

func parseBodies(content string) []Block {
	var blocks []Block
	for _, m := range bodyRe.FindAllStringSubmatchIndex(content, -1) {
		group := func(n int) (string, bool) {
			if m[2*n] < 0 {
				return "", false
			}
			return content[m[2*n]:m[2*n+1]], true
		}
		if text, ok := group(1); ok {
			blocks = append(blocks, Block{
				ID:      uuid.NewString(),
				Type:    TextBlock,
				Content: strings.TrimSpace(text),
			})
			continue
		}
		tempoText, _ := group(2)
		duration, _ := group(3)
		body, _ := group(4)
		tempo, err := strconv.Atoi(tempoText)
		if err != nil {
			tempo = DefaultTempo
		}
		body = strings.TrimSpace(body)
		blocks = append(blocks, Block{
			ID:       uuid.NewString(),
			Type:     TabBlock,
			Content:  body,
			Tempo:    tempo,
			Duration: strings.TrimSpace(duration),
			Bars:     tab.CountBars(body),
		})
	}
	return blocks
}
