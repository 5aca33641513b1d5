package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/tabplay-go"
	"github.com/cbegin/tabplay-go/internal/document"
	"github.com/cbegin/tabplay-go/internal/pitch"
)

var (
	instrumentName string
	engineName     string
	tempo          int
	duration       string
	sampleRate     int
	soundFont      string
	debug          bool
)

var rootCmd = &cobra.Command{
	Use:   "tabplay",
	Short: "Play, render and convert guitar tabs",
	Long: `tabplay reads six-line ASCII guitar tabs, either raw or as an exported
document with text and tab blocks, and plays them with hammer-ons,
pull-offs, bends, slides, vibrato and muted notes.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		opts := &slog.HandlerOptions{Level: slog.LevelInfo}
		if debug {
			opts.Level = slog.LevelDebug
			opts.AddSource = true
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&instrumentName, "instrument", "i", "", "instrument: acoustic|electric|bass|piano (default: document metadata)")
	flags.StringVarP(&engineName, "engine", "e", string(tabplay.EngineTransport), "bar timing: transport|direct")
	flags.IntVar(&tempo, "tempo", document.DefaultTempo, "tempo for raw tab input, in bpm")
	flags.StringVar(&duration, "duration", document.DefaultDuration, "note value for raw tab input")
	flags.IntVar(&sampleRate, "sample-rate", tabplay.DefaultSampleRate, "output sample rate")
	flags.StringVar(&soundFont, "soundfont", "", "path to an .sf2 file for plain tones")
	flags.BoolVar(&debug, "debug", false, "debug logging")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadDocument reads an exported document, or wraps raw tab text in a
// one-block document. An empty path or "-" reads stdin.
func loadDocument(path string) (*document.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	text := string(data)
	if strings.HasPrefix(strings.TrimSpace(text), "---") {
		doc, err := document.Import(text)
		if err != nil {
			if issue := document.Issue(err); issue != "" {
				return nil, fmt.Errorf("%s: %w", issue, err)
			}
			return nil, err
		}
		return doc, nil
	}
	doc := &document.Document{Metadata: document.DefaultMetadata()}
	doc.Blocks = []document.Block{document.NewTabBlock(doc.Metadata.Tuning)}
	id := doc.Blocks[0].ID
	doc.Update(id, text)
	doc.SetTiming(id, tempo, duration)
	return doc, nil
}

func instrumentFor(cmd *cobra.Command, doc *document.Document) (pitch.Instrument, error) {
	if !cmd.Flags().Changed("instrument") {
		return doc.Instrument(), nil
	}
	inst, ok := pitch.ParseInstrument(strings.ToLower(strings.TrimSpace(instrumentName)))
	if !ok {
		return "", fmt.Errorf("invalid --instrument %q (expected acoustic|electric|bass|piano)", instrumentName)
	}
	return inst, nil
}

// playbackOptions collects the controller options shared by play and
// render.
func playbackOptions(cmd *cobra.Command, doc *document.Document) ([]tabplay.Option, error) {
	inst, err := instrumentFor(cmd, doc)
	if err != nil {
		return nil, err
	}
	engine, ok := tabplay.ParseEngine(strings.ToLower(strings.TrimSpace(engineName)))
	if !ok {
		return nil, fmt.Errorf("invalid --engine %q (expected transport|direct)", engineName)
	}
	return []tabplay.Option{
		tabplay.WithInstrument(inst),
		tabplay.WithEngine(engine),
		tabplay.WithSampleRate(sampleRate),
		tabplay.WithSoundFont(soundFont),
		tabplay.WithLogger(slog.Default()),
	}, nil
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
