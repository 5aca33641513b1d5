package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cbegin/tabplay-go"
	"github.com/cbegin/tabplay-go/internal/midifile"
)

var (
	wavOut  string
	midiOut string
)

func init() {
	renderCmd.Flags().StringVarP(&wavOut, "output", "o", "out.wav", "WAV file to write")
	midiCmd.Flags().StringVarP(&midiOut, "output", "o", "out.mid", "MIDI file to write")
	rootCmd.AddCommand(renderCmd, midiCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a tab to a WAV file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(inputArg(args))
		if err != nil {
			return err
		}
		opts, err := playbackOptions(cmd, doc)
		if err != nil {
			return err
		}
		samples, err := tabplay.Render(cmd.Context(), doc.Blocks, opts...)
		if err != nil {
			return err
		}
		f, err := os.Create(wavOut)
		if err != nil {
			return err
		}
		if err := tabplay.WriteWAV(f, samples, sampleRate); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var midiCmd = &cobra.Command{
	Use:   "midi [file]",
	Short: "Export a tab as a Standard MIDI File",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(inputArg(args))
		if err != nil {
			return err
		}
		inst, err := instrumentFor(cmd, doc)
		if err != nil {
			return err
		}
		return midifile.WriteFile(midiOut, doc.Blocks, inst)
	},
}
