package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cbegin/tabplay-go"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a tab through the audio device",
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
		c, err := tabplay.NewRealtime(opts...)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		go func() {
			<-ctx.Done()
			c.Stop()
		}()

		events := c.Watch()
		go func() {
			for ev := range events {
				switch ev.Kind {
				case tabplay.EventBlockStarted:
					fmt.Fprintf(cmd.OutOrStdout(), "block %s\n", ev.Block)
				case tabplay.EventBarStarted:
					fmt.Fprintf(cmd.OutOrStdout(), "  bar %d\n", ev.Bar+1)
				case tabplay.EventPlaybackEnded:
					fmt.Fprintln(cmd.OutOrStdout(), "playback completed")
				}
			}
		}()
		return c.PlayAll(ctx, doc.Blocks)
	},
}
