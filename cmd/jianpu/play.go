package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	jianpu "github.com/cbegin/jianpu-go"
	"github.com/cbegin/jianpu-go/internal/preview"
)

var (
	scoreNo    int
	sampleRate int
)

func init() {
	for _, c := range []*cobra.Command{playCmd, wavCmd} {
		c.Flags().IntVar(&scoreNo, "score", 1, "which score to play, counting from 1")
		c.Flags().IntVar(&sampleRate, "sample-rate", 0, "sample rate (default from config)")
		c.Flags().StringVar(&soundFont, "soundfont", "", "SF2 file to play through instead of the built-in voices")
		c.Flags().IntVar(&program, "program", -1, "General MIDI program for the soundfont")
	}
	rootCmd.AddCommand(playCmd, wavCmd)
}

func audioOptions() ([]jianpu.Option, error) {
	opts, err := options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, jianpu.WithScore(scoreNo))
	if sampleRate > 0 {
		opts = append(opts, jianpu.WithSampleRate(sampleRate))
	}
	path := soundFont
	if path == "" {
		path = loaded.SoundFont
	}
	if path == "" {
		return opts, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening soundfont")
	}
	defer f.Close()
	sf, err := preview.LoadSoundFont(f)
	if err != nil {
		return nil, err
	}
	prog := loaded.Program
	if program >= 0 {
		prog = program
	}
	return append(opts, jianpu.WithSoundFont(sf, prog)), nil
}

var playCmd = &cobra.Command{
	Use:   "play [file...]",
	Short: "Play a score on the default audio device",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := audioOptions()
		if err != nil {
			return err
		}
		text, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		pl, err := jianpu.NewPlayer(text, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "playing score %d (%s)\n", scoreNo, pl.Length().Round(100*time.Millisecond))

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		pl.Play()
		done := make(chan struct{})
		go func() {
			pl.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-interrupt:
		}
		return pl.Stop()
	},
}

var wavCmd = &cobra.Command{
	Use:   "wav [file...]",
	Short: "Render a score to a WAV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := audioOptions()
		if err != nil {
			return err
		}
		text, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		data, err := jianpu.RenderWAV(text, opts...)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, data); err != nil {
			return err
		}
		if outputPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", outputPath, humanize.Bytes(uint64(len(data))))
		}
		return nil
	},
}
