package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	jianpu "github.com/cbegin/jianpu-go"
)

func init() {
	rootCmd.AddCommand(midiCmd)
}

var midiCmd = &cobra.Command{
	Use:   "midi [file...]",
	Short: "Write Standard MIDI Files, one per score",
	Long: `Writes one Standard MIDI File per score. With -o song.mid the files are
named song.mid, song-2.mid and so on; without it the first file goes to
stdout and further files are an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options()
		if err != nil {
			return err
		}
		text, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		files, err := jianpu.MIDIFiles(text, opts...)
		if err != nil {
			return err
		}
		if outputPath == "" {
			if len(files) > 1 {
				return errors.Errorf("%d MIDI files to write, use -o", len(files))
			}
			return writeOutput(cmd, files[0])
		}
		for i, data := range files {
			name := numberedPath(outputPath, i)
			if err := os.WriteFile(name, data, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", name)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", name, humanize.Bytes(uint64(len(data))))
		}
		return nil
	},
}

// numberedPath returns path for the first file and adds -2, -3 and so on
// before the extension for the rest.
func numberedPath(path string, i int) string {
	if i == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
