package main

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	jianpu "github.com/cbegin/jianpu-go"
	"github.com/cbegin/jianpu-go/internal/config"
)

var (
	configPath string
	outputPath string
	soundFont  string
	program    int

	logger = log.New(os.Stderr, "jianpu: ", 0)
	loaded *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jianpu [file...]",
	Short: "Translate jianpu notation",
	Long: `Translates jianpu (numbered musical notation) into LilyPond, a Unicode
approximation, MIDI files or audio. Files given on the command line are read
as separate scores; with no files the input is read from stdin.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLy(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// options loads the config and turns it into conversion options.
func options() ([]jianpu.Option, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loaded = cfg
	return []jianpu.Option{jianpu.FromConfig(cfg), jianpu.WithLogger(logger)}, nil
}

// readInput joins the named files, or stdin, into one input with each file
// as its own score.
func readInput(args []string, stdin io.Reader) (string, error) {
	var chunks []string
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "reading stdin")
		}
		chunks = append(chunks, string(data))
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", path)
		}
		chunks = append(chunks, string(data))
	}
	for i, c := range chunks {
		c = strings.TrimPrefix(c, "\ufeff")
		if strings.HasPrefix(c, `\version`) {
			return "", errors.New("this reads jianpu, not LilyPond code")
		}
		chunks[i] = c
	}
	return strings.Join(chunks, " NextScore "), nil
}

// writeOutput writes to the -o file, or stdout when none was given.
func writeOutput(cmd *cobra.Command, data []byte) error {
	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return errors.Wrapf(os.WriteFile(outputPath, data, 0o644), "writing %s", outputPath)
}
