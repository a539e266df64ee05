package main

import (
	"github.com/spf13/cobra"

	jianpu "github.com/cbegin/jianpu-go"
)

func init() {
	rootCmd.AddCommand(lyCmd)
}

var lyCmd = &cobra.Command{
	Use:   "ly [file...]",
	Short: "Write a LilyPond document",
	RunE:  runLy,
}

func runLy(cmd *cobra.Command, args []string) error {
	opts, err := options()
	if err != nil {
		return err
	}
	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	out, err := jianpu.Convert(text, opts...)
	if err != nil {
		return err
	}
	return writeOutput(cmd, []byte(out))
}
