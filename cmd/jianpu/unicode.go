package main

import (
	"github.com/spf13/cobra"

	jianpu "github.com/cbegin/jianpu-go"
)

func init() {
	rootCmd.AddCommand(unicodeCmd)
}

var unicodeCmd = &cobra.Command{
	Use:   "unicode [file...]",
	Short: "Approximate the notation in plain Unicode text",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := options()
		if err != nil {
			return err
		}
		text, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		out, err := jianpu.Unicode(text, opts...)
		if err != nil {
			return err
		}
		return writeOutput(cmd, []byte(out+"\n"))
	},
}
