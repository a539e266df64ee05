package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/rivo/uniseg"

	"github.com/cbegin/jianpu-go/internal/notation"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f55")).Bold(true)
	wordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff")).Background(lipgloss.Color("#a00"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
)

// reportError prints err. On a terminal the offending word of a notation
// error is highlighted in its line; elsewhere the plain caret underline is
// used.
func reportError(w io.Writer, err error) {
	var ne *notation.Error
	if !errors.As(err, &ne) || !isTerminal(w) {
		fmt.Fprintln(w, "jianpu: "+err.Error())
		return
	}
	fmt.Fprintln(w, errorStyle.Render("jianpu: "+headline(err, ne)))
	before, word, after, ok := ne.Span()
	if !ok {
		return
	}
	fmt.Fprintln(w, dimStyle.Render(before)+wordStyle.Render(word)+dimStyle.Render(after))
	fmt.Fprintln(w, strings.Repeat(" ", uniseg.StringWidth(before))+errorStyle.Render(strings.Repeat("^", uniseg.StringWidth(word))))
}

// headline is the error message without the caret lines.
func headline(err error, ne *notation.Error) string {
	msg := err.Error()
	if hl := ne.Highlight(); hl != "" {
		msg = strings.TrimSuffix(msg, "\n"+hl)
	}
	return msg
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
