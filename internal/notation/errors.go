package notation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

var (
	ErrMalformedToken         = errors.New("malformed token")
	ErrBarOverflow            = errors.New("bar overflow")
	ErrIncompleteFinalBar     = errors.New("incomplete final bar")
	ErrUnterminatedRepeat     = errors.New("unterminated repeat")
	ErrUnterminatedTuplet     = errors.New("unterminated tuplet")
	ErrUnterminatedEscape     = errors.New("unterminated escape")
	ErrUnsupportedCombination = errors.New("unsupported combination")
	ErrEmptyScore             = errors.New("empty score")
	ErrHeaderConflict         = errors.New("header conflict")
)

// Error is a fatal problem in one score. Kind is one of the Err* values
// above, so callers can test it with errors.Is.
type Error struct {
	Kind  error
	Msg   string
	Word  string
	Line  string
	Score int
}

// TokenError reports a problem with one word of the input.
func TokenError(kind error, msg, word, line string) *Error {
	return &Error{Kind: kind, Msg: msg, Word: word, Line: line}
}

// ScoreError reports a problem with a score as a whole.
func ScoreError(kind error, score int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Score: score}
}

func (e *Error) Error() string {
	if e.Word == "" {
		return e.Msg
	}
	word := clip(e.Word, 60, 50)
	var b strings.Builder
	b.WriteString(e.Msg)
	b.WriteString(" ")
	b.WriteString(word)
	if e.Score > 0 {
		fmt.Fprintf(&b, " in score %d", e.Score)
	}
	if hl := e.Highlight(); hl != "" {
		b.WriteString("\n")
		b.WriteString(hl)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

// Span splits the offending line around the first whole-word occurrence of
// the offending word.
func (e *Error) Span() (before, word, after string, ok bool) {
	line := clip(e.Line, 600, 500)
	if e.Word == "" || line == "" {
		return "", "", "", false
	}
	from := 0
	for {
		i := strings.Index(line[from:], e.Word)
		if i < 0 {
			return "", "", "", false
		}
		i += from
		end := i + len(e.Word)
		if (i == 0 || isSpace(line[i-1])) && (end == len(line) || isSpace(line[end])) {
			return line[:i], e.Word, line[end:], true
		}
		from = i + 1
	}
}

// Highlight renders the offending line with the word underlined by carets.
// Display widths are measured per grapheme so full-width text lines up.
func (e *Error) Highlight() string {
	before, word, after, ok := e.Span()
	if !ok {
		return ""
	}
	pad := strings.Repeat(" ", uniseg.StringWidth(before))
	carets := strings.Repeat("^", uniseg.StringWidth(word))
	return before + word + after + "\n" + pad + carets
}

// clip shortens s to keep grapheme clusters followed by "..." when it has
// more than limit of them.
func clip(s string, limit, keep int) string {
	if uniseg.GraphemeClusterCount(s) <= limit {
		return s
	}
	g := uniseg.NewGraphemes(s)
	end := 0
	for i := 0; i < keep && g.Next(); i++ {
		_, end = g.Positions()
	}
	return s[:end] + "..."
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
