package engine

import (
	"github.com/cbegin/jianpu-go/internal/notation"
)

// grace builds the span for a g[...] or [...]g word. In the jianpu pass each
// grace note runs through a state scoped to the group.
func (c *compiler) grace(body string, after bool, word, line string) (*GraceSpan, error) {
	span := &GraceSpan{
		After:    after,
		Harmonic: c.harmonic,
		Body:     body,
		Notes:    notation.ParseGrace(body),
	}
	for _, g := range span.Notes {
		span.Units += g.Units()
	}
	if c.opts.Pass != PassJianpu {
		return span, nil
	}
	if c.opts.LilypondMinor < 22 {
		return nil, notation.ScoreError(notation.ErrUnsupportedCombination, c.opts.Score,
			"grace notes requires Lilypond 2.22+, we found 2.%d", c.opts.LilypondMinor)
	}
	role := GraceBefore
	if after {
		role = GraceAfter
	}
	gs := newGraceState(c.st, role, span.Units)
	for _, g := range span.Notes {
		tok := notation.NoteToken{
			Figures:    string(g.Figure),
			Beams:      g.Beams(),
			BeamsSet:   true,
			Octave:     g.Octave,
			Accidental: g.Accidental,
		}
		n, _, err := gs.step(tok, word, line)
		if err != nil {
			return nil, err
		}
		n.Harmonic = c.harmonic
		span.Marked = append(span.Marked, n)
	}
	return span, nil
}
