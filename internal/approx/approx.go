// Package approx writes jianpu as plain Unicode text, marking beams,
// octaves and accidentals with combining characters.
package approx

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/notation"
)

const (
	barline   = "│"
	finalBar  = "║"
	oneBeam   = "\u0332"
	twoBeams  = "\u0333"
	dotBelow  = "\u0323"
	dotAbove  = "\u0307"
	sharpSign = "♯"
	flatSign  = "♭"
)

// Render approximates a part compiled for the jianpu pass. Notes in one
// beam group run together; each group and each unbeamed note is followed
// by a space.
func Render(part *engine.Part) string {
	var items []string
	for _, e := range part.Events {
		switch e.Type {
		case engine.EventKey:
			items = append(items, keyText(e.Key.Word)+" ")
		case engine.EventNote:
			s := noteText(e.Note)
			if e.Note.BarEnd {
				s = strings.TrimRight(s, " ") + barline
			}
			items = append(items, s)
		}
	}
	out := strings.Join(items, "")
	if strings.HasSuffix(out, barline) {
		out = strings.TrimSuffix(out, barline) + finalBar
	}
	return norm.NFC.String(out)
}

func keyText(word string) string {
	word = strings.ReplaceAll(word, "#", sharpSign)
	if strings.HasSuffix(word, "b") && !strings.HasSuffix(word, "=b") {
		word = strings.TrimSuffix(word, "b") + flatSign
	}
	return strings.ToUpper(word)
}

func noteText(n *engine.Note) string {
	beam := ""
	switch {
	case n.Beams >= 2:
		beam = twoBeams
	case n.Beams == 1:
		beam = oneBeam
	}
	var b strings.Builder
	if n.Continuation {
		b.WriteString("-" + beam)
	} else {
		switch n.Accidental {
		case notation.Sharp:
			b.WriteString(sharpSign)
		case notation.Flat:
			b.WriteString(flatSign)
		}
		b.WriteString(n.Figures[len(n.Figures)-1:] + beam)
		switch {
		case n.Octave < 0:
			b.WriteString(dotBelow)
		case n.Octave > 0:
			b.WriteString(dotAbove)
		}
	}
	for i := 0; i < n.Dots; i++ {
		b.WriteString("." + beam)
	}
	if !n.InBeam {
		b.WriteByte(' ')
	}
	return b.String()
}
