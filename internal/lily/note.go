package lily

import (
	"fmt"
	"strings"

	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/notation"
)

const (
	jianpuTieOpen  = `\=JianpuTie(`
	jianpuTieClose = `\=JianpuTie)`
)

func (r *renderer) note(e *engine.Event) {
	n := e.Note
	s := r.noteItem(n)
	if n.Harmonic && r.jianpu() {
		s += ` \flageolet `
	}
	if g := n.AfterGrace; g != nil {
		inner := r.grace(g)
		for _, w := range g.Trailing {
			inner += " " + w
		}
		s = ` \afterGrace { ` + s + ` } { ` + inner + ` }`
	}
	if n.TrailingBeamClose {
		s += "]"
	}
	r.add(s)
	for _, a := range n.After {
		r.add(attachment(a))
	}
}

func attachment(a engine.Attachment) string {
	switch a {
	case engine.AttachBeamClose:
		return "]"
	case engine.AttachTie:
		return "~"
	case engine.AttachTieOpen:
		return jianpuTieOpen
	case engine.AttachTieClose:
		return jianpuTieClose
	}
	return ""
}

func noteMod(text string, angka bool) string {
	if angka {
		return `\note-mod-angka "` + text + `" `
	}
	return `\note-mod "` + text + `" `
}

// noteItem writes one note, rest, dash or chord. In the jianpu flavour the
// pitch is only a placeholder carrying the printed figure.
func (r *renderer) noteItem(n *engine.Note) string {
	var b strings.Builder
	if n.Bar > 0 {
		b.WriteString("| ")
		if n.NoPageBreak {
			b.WriteString(`\noPageBreak `)
		}
		fmt.Fprintf(&b, "%%{ bar %d: %%} ", n.Bar)
	}
	if n.SetStems {
		fmt.Fprintf(&b, "\\set stemLeftBeamCount = #%d\n\\set stemRightBeamCount = #%d\n", n.StemLeft, n.StemRight)
	}

	if r.jianpu() {
		prefix := b.String()
		b.Reset()
		if prefix != "" {
			b.WriteString(strings.TrimRight(prefix, " \t\n") + "\n")
		}
		if n.Octave == 2 && !n.Continuation {
			b.WriteString(`  \once \override Score.TextScript.outside-staff-priority = 45 `)
		}
		switch {
		case n.IsChord() && !n.IsDash():
			b.WriteString(chordMarkup(n.Chord, n.NotAngka))
		case n.IsDash():
			dash := "\u2013"
			if n.NotAngka {
				dash = "."
			}
			b.WriteString(" " + noteMod(dash, n.NotAngka))
		default:
			fig := n.Figures
			if n.NotAngka {
				switch n.Accidental {
				case notation.Sharp:
					fig += "\u0338"
				case notation.Flat:
					fig += "\u20e5"
				}
			}
			b.WriteString(" " + noteMod(fig, n.NotAngka))
		}
		if n.RestHackUndone {
			return b.String() + fmt.Sprintf("r%d%s[", n.Length, strings.Repeat(".", n.Dots))
		}
		if n.RestHack {
			voice, _ := voiceStart(r.opts.Namer, true, r.part.MaxBeams, n.NotAngka)
			head := b.String()
			b.Reset()
			b.WriteString(voice + head)
		}
	}

	beforePitch := b.String()
	var chordPitches []string
	switch {
	case n.IsChord() && !r.jianpu():
		chordPitches = make([]string, len(n.Chord))
		for i, c := range n.Chord {
			chordPitches[i] = pitch(notation.Placeholders[c.Figure], c.Accidental, c.Octave)
		}
		b.WriteString("< " + strings.Join(chordPitches, " ") + " >")
	case n.IsChord() && !n.IsDash():
	default:
		b.WriteByte(n.Placeholder)
		if !r.jianpu() || !n.NotAngka {
			b.WriteString(n.Accidental.LilySuffix())
		}
		if n.Placeholder != 'r' {
			b.WriteString(n.Octave.Lily())
		}
		if n.Cautionary {
			b.WriteByte('!')
		}
	}
	dots := strings.Repeat(".", n.Dots)
	fmt.Fprintf(&b, "%d%s", n.Length, dots)

	if n.Tremolo {
		switch {
		case r.jianpu():
			b.WriteString(tremoloMarkup(n.Dots > 0, r.opts.LilypondMinor))
		case len(chordPitches) == 2:
			reps := int(n.PreTuplet.Float() / 4)
			b.Reset()
			fmt.Fprintf(&b, `%s\repeat tremolo %d { %s32 %s32 }`, beforePitch, reps, chordPitches[0], chordPitches[1])
		default:
			b.WriteString(":32")
		}
	}

	if r.jianpu() && !n.IsDash() {
		b.WriteString(octaveDots(n, r.opts.GraceHeight))
	}
	if n.BeamOpen {
		b.WriteByte('[')
	}
	s := b.String()
	switch n.GraceEnd {
	case engine.GraceEndPlain:
		s = ` \jianpuGraceCurveEnd ` + s
	case engine.GraceEndSkipBefore:
		s = fmt.Sprintf(`s%d [ \jianpuGraceCurveEnd %s`, n.Length, strings.ReplaceAll(s, "[", ""))
	case engine.GraceEndSkipAfter:
		s += fmt.Sprintf(` \jianpuGraceCurveEnd s%d`, n.Length)
	}
	if n.BeamClose {
		s += "]"
	}
	if n.Percussion && r.pass == engine.PassWestern {
		s = `\once \override NoteHead.style = #'cross \once \override NoteHead.no-ledgers = ##t ` + s
	}
	switch {
	case n.RestHack:
		s += " } "
	case n.TieEnd:
		s += " " + jianpuTieClose
	}
	return s
}

// pitch spells a placeholder pitch with the unmarked octave near middle C.
func pitch(letter byte, acc notation.Accidental, o notation.Octave) string {
	return string(letter) + acc.LilySuffix() + o.Lily()
}

func tremoloMarkup(dotted bool, minor int) string {
	const head = `_\tweak outside-staff-priority ##f ^\tweak avoid-slur #'inside _\markup {\with-dimensions #'(0 . 0) `
	switch {
	case minor >= 22 && dotted:
		return head + `#'(2.8 . 2.1) \postscript "1.6 -0.2 moveto 2.6 0.8 lineto 1.8 -0.4 moveto 2.8 0.6 lineto 2.0 -0.6 moveto 3.0 0.4 lineto stroke" } %{ requires Lilypond 2.22+ %} `
	case minor >= 22:
		return head + `#'(2.5 . 2.1) \postscript "1.1 0.4 moveto 2.1 1.4 lineto 1.3 0.2 moveto 2.3 1.2 lineto 1.5 0.0 moveto 2.5 1.0 lineto stroke" } %{ requires Lilypond 2.22+ %} `
	case dotted:
		return head + `#'(2.8 . 2.6) \postscript "1.4 1.6 moveto 2.4 2.6 lineto 1.6 1.4 moveto 2.6 2.4 lineto 1.8 1.2 moveto 2.8 2.2 lineto stroke" } %{ requires Lilypond 2.20 %} `
	}
	return head + `#'(2.5 . 2.6) \postscript "1.1 1.6 moveto 2.1 2.6 lineto 1.3 1.4 moveto 2.3 2.4 lineto 1.5 1.2 moveto 2.5 2.2 lineto stroke" } %{ requires Lilypond 2.20 %} `
}

// octaveDots places the dots above or below a jianpu figure, lowering the
// lower dots past any beams.
func octaveDots(n *engine.Note, graceHeight float64) string {
	var b strings.Builder
	o := n.Octave
	switch {
	case n.Beams == 0:
		switch o {
		case -1:
			b.WriteString(`-\tweak #'Y-offset #-1.2 `)
		case -2:
			b.WriteString(`-\tweak #'Y-offset #-2 `)
		case -3:
			b.WriteString(`-\tweak #'Y-offset #-2.7 `)
		}
	case n.Grace != engine.GraceNone && o < 0:
		drop := map[notation.Octave]float64{-1: 1, -2: 1.6, -3: 2}[o]
		fmt.Fprintf(&b, `-\tweak #'Y-offset #%.1f `, graceHeight-drop-float64(n.Beams)*0.3)
	}
	x := 0.6
	if n.Grace != engine.GraceNone {
		x = 0.4
	}
	if n.NotAngka && o > 0 {
		glyph := []string{".", ":", "\u22ee"}[o-1]
		fmt.Fprintf(&b, `-\tweak #'extra-offset #'(0.4 . %.1f) -\markup{\bold %s}`, 1.9+0.8*float64(o), glyph)
		return b.String()
	}
	switch o {
	case 1:
		b.WriteString("^.")
	case 2:
		fmt.Fprintf(&b, `-\tweak #'X-offset #%.1f ^\two-dots `, x)
	case 3:
		fmt.Fprintf(&b, `-\tweak #'X-offset #%.1f ^\three-dots `, x)
	case -1:
		fmt.Fprintf(&b, `-\tweak #'X-offset #%.1f _. `, x)
	case -2:
		fmt.Fprintf(&b, `-\tweak #'X-offset #%.1f _\two-dots `, x)
	case -3:
		fmt.Fprintf(&b, `-\tweak #'X-offset #%.1f _\three-dots `, x)
	}
	return b.String()
}

// chordMarkup stacks the figures of a jianpu chord. Octave dots of inner
// notes sit between the figures, so each figure is raised past the dots
// below it. The lowest note's lower dots are written by the caller.
func chordMarkup(notes []notation.ChordNote, angka bool) string {
	room := func(o notation.Octave) float64 {
		switch o {
		case 1, -1:
			return 1
		case 2, -2:
			return 1.6
		}
		return 2.2
	}
	var b strings.Builder
	b.WriteString("< ")
	baseline := 0.0
	for i, c := range notes {
		o := c.Octave
		if i == 0 && o < 0 {
			o = 0
		}
		if o < 0 {
			baseline += room(o)
		}
		if baseline > 0 {
			fmt.Fprintf(&b, `\tweak #'Y-offset #%.1f `, baseline)
		}
		b.WriteString(noteMod(string(c.Figure), angka))
		b.WriteString(pitch(notation.Placeholders[c.Figure], c.Accidental, o) + " ")
		switch {
		case o < 0:
			fmt.Fprintf(&b, `\tweak #'Y-offset #%.1f `, baseline-0.1-1.2*room(o))
		case o > 0:
			fmt.Fprintf(&b, `\tweak #'Y-offset #%.1f `, baseline+1.6+0.02*room(o))
		}
		b.WriteString(chordDots(o) + " ")
		baseline += 2
		if o > 0 {
			baseline += room(o)
		}
	}
	b.WriteString(">")
	return b.String()
}

func chordDots(o notation.Octave) string {
	switch o {
	case 1:
		return "^."
	case 2:
		return `-\tweak #'X-offset #0.6 ^\two-dots `
	case 3:
		return `-\tweak #'X-offset #0.6 ^\three-dots `
	case -1:
		return `-\tweak #'X-offset #0.6 _. `
	case -2:
		return `-\tweak #'X-offset #0.6 _\two-dots `
	case -3:
		return `-\tweak #'X-offset #0.6 _\three-dots `
	}
	return ""
}

// grace writes the inside of a grace group.
func (r *renderer) grace(g *engine.GraceSpan) string {
	if !r.jianpu() {
		return westernGrace(g.Notes)
	}
	var b strings.Builder
	if g.After {
		b.WriteString(`\once \override Score.JianpuGraceCurve.direction = #LEFT `)
	}
	b.WriteString(`\jianpuGraceCurveStart `)
	for _, n := range g.Marked {
		b.WriteString(r.noteItem(n))
		if g.Harmonic {
			b.WriteString(` \flageolet `)
		}
	}
	return b.String()
}

func westernGrace(notes []notation.GraceNote) string {
	out := make([]string, 0, len(notes))
	for _, g := range notes {
		d := 16
		switch g.Length {
		case 'q':
			d = 8
		case 'd':
			d = 32
		case 'h':
			d = 64
		}
		out = append(out, fmt.Sprintf("%s%d", pitch(notation.Placeholders[g.Figure], g.Accidental, g.Octave), d))
	}
	return strings.Join(out, " ")
}
