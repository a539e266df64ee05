package notation

import (
	"regexp"
	"sort"
	"strings"
)

var (
	noteWordRe  = regexp.MustCompile(`^[0-7x.,'cqsdh\\#b-]+$`)
	octaveRunRe = regexp.MustCompile(`'+|,+`)
	trailingRe  = regexp.MustCompile(`^(.*)([1-7])([^1-7]+)$`)
	shorthand   = strings.NewReplacer("8", "1'", "9", "2'")
)

// ParseNote breaks a note word into its fields. origWord is the word as the
// user wrote it and line the source line; both are only used in errors.
func ParseNote(word, origWord, line string) (NoteToken, error) {
	var tok NoteToken
	if word == "." {
		word = "-"
	}
	word = strings.ReplaceAll(shorthand.Replace(word), "’", "'")
	if strings.Contains(word, "///") {
		tok.Tremolo = true
		word = strings.Replace(word, "///", "", 1)
	}
	if !noteWordRe.MatchString(word) {
		return tok, TokenError(ErrMalformedToken, "Unrecognised command", origWord, line)
	}
	var figures, beams, accidentals []byte
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case c >= '0' && c <= '7', c == 'x', c == '-':
			figures = append(figures, c)
		case c == '.':
			tok.Dots++
		case strings.IndexByte(`cqsdh\`, c) >= 0:
			beams = append(beams, c)
		case c == '#' || c == 'b':
			accidentals = append(accidentals, c)
		}
	}
	tok.Figures = string(figures)
	if len(beams) > 0 {
		b := string(beams)
		switch {
		case strings.Trim(b, `\`) == "":
			tok.Beams = len(b)
		case len(b) == 1:
			tok.Beams = strings.IndexByte("cqsdh", b[0])
		default:
			return tok, TokenError(ErrMalformedToken, "Can't calculate number of beams from "+b+" in", origWord, line)
		}
		tok.BeamsSet = true
	}
	runs := octaveRunRe.FindAllString(word, -1)
	if len(runs) > 1 && len(figures) == 1 {
		return tok, TokenError(ErrMalformedToken, "Multiple octaves should not applied to a single note:", origWord, line)
	}
	if len(runs) > 0 {
		tok.Octave = OctaveOf(runs[0])
	}
	if len(accidentals) > 0 {
		if len(figures) <= 1 && len(accidentals) > 1 {
			return tok, TokenError(ErrMalformedToken, "Can't handle accidental "+string(accidentals)+" in", origWord, line)
		}
		tok.Accidental = accidentalOf(accidentals[0])
	}
	return tok, nil
}

// FixModifierOrder moves octave, duration and accidental marks that trail the
// last figure in front of it, so every modifier precedes the figure it
// applies to.
func FixModifierOrder(notes string) string {
	return fixOrder(shorthand.Replace(notes))
}

func fixOrder(s string) string {
	m := trailingRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return fixOrder(m[1]) + m[3] + m[2]
}

// scanModifiers walks a normalised mini-note string, collecting modifiers and
// calling emit at each figure. A run of octave marks counts once.
func scanModifiers(notes string, emit func(figure byte, octave Octave, acc Accidental, length byte)) {
	var (
		acc    Accidental
		octave Octave
		length byte
	)
	for i := 0; i < len(notes); i++ {
		c := notes[i]
		switch c {
		case '#', 'b':
			acc = accidentalOf(c)
		case '\'', ',':
			if i > 0 && notes[i-1] == c {
				continue
			}
			n := 1
			for n < 3 && i+n < len(notes) && notes[i+n] == c {
				n++
			}
			if c == ',' {
				octave = Octave(-n)
			} else {
				octave = Octave(n)
			}
		case 'q', 's', 'd', 'h':
			length = c
		default:
			if (c < '0' || c > '9') && c != 'x' && c != '-' {
				continue
			}
			emit(c, octave, acc, length)
			acc, octave, length = Natural, 0, 0
		}
	}
}

// ParseChord decomposes a chord word into its pitches, sorted from lowest to
// highest. Duration letters and dots are ignored. The returned octave is the
// octave of the lowest note when it is below the middle register.
func ParseChord(word string) ([]ChordNote, Octave) {
	word = strings.Map(func(r rune) rune {
		if strings.ContainsRune("qsdh.", r) {
			return -1
		}
		return r
	}, word)
	var notes []ChordNote
	scanModifiers(FixModifierOrder(word), func(figure byte, octave Octave, acc Accidental, _ byte) {
		if figure < '0' || figure > '7' {
			return
		}
		notes = append(notes, ChordNote{Figure: figure, Octave: octave, Accidental: acc})
	})
	sort.SliceStable(notes, func(i, j int) bool {
		return chordKey(notes[i]) < chordKey(notes[j])
	})
	var bottom Octave
	if len(notes) > 0 && notes[0].Octave < 0 {
		bottom = notes[0].Octave
	}
	return notes, bottom
}

// chordKey orders chord notes by pitch, in half steps of the figure scale.
func chordKey(n ChordNote) int {
	if n.Figure == '0' {
		return 0
	}
	weights := [...]int{0, 16, 30, 44}
	key := int(n.Figure-'0') * 2
	if n.Octave < 0 {
		key -= weights[-n.Octave]
	} else {
		key += weights[n.Octave]
	}
	switch n.Accidental {
	case Sharp:
		key++
	case Flat:
		key--
	}
	return key
}

// NormalizeChord rewrites a chord word with its notes in ascending pitch
// order, each note spelled as accidental, octave marks, figure.
func NormalizeChord(word string) string {
	notes, _ := ParseChord(word)
	var b strings.Builder
	for _, n := range notes {
		b.WriteString(n.Accidental.String())
		b.WriteString(n.Octave.Marks())
		b.WriteByte(n.Figure)
	}
	return b.String()
}

// ParseGrace decomposes the body of a grace group such as "#4'1s5".
func ParseGrace(body string) []GraceNote {
	var notes []GraceNote
	scanModifiers(FixModifierOrder(body), func(figure byte, octave Octave, acc Accidental, length byte) {
		if _, ok := Placeholders[figure]; !ok {
			return
		}
		notes = append(notes, GraceNote{Figure: figure, Octave: octave, Accidental: acc, Length: length})
	})
	return notes
}
