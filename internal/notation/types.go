package notation

import "strings"

type Accidental int

const (
	Natural Accidental = iota
	Sharp
	Flat
)

func (a Accidental) String() string {
	switch a {
	case Sharp:
		return "#"
	case Flat:
		return "b"
	default:
		return ""
	}
}

// LilySuffix is the note-name suffix LilyPond uses for the accidental.
func (a Accidental) LilySuffix() string {
	switch a {
	case Sharp:
		return "is"
	case Flat:
		return "es"
	default:
		return ""
	}
}

func accidentalOf(c byte) Accidental {
	switch c {
	case '#':
		return Sharp
	case 'b':
		return Flat
	}
	return Natural
}

// Octave is a signed count of octave shifts relative to the middle register.
type Octave int

const (
	MinOctave Octave = -3
	MaxOctave Octave = 3
)

func (o Octave) Valid() bool { return o >= MinOctave && o <= MaxOctave }

// Marks returns the jianpu spelling of the octave: a run of ' or , characters.
func (o Octave) Marks() string {
	if o >= 0 {
		return strings.Repeat("'", int(o))
	}
	return strings.Repeat(",", int(-o))
}

// Lily returns the LilyPond register marks for a pitch in this octave, with
// the unmarked jianpu octave starting at middle C.
func (o Octave) Lily() string {
	if o >= -1 {
		return strings.Repeat("'", int(o)+1)
	}
	return strings.Repeat(",", int(-o)-1)
}

// OctaveOf counts a run of octave marks. Mixed runs are counted by their
// first character.
func OctaveOf(marks string) Octave {
	if marks == "" {
		return 0
	}
	if marks[0] == ',' {
		return Octave(-len(marks))
	}
	return Octave(len(marks))
}

// NoteToken is one note, rest, dash or chord word broken into its fields.
type NoteToken struct {
	Figures    string
	Beams      int
	BeamsSet   bool
	Dots       int
	Octave     Octave
	Accidental Accidental
	Tremolo    bool
}

func (t NoteToken) IsChord() bool { return len(t.Figures) > 1 }

// ChordNote is one pitch of a chord after decomposition.
type ChordNote struct {
	Figure     byte
	Octave     Octave
	Accidental Accidental
}

// GraceNote is one mini-note of a grace group. Length is the explicit
// duration letter (q, s, d or h) or zero when the default applies.
type GraceNote struct {
	Figure     byte
	Octave     Octave
	Accidental Accidental
	Length     byte
}

// Beams is the beam count for the jianpu rendition of a grace note:
// semiquaver unless a duration letter says otherwise.
func (g GraceNote) Beams() int {
	if i := strings.IndexByte("*qsdh", g.Length); i > 0 {
		return i
	}
	return 2
}

// Units is the grace note's length in 64th notes.
func (g GraceNote) Units() int {
	switch g.Length {
	case 'q':
		return 8
	case 'd':
		return 2
	case 'h':
		return 1
	}
	return 4
}

// Placeholders maps a jianpu figure to the LilyPond note letter used to carry
// it. Real pitches come from a later transposition.
var Placeholders = map[byte]byte{
	'0': 'r',
	'1': 'c',
	'2': 'd',
	'3': 'e',
	'4': 'f',
	'5': 'g',
	'6': 'a',
	'7': 'b',
	'x': 'c',
	'-': 'r',
}
