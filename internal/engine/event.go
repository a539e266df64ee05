package engine

import (
	"github.com/cbegin/jianpu-go/internal/notation"
)

// Pass selects which rendition a part is compiled for. Each pass runs over
// the same text with fresh state.
type Pass int

const (
	PassJianpu Pass = iota + 1
	PassWestern
	PassMIDI
)

func (p Pass) String() string {
	switch p {
	case PassJianpu:
		return "jianpu"
	case PassWestern:
		return "western"
	case PassMIDI:
		return "midi"
	}
	return "unknown"
}

type EventType int

const (
	EventNote EventType = iota + 1
	EventRaw
	EventTempo
	EventKey
	EventTime
	EventPartial
	EventMark
	EventFinger
	EventRehearsal
	EventMultiRest
	EventRepeatOpen
	EventAlternativeOpen
	EventAlternativeNext
	EventBlockClose
	EventTupletOpen
	EventTupletClose
	EventGrace
	EventFine
	EventDC
)

// Event is one item of a compiled part. Renderers walk the event list in
// order; which fields are set depends on Type.
type Event struct {
	Type EventType
	Note *Note
	// Text is raw markup for EventRaw, the tempo word for EventTempo, mark
	// text, a finger glyph, a rehearsal letter, the anacrusis for
	// EventPartial or the whole-bar rest length for EventMultiRest.
	Text string
	// Num and Den are a time signature, a tuplet ratio, a repeat count or
	// a multi-bar rest count.
	Num, Den int
	Percent  bool
	Braces   int
	Key      Key
	Grace    *GraceSpan
	// NoBarline drops the closing barline of a Fine that a repeat follows.
	NoBarline bool
}

// Key is a key directive such as 1=Eb (Degree 1) or 6=F# (Degree 6).
type Key struct {
	Degree int
	Tonic  string
	Word   string
}

// Attachment is markup a later token attaches directly after an earlier
// note.
type Attachment int

const (
	AttachBeamClose Attachment = iota + 1
	AttachTie
	AttachTieOpen
	AttachTieClose
)

type GraceRole int

const (
	GraceNone GraceRole = iota
	GraceBefore
	GraceAfter
)

// GraceEnd marks the last note of a grace group, where the curve ends.
type GraceEnd int

const (
	GraceEndNone GraceEnd = iota
	GraceEndPlain
	// A lone beamed grace note needs a skip to beam to, placed before a
	// leading grace or after a trailing one.
	GraceEndSkipBefore
	GraceEndSkipAfter
)

// Note is a resolved note, rest, dash or chord.
type Note struct {
	Figures      string
	Chord        []notation.ChordNote
	Placeholder  byte
	Octave       notation.Octave
	Accidental   notation.Accidental
	Cautionary   bool
	Continuation bool
	Tremolo      bool
	Percussion   bool
	Length       int
	Dots         int
	Duration     Units
	PreTuplet    Units
	Beams        int
	SetStems     bool
	StemLeft     int
	StemRight    int
	BeamOpen     bool
	BeamClose    bool
	// TrailingBeamClose closes a beam left open at the end of the part.
	TrailingBeamClose bool
	// Bar is the number of the bar this note starts, from bar 2 on.
	Bar            int
	NoPageBreak    bool
	BarEnd         bool
	InBeam         bool
	RestHack       bool
	RestHackUndone bool
	TieEnd         bool
	Harmonic       bool
	NotAngka       bool
	Grace          GraceRole
	GraceEnd       GraceEnd
	After          []Attachment
	AfterGrace     *GraceSpan
}

func (n *Note) IsChord() bool { return len(n.Chord) > 0 }

func (n *Note) IsDash() bool { return n.Figures == "-" }

func (n *Note) IsRest() bool { return n.Placeholder == 'r' }

func (n *Note) attach(a Attachment) {
	n.After = append([]Attachment{a}, n.After...)
}

// GraceSpan is a group of grace notes before or after a host note.
type GraceSpan struct {
	After    bool
	Harmonic bool
	Body     string
	Notes    []notation.GraceNote
	// Marked holds the jianpu rendition of each grace note.
	Marked []*Note
	Units  int
	// Trailing holds pass-through commands that follow an after-grace and
	// belong inside it.
	Trailing []string
}

// Layout collects the layout options a part switched on.
type Layout struct {
	OnePage         bool
	NoBarNums       bool
	NoIndent        bool
	RaggedLast      bool
	SeparateTimesig bool
	WithStaff       bool
	NotAngka        bool
}

// Part is one compiled part of a score.
type Part struct {
	Pass             Pass
	Events           []Event
	MaxBeams         float64
	Lyrics           []string
	Headers          map[string]string
	Layout           Layout
	NeedFinalBarline bool
	BarLength        Units
}
