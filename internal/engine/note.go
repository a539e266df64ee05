package engine

import (
	"fmt"
	"log"

	"github.com/cbegin/jianpu-go/internal/notation"
)

type beamGroup int

const (
	beamClosed beamGroup = iota
	beamOpen
	// beamOpenRestHack is a group interrupted by a rest drawn in a
	// temporary voice; the next note may still continue it.
	beamOpenRestHack
)

// BarState is the per-part bar and beam bookkeeping. One instance exists for
// each (score, part, pass); it must not be shared.
type BarState struct {
	pass   Pass
	policy Policy
	log    *log.Logger

	barLength   Units
	beatLength  Units
	barPos      Units
	startBarPos Units
	barNo       int

	beam       beamGroup
	lastNBeams int
	baseOctave notation.Octave
	// accidentals is the accidental last shown for each scale degree in
	// each octave of the current bar.
	accidentals map[notation.Octave][7]notation.Accidental

	lastFigures    string
	lastOctave     notation.Octave
	lastAccidental notation.Accidental
	lastTremolo    bool
	lastWasRest    bool
	currentChord   string

	tupletNum, tupletDen int64

	layout     Layout
	keepLength bool
	hasLyrics  bool
	restHack   bool
	// restHackPending is set while the previous note is a rest drawn as a
	// hidden note, which the next note may turn back into a plain rest.
	restHackPending bool
	grace           GraceRole
}

func newBarState(opts Options) *BarState {
	return &BarState{
		pass:        opts.Pass,
		policy:      opts.Policy,
		log:         opts.logger(),
		barLength:   U(64),
		beatLength:  U(16),
		barNo:       1,
		accidentals: map[notation.Octave][7]notation.Accidental{},
		tupletNum:   1,
		tupletDen:   1,
		layout:      Layout{NotAngka: opts.NotAngka},
		hasLyrics:   opts.HasLyrics,
		restHack:    opts.RestHack,
	}
}

// newGraceState returns a state scoped to one grace group. The whole group
// is one bar and one beat, so its beam closes on its last note.
func newGraceState(parent *BarState, role GraceRole, units int) *BarState {
	s := &BarState{
		pass:        parent.pass,
		policy:      parent.policy,
		log:         parent.log,
		barLength:   U(int64(units)),
		beatLength:  U(int64(units)),
		barNo:       1,
		accidentals: map[notation.Octave][7]notation.Accidental{},
		tupletNum:   1,
		tupletDen:   1,
		layout:      Layout{NotAngka: parent.layout.NotAngka},
		hasLyrics:   parent.hasLyrics,
		restHack:    parent.restHack,
		grace:       role,
	}
	return s
}

func (s *BarState) BarLength() Units  { return s.barLength }
func (s *BarState) BeatLength() Units { return s.beatLength }
func (s *BarState) BarPos() Units     { return s.barPos }
func (s *BarState) BarNo() int        { return s.barNo }

// maxTimeNum bounds a time signature's numerator so bar arithmetic stays
// in range.
const maxTimeNum = 1024

// setTime reports false, leaving the state alone, for a time signature whose
// bar would be shorter than a 64th or absurdly long.
func (s *BarState) setTime(num, den int) bool {
	if num < 1 || num > maxTimeNum || den < 1 || 64*num/den < 1 {
		return false
	}
	s.barLength = U(int64(64 * num / den))
	if den > 4 && num%3 == 0 {
		s.beatLength = U(24)
	} else {
		s.beatLength = U(16)
	}
	return true
}

func (s *BarState) setAnacrusis(den int, dotted bool, score int) error {
	short := frac(64, int64(den))
	pos := s.barLength.Sub(short)
	if dotted {
		pos = pos.Sub(short.Scale(1, 2))
	}
	if pos.Cmp(U(0)) < 0 {
		return notation.ScoreError(notation.ErrMalformedToken, score, "Anacrusis is longer than bar in score %d", score)
	}
	s.barPos = pos
	s.startBarPos = pos
	return nil
}

// wholeBarRest is the LilyPond duration of a full-bar rest in the current
// time signature.
func (s *BarState) wholeBarRest() string {
	switch s.barLength.Int() {
	case 96:
		return "1."
	case 48:
		return "2."
	case 32:
		return "2"
	case 24:
		return "4."
	case 16:
		return "4"
	case 12:
		return "8."
	case 8:
		return "8"
	}
	return "1"
}

func (s *BarState) endScore(score int, sloppy bool) error {
	if s.barPos.Equal(s.startBarPos) {
		return nil
	}
	if sloppy {
		s.log.Printf("Wrong bar length at end of score %d ignored (sloppy bars set)", score)
		return nil
	}
	beat := s.beatLength.Float()
	if !s.startBarPos.IsZero() && s.barPos.IsZero() {
		return notation.ScoreError(notation.ErrIncompleteFinalBar, score,
			"Score %d should end with a %g-beat bar to make up for the %g-beat anacrusis bar.  Set j2ly_sloppy_bars if you really want to break this rule.",
			score, s.startBarPos.Float()/beat, s.barLength.Sub(s.startBarPos).Float()/beat)
	}
	return notation.ScoreError(notation.ErrIncompleteFinalBar, score,
		"Incomplete bar at end of score %d (%g beats)", score, s.barPos.Float()/beat)
}

// deferred lists changes a note makes to notes already emitted.
type deferred struct {
	tie          bool
	beamClose    bool
	tieOpen      bool
	undoRestHack bool
}

// step advances the state by one note, rest, dash or chord.
func (s *BarState) step(tok notation.NoteToken, word, line string) (*Note, deferred, error) {
	var d deferred
	figures := tok.Figures
	if figures == "" {
		return nil, d, notation.TokenError(notation.ErrMalformedToken, "Unrecognised command", word, line)
	}
	isChord := tok.IsChord()
	if isChord {
		switch {
		case tok.Accidental != notation.Natural && s.layout.NotAngka:
			return nil, d, notation.TokenError(notation.ErrMalformedToken, "Accidentals in chords not yet implemented in Indonesian not-angka mode:", word, line)
		case containsByte(figures, '0'):
			return nil, d, notation.TokenError(notation.ErrMalformedToken, "Can't have rest in chord:", word, line)
		case containsByte(figures, 'x'):
			return nil, d, notation.TokenError(notation.ErrMalformedToken, "Can't have percussion beat in chord:", word, line)
		}
	}

	n := &Note{
		Figures:    figures,
		Dots:       tok.Dots,
		Tremolo:    tok.Tremolo,
		Accidental: tok.Accidental,
		NotAngka:   s.layout.NotAngka,
		Grace:      s.grace,
	}
	octave := tok.Octave
	if isChord {
		n.Chord, octave = notation.ParseChord(word)
		if len(n.Chord) == 0 {
			return nil, d, notation.TokenError(notation.ErrMalformedToken, "Can't handle chord with no notes:", word, line)
		}
	}

	continuation := s.lastFigures != "" && figures == "-" && !s.lastWasRest
	s.lastWasRest = figures == "0" || (figures == "-" && s.lastWasRest)
	if continuation {
		n.Continuation = true
		crossing := s.barPos.IsZero() && s.pass == PassJianpu && s.lastFigures != "x"
		switch {
		case crossing && s.policy.BarlineTies:
			figures = s.lastFigures
			n.Figures = figures
			n.TieEnd = true
			n.Cautionary = s.lastAccidental != notation.Natural
			n.Tremolo = s.lastTremolo
			d.tieOpen = true
		case crossing:
			s.log.Printf("barline-crossing dash at %q left as a dash: barline ties are disabled", word)
			n.Tremolo = s.lastTremolo
		case s.barPos.IsZero():
			n.Tremolo = s.lastTremolo
		}
		if s.currentChord != "" {
			isChord = true
			n.Chord, octave = notation.ParseChord(s.currentChord)
		} else {
			octave = s.lastOctave
			n.Accidental = s.lastAccidental
		}
	} else {
		if !isChord {
			if figures == "0" {
				octave = 0
			} else {
				octave += s.baseOctave
			}
		}
		if !octave.Valid() {
			return nil, d, notation.TokenError(notation.ErrMalformedToken, "Can't handle octave "+octave.Marks()+" in", word, line)
		}
		s.lastOctave = octave
		s.lastTremolo = tok.Tremolo
		if isChord {
			s.currentChord = word
		} else {
			s.currentChord = ""
		}
	}
	if figures != "-" {
		s.lastFigures = figures
	}
	s.lastAccidental = n.Accidental
	n.Octave = octave

	switch {
	case isChord:
		n.Placeholder = 'c'
	case continuation:
		n.Placeholder = notation.Placeholders[s.lastFigures[0]]
	default:
		n.Placeholder = notation.Placeholders[figures[0]]
	}
	n.Percussion = figures == "x"

	if s.barPos.IsZero() && s.barNo > 1 {
		n.Bar = s.barNo
		n.NoPageBreak = s.layout.OnePage && s.pass != PassMIDI
	}

	beams := tok.Beams
	if !tok.BeamsSet {
		if s.keepLength {
			beams = s.lastNBeams
		} else {
			beams = 0
		}
	}
	mem := s.accidentals[octave]
	changed := true
	for i := 0; i < len(figures); i++ {
		f := figures[i]
		if f < '1' || f > '7' || n.Accidental == mem[f-'1'] {
			changed = false
			break
		}
	}
	var left int
	switch {
	case figures == "-" || (changed && beams > s.lastNBeams):
		left = beams
	case s.beam != beamClosed:
		left = min(beams, s.lastNBeams)
	}
	if beams == 0 && s.beam != beamClosed {
		if s.beam != beamOpenRestHack {
			d.beamClose = true
		}
		s.beam = beamClosed
	}

	length := 4
	toAdd := U(16)
	for b := 0; b < beams; b++ {
		length *= 2
		toAdd = toAdd.Scale(1, 2)
	}
	inc := toAdd
	for i := 0; i < tok.Dots; i++ {
		inc = inc.Scale(1, 2)
		toAdd = toAdd.Add(inc)
	}
	n.PreTuplet = toAdd
	if s.tupletNum != s.tupletDen {
		toAdd = toAdd.Scale(s.tupletNum, s.tupletDen)
	}
	n.Length = length
	n.Duration = toAdd
	n.Beams = beams

	if beams > 0 && s.pass == PassJianpu {
		n.SetStems = true
		n.StemLeft, n.StemRight = left, beams
		if s.layout.NotAngka {
			left = beams
			n.StemLeft = beams
			if s.barPos.Add(toAdd).Mod(s.beatLength).IsZero() {
				n.StemRight = 0
			}
		}
	}

	for i := 0; i < len(figures); i++ {
		if f := figures[i]; f >= '1' && f <= '7' {
			mem[f-'1'] = n.Accidental
		}
	}
	s.accidentals[octave] = mem

	restHackHere := false
	if s.pass == PassJianpu {
		if s.restHackPending && left > 0 && beams > 0 {
			d.undoRestHack = true
		}
		s.restHackPending = false
		if n.Placeholder == 'r' && s.restHack && beams > 0 && !(left > 0 && !s.layout.NotAngka) {
			n.Placeholder = 'c'
			if s.hasLyrics && !s.layout.WithStaff {
				n.RestHack = true
				restHackHere = true
				s.restHackPending = true
				if s.beam == beamOpen {
					d.beamClose = true
				}
			}
		}
	}
	if beams > 0 && s.pass == PassJianpu &&
		(s.beam == beamClosed || (s.beam == beamOpenRestHack && !d.undoRestHack) || restHackHere) {
		n.BeamOpen = true
		s.beam = beamOpen
	}

	from := s.barPos
	s.barPos = s.barPos.Add(toAdd)
	if s.grace != GraceNone && s.barPos.Equal(s.barLength) {
		switch {
		case !n.BeamOpen:
			n.GraceEnd = GraceEndPlain
		case s.grace == GraceBefore:
			n.GraceEnd = GraceEndSkipBefore
		default:
			n.GraceEnd = GraceEndSkipAfter
		}
	}
	if s.barPos.Cmp(s.barLength) > 0 {
		return nil, d, notation.TokenError(notation.ErrBarOverflow,
			fmt.Sprintf("barcheck fail: note crosses barline with %d beams (%s skipped from %s to %s, bypassing %s) in bar %d (but the error could be earlier) at",
				beams, toAdd, from, s.barPos, s.barLength, s.barNo),
			word, line)
	}
	if s.beam != beamClosed && s.barPos.Mod(s.beatLength).IsZero() {
		n.BeamClose = true
		s.beam = beamClosed
	} else if restHackHere && s.beam != beamClosed {
		n.BeamClose = true
		s.beam = beamOpenRestHack
	}
	s.lastNBeams = beams
	n.InBeam = s.beam != beamClosed

	if s.barPos.Equal(s.barLength) {
		n.BarEnd = true
		s.barPos = U(0)
		s.barNo++
		s.accidentals = map[notation.Octave][7]notation.Accidental{}
	}
	if continuation && s.pass != PassJianpu && !(n.Tremolo && isChord) {
		d.tie = true
	}
	return n, d, nil
}

func containsByte(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}
