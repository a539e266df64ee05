package lily

import (
	"fmt"
	"strconv"
	"strings"
)

// Namer hands out alphabetic voice and lyric context names, unique within
// one document.
type Namer struct {
	n int
}

const nameLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Next returns the next name. Digits of a running counter are spelled as
// letters, since LilyPond context names may not contain digits.
func (nm *Namer) Next() string {
	digits := strconv.Itoa(nm.n)
	nm.n++
	b := make([]byte, len(digits))
	for i := 0; i < len(digits); i++ {
		b[i] = nameLetters[int(digits[i])%len(nameLetters)]
	}
	return string(b)
}

// voiceStart opens a jianpu voice. A temporary voice holds a rest drawn as a
// hidden note so lyrics skip it.
func voiceStart(nm *Namer, temp bool, maxBeams float64, angka bool) (string, string) {
	stemLen := "0"
	if !temp && maxBeams >= 2 {
		stemLen = "0.5"
	}
	name := nm.Next()
	var b strings.Builder
	fmt.Fprintf(&b, `\new Voice="%s" {`, name)
	b.WriteString("\n    \\override Beam #'transparent = ##f")
	if angka {
		b.WriteString("\n        \\override Stem #'direction = #UP\n        \\override Tie #'staff-position = #-2.5\n        \\tupletDown")
		stemLen = strconv.FormatFloat(0.4+0.2*max(0, maxBeams-1), 'f', -1, 64)
	} else {
		b.WriteString("\n    \\override Stem #'direction = #DOWN\n    \\override Tie #'staff-position = #2.5\n    \\tupletUp\n    \\tieUp")
	}
	fmt.Fprintf(&b, `
    \override Stem #'length-fraction = #%s
    \override Beam #'beam-thickness = #0.1
    \override Beam #'length-fraction = #0.5
    \override Beam.after-line-breaking = #flip-beams
    \override Voice.Rest #'style = #'neomensural %% this size tends to line up better (we'll override the appearance anyway)
    \override Accidental #'font-size = #-4
    \override TupletBracket #'bracket-visibility = ##t
\set Voice.chordChanges = ##t %% 2.19 bug workaround
`, stemLen)
	return b.String(), name
}

// Staff describes the staff a jianpu part is written on.
type Staff struct {
	Instrument  string
	WithStaff   bool
	NotAngka    bool
	MaxBeams    float64
	GraceHeight float64
}

// JianpuStaffStart opens a rhythmic staff with the stave lines removed, so
// only the figures, beams and barlines show. It returns the voice name for
// lyrics to attach to.
func JianpuStaffStart(nm *Namer, s Staff) (string, string) {
	inst := s.Instrument
	if s.WithStaff {
		inst = ""
	}
	var b strings.Builder
	if s.NotAngka {
		b.WriteString("\n% === BEGIN NOT ANGKA STAFF ===\n    \\new RhythmicStaff \\with {")
	} else {
		b.WriteString("\n% === BEGIN JIANPU STAFF ===\n    \\new RhythmicStaff \\with {\n    \\consists \"Accidental_engraver\" ")
	}
	if inst != "" {
		b.WriteString(`instrumentName = "` + inst + `"`)
	}
	if s.WithStaff {
		b.WriteString("\n   % Limit space between Jianpu and corresponding-Western staff\n   \\override VerticalAxisGroup.staff-staff-spacing = #'((minimum-distance . 7) (basic-distance . 7) (stretchability . 0))\n")
	}
	gh := s.GraceHeight
	if gh == 0 {
		gh = 2.5
	}
	fmt.Fprintf(&b, `
    %% Get rid of the stave but not the barlines:
    \override StaffSymbol #'line-count = #0
    \override BarLine #'bar-extent = #'(-2 . 2)
    $(add-grace-property 'Voice 'Stem 'direction DOWN)
    $(add-grace-property 'Voice 'Slur 'direction UP)
    $(add-grace-property 'Voice 'Stem 'length-fraction 0.5)
    $(add-grace-property 'Voice 'Beam 'beam-thickness 0.1)
    $(add-grace-property 'Voice 'Beam 'length-fraction 0.3)
    $(add-grace-property 'Voice 'Beam 'after-line-breaking flip-beams)
    $(add-grace-property 'Voice 'Beam 'Y-offset %.1f)
    $(add-grace-property 'Voice 'NoteHead 'Y-offset %.1f)
    }
    { `, gh, gh)
	voice, name := voiceStart(nm, false, s.MaxBeams, s.NotAngka)
	b.WriteString(voice)
	b.WriteString("\n    \\override Staff.TimeSignature #'style = #'numbered\n    \\override Staff.Stem #'transparent = ##t\n    ")
	return b.String(), name
}

func JianpuStaffEnd(angka bool) string {
	if angka {
		return "} }\n% === END NOT ANGKA STAFF ===\n"
	}
	return "} }\n% === END JIANPU STAFF ===\n"
}

func MIDIStaffStart(nm *Namer) string {
	return fmt.Sprintf("\n%% === BEGIN MIDI STAFF ===\n    \\new Staff { \\new Voice=\"%s\" {", nm.Next())
}

func MIDIStaffEnd() string { return "} }\n% === END MIDI STAFF ===\n" }

// WesternStaffStart opens the 5-line staff that doubles a jianpu staff.
func WesternStaffStart(nm *Namer, inst string) (string, string) {
	var b strings.Builder
	b.WriteString("\n% === BEGIN 5-LINE STAFF ===\n    \\new Staff ")
	if inst != "" {
		b.WriteString(`\with { instrumentName = "` + inst + `" } `)
	}
	name := nm.Next()
	fmt.Fprintf(&b, `{
    \override Score.SystemStartBar.collapse-height = #11 %% (needed on 2.22)
    \new Voice="%s" {
    #(set-accidental-style 'modern-cautionary)
    \override Staff.TimeSignature #'style = #'numbered
    \set Voice.chordChanges = ##f %% for 2.19.82 bug workaround
`, name)
	return b.String(), name
}

func WesternStaffEnd() string { return "} }\n% === END 5-LINE STAFF ===\n" }

// Lyrics attaches one lyric line to a voice.
func Lyrics(nm *Namer, voice, line string) string {
	return fmt.Sprintf(`\new Lyrics = "I%s" { \lyricsto "%s" { `, nm.Next(), voice) + line + " } } "
}

// ScoreStart opens a \score block. MIDI scores unfold their repeats.
func ScoreStart(midi, noBarNums bool, barNumberEvery int) string {
	s := "\\score {\n"
	if midi {
		s += "\\unfoldRepeats\n"
	}
	s += "<< "
	if !noBarNums && !midi {
		s += fmt.Sprintf("\\override Score.BarNumber #'break-visibility = #center-visible\n\\override Score.BarNumber #'Y-offset = -1\n\\set Score.barNumberVisibility = #(every-nth-bar-number-visible %d)", barNumberEvery)
	}
	return s
}

// ScoreLayout carries what the closing \layout or \midi block needs.
type ScoreLayout struct {
	MIDI       bool
	NoIndent   bool
	RaggedLast bool
	NoBarNums  bool
	StaffSize  float64
	LyricSize  float64
	Headers    []Header
}

// Header is one name="value" line of a \header block.
type Header struct {
	Name, Value string
}

// ScoreEnd closes a \score block. Per-score headers must follow the music.
func ScoreEnd(l ScoreLayout) string {
	var b strings.Builder
	b.WriteString(">>\n")
	if len(l.Headers) > 0 {
		b.WriteString("\\header{\n")
		for _, h := range l.Headers {
			b.WriteString(h.Name + `="` + h.Value + "\"\n")
		}
		b.WriteString("}\n")
	}
	var extra string
	if l.LyricSize != l.StaffSize && l.StaffSize > 0 && l.LyricSize > 0 {
		size := LyricFontSize(l.StaffSize, l.LyricSize)
		sign := ""
		if size >= 0 {
			sign = "+"
		}
		extra = ` \override Lyrics.LyricText.font-size = #` + sign + strconv.FormatFloat(size, 'g', -1, 64) + " "
	}
	if l.NoIndent {
		extra += " indent = 0.0 "
	}
	if l.RaggedLast {
		extra += " ragged-last = ##t "
	}
	if l.NoBarNums {
		extra += ` \context { \Score \remove "Bar_number_engraver" } `
	}
	if l.MIDI {
		b.WriteString(`\midi { \context { \Score tempoWholesPerMinute = #(ly:make-moment 84 4)}}`)
	} else {
		b.WriteString(`\layout{` + extra + `
  \context {
    \Global
    \grobdescriptions #all-grob-descriptions
  }
  \context {
    \Score
    \consists \jianpuGraceCurveEngraver % for spans
  }
}`)
	}
	return b.String() + " }"
}
