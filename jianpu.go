// Package jianpu translates jianpu (numbered musical notation) text into
// LilyPond scores, Unicode approximations, MIDI files and audio previews.
package jianpu

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/cbegin/jianpu-go/internal/approx"
	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/lily"
	"github.com/cbegin/jianpu-go/internal/notation"
)

// Pass selects which flavour of LilyPond a part is translated to.
type Pass = engine.Pass

const (
	Jianpu  = engine.PassJianpu
	Western = engine.PassWestern
	MIDI    = engine.PassMIDI
)

var (
	unicodeRe   = regexp.MustCompile(`\sUnicode\s`)
	nextScoreRe = regexp.MustCompile(`\sNextScore\s`)
	nextPartRe  = regexp.MustCompile(`\sNextPart\s`)
	partMidiRe  = regexp.MustCompile(`\sPartMidi\s`)
	lyricLineRe = regexp.MustCompile(`(^|\n)[LH]:`)
)

var fretTunings = map[string]bool{"guitar": true, "ukulele": true, "mandolin": true}

// Result is one translated part.
type Result struct {
	Text     string
	MaxBeams float64
	Lyrics   []string
	// Headers are the header lines seen so far in the score, including
	// those passed in.
	Headers map[string]string
}

// Translate renders the music of one part without any staff or score
// wrapper. headers carries header lines from earlier parts of the same
// score and may be nil.
func Translate(text string, headers map[string]string, pass Pass, opts ...Option) (*Result, error) {
	s := newSettings(opts)
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	eo := s.cfg.EngineOptions(pass, s.logger)
	eo.HasLyrics = lyricLineRe.MatchString(text)
	part, err := engine.Compile(text, headers, eo)
	if err != nil {
		return nil, err
	}
	ro := s.cfg.RenderOptions(&lily.Namer{}, lily.GraceHeight(text))
	ro.FinalBarline = true
	return &Result{
		Text:     lily.Render(part, ro),
		MaxBeams: part.MaxBeams,
		Lyrics:   part.Lyrics,
		Headers:  part.Headers,
	}, nil
}

// IsUnicode reports whether the input asks for a Unicode approximation
// instead of LilyPond.
func IsUnicode(text string) bool {
	return unicodeRe.MatchString(" " + text + " ")
}

// Unicode approximates a single-part, single-score piece in plain text.
func Unicode(text string, opts ...Option) (string, error) {
	s := newSettings(opts)
	if err := s.cfg.Validate(); err != nil {
		return "", err
	}
	text = strings.TrimSpace(unicodeRe.ReplaceAllString(" "+text+" ", " "))
	padded := " " + text + " "
	switch {
	case nextPartRe.MatchString(padded):
		return "", notation.ScoreError(notation.ErrUnsupportedCombination, 1, "multiple parts in Unicode mode not yet supported")
	case nextScoreRe.MatchString(padded):
		return "", notation.ScoreError(notation.ErrUnsupportedCombination, 1, "multiple scores in Unicode mode not yet supported")
	}
	eo := s.cfg.EngineOptions(engine.PassJianpu, s.logger)
	eo.HasLyrics = true
	part, err := engine.Compile(text, nil, eo)
	if err != nil {
		return "", err
	}
	return approx.Render(part), nil
}

// Convert translates a whole input into a LilyPond document. Each score is
// written twice: once for engraving and once, with repeats unfolded, for
// LilyPond's MIDI output. An input containing the word Unicode is
// approximated in plain text instead.
func Convert(text string, opts ...Option) (string, error) {
	s := newSettings(opts)
	if err := s.cfg.Validate(); err != nil {
		return "", err
	}
	if IsUnicode(text) {
		u, err := Unicode(text, opts...)
		if err != nil {
			return "", err
		}
		return u + "\n", nil
	}
	d := &document{
		settings:    s,
		namer:       &lily.Namer{},
		graceHeight: lily.GraceHeight(text),
		input:       text,
	}
	for i, score := range splitScores(text) {
		if err := d.score(score, i+1); err != nil {
			return "", errors.Wrapf(err, "score %d", i+1)
		}
	}
	if len(d.items) == 0 {
		return "", notation.ScoreError(notation.ErrEmptyScore, 1, "No jianpu in input")
	}
	var b strings.Builder
	for _, item := range d.items {
		b.WriteString(item)
		b.WriteString("\n")
	}
	return lily.Modernize(b.String(), s.cfg.LilypondMinor), nil
}

func splitScores(text string) []string {
	return nonEmpty(nextScoreRe.Split(" "+text+" ", -1))
}

func splitParts(score string) []string {
	return nonEmpty(nextPartRe.Split(" "+score+" ", -1))
}

func nonEmpty(chunks []string) []string {
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

type document struct {
	*settings
	namer       *lily.Namer
	graceHeight float64
	input       string
	items       []string
}

func (d *document) add(items ...string) {
	d.items = append(d.items, items...)
}

// include puts a line right after the preamble, once.
func (d *document) include(line string) {
	for _, item := range d.items {
		if item == line {
			return
		}
	}
	at := min(1, len(d.items))
	d.items = append(d.items[:at], append([]string{line}, d.items[at:]...)...)
}

func (d *document) score(score string, no int) error {
	hasLyrics := lyricLineRe.MatchString(score)
	parts := splitParts(score)
	for _, midi := range []bool{false, true} {
		if no == 1 && !midi {
			d.add(lily.Preamble{
				StaffSize: d.cfg.StaffSize,
				HasLyrics: hasLyrics,
				Input:     d.input,
			}.String())
		}
		separations := []bool{false}
		if midi && len(parts) > 1 && partMidiRe.MatchString(" "+score+" ") {
			separations = append(separations, true)
		}
		for _, separate := range separations {
			if err := d.parts(parts, no, midi, separate, hasLyrics); err != nil {
				return err
			}
		}
	}
	return nil
}

// parts writes the parts of one score. With separate set every part gets
// its own \score block.
func (d *document) parts(parts []string, no int, midi, separate, hasLyrics bool) error {
	pass := engine.PassJianpu
	if midi {
		pass = engine.PassMIDI
	}
	headers := map[string]string{}
	notAngka := false
	for i, text := range parts {
		eo := d.cfg.EngineOptions(pass, d.logger)
		eo.Score = no
		eo.HasLyrics = hasLyrics
		eo.NotAngka = notAngka
		part, err := engine.Compile(text, headers, eo)
		if err != nil {
			return err
		}
		notAngka = part.Layout.NotAngka
		headers = part.Headers

		first := i == 0 || separate
		if first {
			d.add(lily.ScoreStart(midi, part.Layout.NoBarNums, d.cfg.BarNumberEvery))
		}
		ro := d.cfg.RenderOptions(d.namer, d.graceHeight)
		ro.FinalBarline = first
		body := lily.Render(part, ro)

		inst := ""
		if v, ok := headers["instrument"]; ok && len(parts) > 1 {
			inst = v
			delete(headers, "instrument")
		}
		if err := d.chords(headers, no); err != nil {
			return err
		}

		if midi {
			d.add(lily.MIDIStaffStart(d.namer) + " " + body + " " + lily.MIDIStaffEnd())
		} else if err := d.jianpuStaves(part, body, text, inst, eo); err != nil {
			return err
		}

		if i == len(parts)-1 || separate {
			d.add(d.scoreEnd(part.Layout, midi, headers))
		}
	}
	return nil
}

// jianpuStaves writes a part's jianpu staff, the 5-line staff that doubles
// it when WithStaff is on, and its lyrics. body is the part's rendered
// jianpu music; text is compiled again for the 5-line staff.
func (d *document) jianpuStaves(part *engine.Part, body, text, inst string, eo engine.Options) error {
	start, voice := lily.JianpuStaffStart(d.namer, lily.Staff{
		Instrument:  inst,
		WithStaff:   part.Layout.WithStaff,
		NotAngka:    part.Layout.NotAngka,
		MaxBeams:    part.MaxBeams,
		GraceHeight: d.graceHeight,
	})
	d.add(start + " " + body + " " + lily.JianpuStaffEnd(part.Layout.NotAngka))
	if part.Layout.WithStaff {
		eo.Pass = engine.PassWestern
		western, err := engine.Compile(text, nil, eo)
		if err != nil {
			return err
		}
		var ws string
		ws, voice = lily.WesternStaffStart(d.namer, inst)
		music := lily.Render(western, d.cfg.RenderOptions(d.namer, d.graceHeight))
		d.add(ws + " " + music + " " + lily.WesternStaffEnd())
	}
	if len(part.Lyrics) > 0 {
		var b strings.Builder
		for _, l := range part.Lyrics {
			b.WriteString(lily.Lyrics(d.namer, voice, l))
		}
		d.add(b.String())
	}
	return nil
}

// chords turns chords and frets headers into chord-name and fret staves.
func (d *document) chords(headers map[string]string, no int) error {
	chords, ok := headers["chords"]
	if !ok {
		return nil
	}
	frets := headers["frets"]
	if frets != "" {
		if !fretTunings[frets] {
			return notation.ScoreError(notation.ErrUnsupportedCombination, no,
				"frets=%s is not one of guitar, ukulele or mandolin", frets)
		}
		d.include(lily.FretsInclude(frets))
		delete(headers, "frets")
	}
	d.add(lily.ChordNames(chords, frets)...)
	delete(headers, "chords")
	return nil
}

func (d *document) scoreEnd(l engine.Layout, midi bool, headers map[string]string) string {
	lyricSize := d.cfg.Lyrics()
	if lyricSize != d.cfg.StaffSize && lily.LyricFontSize(d.cfg.StaffSize, lyricSize) > 3 {
		d.logger.Printf("WARNING: potential layout problems; consider increasing the staff size to be closer to the lyric size")
	}
	return lily.ScoreEnd(lily.ScoreLayout{
		MIDI:       midi,
		NoIndent:   l.NoIndent,
		RaggedLast: l.RaggedLast,
		NoBarNums:  l.NoBarNums,
		StaffSize:  d.cfg.StaffSize,
		LyricSize:  lyricSize,
		Headers:    lily.SortedHeaders(headers),
	})
}
