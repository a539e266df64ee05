package engine

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/cbegin/jianpu-go/internal/notation"
)

var (
	tempoUpgradeRe = regexp.MustCompile(`^%%\s*tempo:\s*(\S+)\s*$`)
	headerRe       = regexp.MustCompile(`^\s*[A-Za-z]+\s*=`)
)

type compiler struct {
	opts    Options
	st      *BarState
	events  []Event
	frames  []frame
	lyrics  []string
	headers map[string]string

	lastNote         int
	lastNonDash      int
	lastClosedRepeat int
	maxBeams         float64

	escaping        bool
	harmonic        bool
	afterGraceOpen  bool
	pendingTieClose bool
	needFinalBar    bool
}

// Compile turns the text of one part into events. headers accumulates the
// header lines of all parts of a score and is returned in the Part.
func Compile(text string, headers map[string]string, opts Options) (*Part, error) {
	c := newCompiler(headers, opts)
	for _, raw := range strings.Split(text, "\n") {
		if err := c.line(raw); err != nil {
			return nil, c.stamp(err)
		}
	}
	if err := c.finish(); err != nil {
		return nil, c.stamp(err)
	}
	return &Part{
		Pass:             opts.Pass,
		Events:           c.events,
		MaxBeams:         c.maxBeams,
		Lyrics:           c.lyrics,
		Headers:          c.headers,
		Layout:           c.st.layout,
		NeedFinalBarline: c.needFinalBar,
		BarLength:        c.st.barLength,
	}, nil
}

func newCompiler(headers map[string]string, opts Options) *compiler {
	if headers == nil {
		headers = map[string]string{}
	}
	return &compiler{
		opts:             opts,
		st:               newBarState(opts),
		events:           make([]Event, 0, 256),
		headers:          headers,
		lastNote:         -1,
		lastNonDash:      -1,
		lastClosedRepeat: -1,
	}
}

func (c *compiler) stamp(err error) error {
	var ne *notation.Error
	if errors.As(err, &ne) && ne.Score == 0 {
		ne.Score = c.opts.Score
	}
	return err
}

func (c *compiler) emit(e Event) {
	c.events = append(c.events, e)
}

func (c *compiler) raw(text string) {
	c.emit(Event{Type: EventRaw, Text: text})
}

func (c *compiler) line(raw string) error {
	line := strings.TrimSpace(notation.FoldWidth(raw))
	line = tempoUpgradeRe.ReplaceAllString(line, "$1")
	switch {
	case strings.HasPrefix(line, "LP:"):
		c.escaping = true
		if len(line) > len("LP:") {
			c.raw(line[3:] + "\n")
		}
	case strings.HasPrefix(line, ":LP"):
		c.escaping = false
		if strings.TrimSpace(strings.ReplaceAll(line, ":LP", "")) != "" {
			c.st.log.Printf("ignoring text after :LP on the same line")
		}
	case c.escaping:
		c.raw(line + "\n")
	case line == "":
	case strings.HasPrefix(line, "L:"), strings.HasPrefix(line, "H:"):
		c.lyrics = append(c.lyrics, lyricLine(line))
	case headerRe.MatchString(line):
		return c.header(line)
	default:
		for _, word := range notation.SplitWords(line) {
			tok := notation.Classify(word)
			if tok.Kind == notation.KindComment {
				break
			}
			if err := c.word(tok, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) header(line string) error {
	name, value, _ := strings.Cut(line, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)
	if old, ok := c.headers[name]; ok && old != value {
		missing := "NextScore"
		if name == "instrument" {
			missing = "NextPart or NextScore"
		}
		return notation.ScoreError(notation.ErrHeaderConflict, c.opts.Score,
			"Changing header '%s' from '%s' to '%s' (is there a missing %s?)", name, old, value, missing)
	}
	c.headers[name] = value
	return nil
}

func (c *compiler) word(tok notation.Token, line string) error {
	st := c.st
	word := tok.Word
	switch tok.Kind {
	case notation.KindHarmonicOn:
		c.harmonic = true
	case notation.KindHarmonicOff:
		c.harmonic = false
	case notation.KindTempo:
		c.emit(Event{Type: EventTempo, Text: word})
	case notation.KindKey:
		c.emit(Event{Type: EventKey, Key: Key{Degree: tok.Num, Tonic: tok.Text, Word: word}})
	case notation.KindFinger:
		c.emit(Event{Type: EventFinger, Text: notation.FingerGlyph(tok.Text)})
	case notation.KindRehearsal:
		c.emit(Event{Type: EventRehearsal, Text: tok.Text})
	case notation.KindMultiRest:
		if tok.Num < 1 {
			return notation.TokenError(notation.ErrMalformedToken, "Can't handle rest count in", word, line)
		}
		c.emit(Event{Type: EventMultiRest, Text: st.wholeBarRest(), Num: tok.Num})
	case notation.KindTime:
		return c.time(tok, line)
	case notation.KindOption:
		c.option(tok.Option)
	case notation.KindRepeat:
		c.openRepeat(2, false)
	case notation.KindPercentRepeat:
		if tok.Num < 1 {
			return notation.TokenError(notation.ErrMalformedToken, "Can't handle repeat count in", word, line)
		}
		c.openRepeat(tok.Num, true)
	case notation.KindClose:
		return c.closeBlock(word, line)
	case notation.KindAlternative:
		return c.openAlternative(word, line)
	case notation.KindBar:
		if !c.nextAlternative() {
			c.command(word)
		}
	case notation.KindTie:
		c.tie(word)
	case notation.KindCommand:
		c.command(word)
	case notation.KindTupletOpen:
		return c.openTuplet(tok.Num, word, line)
	case notation.KindTupletClose:
		return c.closeTuplet(word, line)
	case notation.KindGraceBefore:
		span, err := c.grace(tok.Text, false, word, line)
		if err != nil {
			return err
		}
		c.emit(Event{Type: EventGrace, Grace: span})
	case notation.KindGraceAfter:
		if c.lastNote < 0 {
			return notation.TokenError(notation.ErrMalformedToken, "Grace notes after nothing:", word, line)
		}
		span, err := c.grace(tok.Text, true, word, line)
		if err != nil {
			return err
		}
		c.events[c.lastNote].Note.AfterGrace = span
		c.afterGraceOpen = true
	case notation.KindFine:
		c.needFinalBar = false
		c.emit(Event{Type: EventFine})
	case notation.KindDC:
		c.needFinalBar = false
		c.emit(Event{Type: EventDC})
	case notation.KindNote:
		return c.note(word, line)
	}
	return nil
}

func (c *compiler) time(tok notation.Token, line string) error {
	if !c.st.setTime(tok.Num, tok.Den) {
		return notation.TokenError(notation.ErrMalformedToken, "Can't handle time signature", tok.Word, line)
	}
	sig := strconv.Itoa(tok.Num) + "/" + strconv.Itoa(tok.Den)
	if c.st.layout.SeparateTimesig && c.opts.Pass != PassMIDI {
		c.emit(Event{Type: EventMark, Text: sig})
	}
	c.emit(Event{Type: EventTime, Num: tok.Num, Den: tok.Den})
	if tok.Text == "" {
		return nil
	}
	anac := strings.TrimSuffix(tok.Text, ".")
	den, err := strconv.Atoi(anac)
	if err != nil {
		return notation.TokenError(notation.ErrMalformedToken, "Bad anacrusis in", tok.Word, line)
	}
	if err := c.st.setAnacrusis(den, anac != tok.Text, c.opts.Score); err != nil {
		return err
	}
	c.emit(Event{Type: EventPartial, Text: tok.Text})
	return nil
}

func (c *compiler) option(o notation.Option) {
	l := &c.st.layout
	dup := func(set *bool, name string) {
		if *set {
			c.st.log.Printf("Duplicate %s, did you miss out a NextScore?", name)
		}
		*set = true
	}
	switch o {
	case notation.OptOnePage:
		dup(&l.OnePage, "OnePage")
	case notation.OptNoBarNums:
		dup(&l.NoBarNums, "NoBarNums")
	case notation.OptNoIndent:
		dup(&l.NoIndent, "NoIndent")
	case notation.OptRaggedLast:
		dup(&l.RaggedLast, "RaggedLast")
	case notation.OptSeparateTimesig:
		dup(&l.SeparateTimesig, "SeparateTimesig")
		c.raw(`\override Staff.TimeSignature #'stencil = ##f`)
	case notation.OptNotAngka:
		dup(&l.NotAngka, "angka")
	case notation.OptWithStaff:
		dup(&l.WithStaff, "WithStaff")
	case notation.OptKeepLength:
		c.st.keepLength = true
	}
}

// tie handles ~. In the jianpu pass a tie written after dashes starts from
// the last real note, not the last dash.
func (c *compiler) tie(word string) {
	if c.opts.Pass == PassJianpu && c.lastNonDash >= 0 && c.lastNonDash < c.lastNote {
		if c.opts.Policy.BarlineTies {
			c.events[c.lastNonDash].Note.attach(AttachTieOpen)
			c.pendingTieClose = true
			return
		}
		c.st.log.Printf("long-note tie drawn from the last dash: barline ties are disabled")
	}
	c.command(word)
}

// command passes a LilyPond command through. Commands that follow an
// after-grace go inside it.
func (c *compiler) command(word string) {
	if c.afterGraceOpen {
		g := c.events[c.lastNote].Note.AfterGrace
		g.Trailing = append(g.Trailing, word)
		return
	}
	c.raw(word)
}

func (c *compiler) note(word, line string) error {
	st := c.st
	orig := word
	up := strings.Count(word, ">")
	down := strings.Count(word, "<")
	if up+down > 0 {
		st.baseOctave += notation.Octave(up - down)
		word = strings.NewReplacer("<", "", ">", "").Replace(word)
		if word == "" {
			return nil
		}
	}
	tok, err := notation.ParseNote(word, orig, line)
	if err != nil {
		return err
	}
	c.needFinalBar = true
	n, d, err := st.step(tok, orig, line)
	if err != nil {
		return err
	}
	if c.lastNote >= 0 {
		prev := c.events[c.lastNote].Note
		if d.undoRestHack {
			prev.RestHackUndone = true
		}
		if d.tie {
			prev.attach(AttachTie)
		}
		if d.beamClose {
			prev.attach(AttachBeamClose)
		}
	}
	if d.tieOpen && c.lastNonDash >= 0 {
		c.events[c.lastNonDash].Note.attach(AttachTieOpen)
	}
	c.lastNote = len(c.events)
	if !n.IsDash() {
		c.lastNonDash = len(c.events)
	}
	if c.pendingTieClose {
		n.After = append(n.After, AttachTieClose)
		c.pendingTieClose = false
	}
	if c.harmonic && c.opts.Pass == PassJianpu && !n.IsDash() {
		n.Harmonic = true
	}
	c.emit(Event{Type: EventNote, Note: n})
	c.afterGraceOpen = false
	c.lastClosedRepeat = -1

	beams := float64(n.Beams)
	if st.layout.NotAngka && n.Octave > 0 {
		beams += float64(n.Octave) * 0.8
	}
	if beams > c.maxBeams {
		c.maxBeams = beams
	}
	return nil
}

func (c *compiler) finish() error {
	st := c.st
	score := c.opts.Score
	if st.barPos.IsZero() && st.barNo == 1 {
		return notation.ScoreError(notation.ErrEmptyScore, score, "No jianpu in score %d", score)
	}
	if st.beam == beamOpen && c.opts.Pass == PassJianpu && c.lastNote >= 0 {
		c.events[c.lastNote].Note.TrailingBeamClose = true
	}
	if err := c.checkFrames(); err != nil {
		return err
	}
	if c.escaping {
		return notation.ScoreError(notation.ErrUnterminatedEscape, score, "Unterminated LP: in score %d", score)
	}
	if err := st.endScore(score, c.opts.SloppyBars); err != nil {
		return err
	}
	if st.layout.WithStaff && st.layout.SeparateTimesig {
		return notation.ScoreError(notation.ErrUnsupportedCombination, score,
			"Use of both WithStaff and SeparateTimesig in the same piece is not yet implemented")
	}
	return nil
}
