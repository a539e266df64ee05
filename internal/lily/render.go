package lily

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cbegin/jianpu-go/internal/engine"
)

// Options controls how a compiled part is written out.
type Options struct {
	LilypondMinor int
	// GraceHeight is the vertical room reserved for grace notes: 2.5, or 3.5
	// when any grace group has demisemiquavers or two octave marks.
	GraceHeight float64
	// FinalBarline adds \bar "|." after a part that ends on a note.
	FinalBarline bool
	// Namer hands out voice names. Every staff of a document must share one.
	Namer *Namer
}

func (o Options) withDefaults() Options {
	if o.LilypondMinor == 0 {
		o.LilypondMinor = 22
	}
	if o.GraceHeight == 0 {
		o.GraceHeight = 2.5
	}
	if o.Namer == nil {
		o.Namer = &Namer{}
	}
	return o
}

type renderer struct {
	opts        Options
	part        *engine.Part
	pass        engine.Pass
	items       []string
	inTranspose bool
}

// Render writes the music of one compiled part, without any staff or score
// wrapper. The flavour follows the pass the part was compiled for.
func Render(part *engine.Part, opts Options) string {
	r := &renderer{
		opts:  opts.withDefaults(),
		part:  part,
		pass:  part.Pass,
		items: make([]string, 0, len(part.Events)*2),
	}
	for i := range part.Events {
		r.event(&part.Events[i])
	}
	if r.inTranspose {
		r.items = append(r.items, "}")
	}
	if r.opts.FinalBarline && part.NeedFinalBarline && r.pass != engine.PassMIDI {
		r.items = append(r.items, `\bar "|."`)
	}
	out := join(mergeMarks(r.items))
	if r.pass != engine.PassJianpu {
		out = MergeTies(out)
	}
	return out
}

func (r *renderer) jianpu() bool { return r.pass == engine.PassJianpu }

func (r *renderer) add(s string) { r.items = append(r.items, s) }

func (r *renderer) event(e *engine.Event) {
	switch e.Type {
	case engine.EventNote:
		r.note(e)
	case engine.EventRaw:
		r.add(e.Text)
	case engine.EventTempo:
		r.add(`\tempo ` + e.Text)
	case engine.EventKey:
		r.key(e.Key)
	case engine.EventTime:
		r.add(fmt.Sprintf(`\time %d/%d`, e.Num, e.Den))
	case engine.EventPartial:
		r.add(`\partial ` + e.Text)
	case engine.EventMark:
		r.add(`\mark \markup{` + e.Text + `}`)
	case engine.EventFinger:
		r.add(fmt.Sprintf(`\finger \markup { \fontsize #-4 "%s" } `, e.Text))
	case engine.EventRehearsal:
		r.add(fmt.Sprintf(`\mark \markup { \box { "%s" } }`, e.Text))
	case engine.EventMultiRest:
		if r.pass != engine.PassWestern {
			r.add(`\set Score.skipBars = ##t \override MultiMeasureRest #'expand-limit = #1 `)
		}
		r.add(fmt.Sprintf("R%s*%d", e.Text, e.Num))
	case engine.EventRepeatOpen:
		kind := "volta"
		if e.Percent {
			kind = "percent"
		}
		r.add(fmt.Sprintf(`\repeat %s %d {`, kind, e.Num))
	case engine.EventAlternativeOpen:
		r.add(`\alternative { {`)
	case engine.EventAlternativeNext:
		r.add("} {")
	case engine.EventBlockClose:
		r.add(strings.Repeat("}", e.Braces))
	case engine.EventTupletOpen:
		r.add(fmt.Sprintf(`\times %d/%d {`, e.Num, e.Den))
	case engine.EventTupletClose:
		r.add("}")
	case engine.EventGrace:
		r.add(`\grace { ` + r.grace(e.Grace) + ` }`)
	case engine.EventFine:
		r.add(rehearsalEnd("Fine", `|.`, e.NoBarline))
	case engine.EventDC:
		r.add(rehearsalEnd("D.C. al Fine", `||`, e.NoBarline))
	}
}

func rehearsalEnd(text, bar string, noBarline bool) string {
	s := `\once \override Score.RehearsalMark #'break-visibility = #begin-of-line-invisible \once \override Score.RehearsalMark #'self-alignment-X = #RIGHT \mark "` + text + `"`
	if !noBarline {
		s += ` \bar "` + bar + `"`
	}
	return s
}

// key writes a key directive. The jianpu staff only shows it; the other
// flavours transpose the placeholder pitches into the key.
func (r *renderer) key(k engine.Key) {
	if r.jianpu() {
		r.add(`\mark \markup{` + strings.NewReplacer("b", `\flat`, "#", `\sharp`).Replace(k.Word) + `}`)
		return
	}
	if r.inTranspose {
		r.add("}")
	}
	from := "c"
	if k.Degree == 6 {
		from = "a"
	}
	to := strings.ToLower(strings.NewReplacer("#", "is", "b", "es").Replace(k.Tonic))
	if r.pass == engine.PassMIDI && strings.IndexByte("gab", to[0]) >= 0 {
		to += ","
	}
	r.add(`\transpose ` + from + ` ` + to + ` { \key c \major `)
	r.inTranspose = true
}

// mergeMarks joins runs of \mark \markup{...} items, which LilyPond would
// otherwise drop all but one of.
func mergeMarks(items []string) []string {
	const prefix = `\mark \markup{`
	isMark := func(s string) bool { return strings.HasPrefix(s, prefix) && strings.HasSuffix(s, "}") }
	out := items[:0]
	for _, it := range items {
		if n := len(out); n > 0 && isMark(out[n-1]) && isMark(it) {
			last := out[n-1]
			out[n-1] = last[:len(last)-1] + "\u00a0 " + it[len(prefix):]
			continue
		}
		out = append(out, it)
	}
	return out
}

// join concatenates items, breaking the line after long or multi-line
// items so the output stays readable.
func join(items []string) string {
	var b strings.Builder
	for i, it := range items {
		b.WriteString(it)
		if i == len(items)-1 || strings.HasSuffix(it, "\n") {
			continue
		}
		if strings.Contains(it, "\n") || utf8.RuneCountInString(it) > 60 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
