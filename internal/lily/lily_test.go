package lily

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/jianpu-go/internal/engine"
)

func compile(t *testing.T, text string, pass engine.Pass) *engine.Part {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Pass = pass
	p, err := engine.Compile(text, nil, opts)
	require.NoError(t, err)
	return p
}

func TestNamerSpellsDigitsAsLetters(t *testing.T) {
	nm := &Namer{}
	var got []string
	for i := 0; i < 11; i++ {
		got = append(got, nm.Next())
	}
	want := []string{"W", "X", "Y", "Z", "a", "b", "c", "d", "e", "f", "XW"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestJoinBreaksAfterLongItems(t *testing.T) {
	long := strings.Repeat("x", 61)
	assert := assert.New(t)
	assert.Equal("a b", join([]string{"a", "b"}))
	assert.Equal(long+"\nb", join([]string{long, "b"}))
	assert.Equal("a\nb\nc", join([]string{"a\nb", "c"}))
	assert.Equal("a\nb", join([]string{"a\n", "b"}))
}

func TestMergeMarks(t *testing.T) {
	items := mergeMarks([]string{`\mark \markup{1=C}`, `\mark \markup{4/4}`, "c'4"})
	require.Len(t, items, 2)
	assert.Equal(t, "\\mark \\markup{1=C\u00a0 4/4}", items[0])
}

func TestRenderWesternTranspose(t *testing.T) {
	part := &engine.Part{
		Pass: engine.PassWestern,
		Events: []engine.Event{
			{Type: engine.EventKey, Key: engine.Key{Degree: 1, Tonic: "G", Word: "1=G"}},
			{Type: engine.EventNote, Note: &engine.Note{Figures: "1", Placeholder: 'c', Length: 4}},
		},
	}
	assert.Equal(t, `\transpose c g { \key c \major  c'4 }`, Render(part, Options{}))
}

func TestRenderMIDIMinorKeyDropsOctave(t *testing.T) {
	part := &engine.Part{
		Pass: engine.PassMIDI,
		Events: []engine.Event{
			{Type: engine.EventKey, Key: engine.Key{Degree: 6, Tonic: "A", Word: "6=A"}},
			{Type: engine.EventKey, Key: engine.Key{Degree: 1, Tonic: "Bb", Word: "1=Bb"}},
		},
	}
	out := Render(part, Options{})
	assert := assert.New(t)
	assert.Contains(out, `\transpose a a, { \key c \major`)
	assert.Contains(out, `} \transpose c bes, { \key c \major`)
	assert.True(strings.HasSuffix(out, "}"))
}

func TestRenderJianpuKeyIsMark(t *testing.T) {
	part := &engine.Part{
		Pass: engine.PassJianpu,
		Events: []engine.Event{
			{Type: engine.EventKey, Key: engine.Key{Degree: 1, Tonic: "Eb", Word: "1=Eb"}},
			{Type: engine.EventTime, Num: 3, Den: 4},
		},
	}
	assert.Equal(t, `\mark \markup{1=E\flat} \time 3/4`, Render(part, Options{}))
}

func TestRenderJianpuNotes(t *testing.T) {
	out := Render(compile(t, "1 2 3 4", engine.PassJianpu), Options{FinalBarline: true})
	assert := assert.New(t)
	assert.Contains(out, `\note-mod "1" c'4`)
	assert.Contains(out, `\note-mod "4" f'4`)
	assert.True(strings.HasSuffix(out, `\bar "|."`), out)
}

func TestRenderWesternMergesDashes(t *testing.T) {
	out := Render(compile(t, "1 - 1 1", engine.PassWestern), Options{})
	assert.Contains(t, out, "c'2 c'4 c'4")
}

func TestRenderMIDIHasNoFinalBarline(t *testing.T) {
	out := Render(compile(t, "1 2 3 4", engine.PassMIDI), Options{FinalBarline: true})
	assert.NotContains(t, out, `\bar`)
}

func TestRehearsalEnd(t *testing.T) {
	assert := assert.New(t)
	assert.True(strings.HasSuffix(rehearsalEnd("Fine", "|.", false), `\mark "Fine" \bar "|."`))
	assert.True(strings.HasSuffix(rehearsalEnd("Fine", "|.", true), `\mark "Fine"`))
}

func TestMergeTies(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"whole", "c'4 ~ c'4 ~ c'4 ~ c'4", "c'1"},
		{"dotted half", "c'4 ~ c'4 ~ c'4", "c'2."},
		{"half", "c'4 ~ c'4 c'4", "c'2 c'4"},
		{"dotted crotchets", "c'4. ~ c'4.", "c'2."},
		{"different pitches", "c'4 ~ d'4", "c'4 ~ d'4"},
		{"command after tie", `c'4 ~ \p c'4`, `c'2 \p`},
		{"chord", "< c' e' >4 ~ < c' e' >4", "< c' e' >2"},
		{"64th notes", "c'64 ~ c'64", "c'64 ~ c'64"},
		{"rests", "r4 r4 r4 r4", "r1"},
		{"tremolo", `\repeat tremolo 4 { c'32 e'32 } ~ < c' e' >4`, `\repeat tremolo 8 { c'32 e'32 }`},
		{"dynamic into tremolo", `\repeat tremolo 4 { c'32 e'32 } \f d'4`, `\repeat tremolo 4 { c'32 \f e'32 } d'4`},
		{"bar stays outside tremolo", `\repeat tremolo 4 { c'32 e'32 } \bar "|."`, `\repeat tremolo 4 { c'32 e'32 } \bar "|."`},
		{"bar rest", "%{ bar 2: %} r1 | %{ bar 3: %}", "%{ bar 2: %} R1 | %{ bar 3: %}"},
		{"partial bar rest", "%{ bar 2: %} r2 c'2", "%{ bar 2: %} r2 c'2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MergeTies(tc.in))
		})
	}
}

func TestMergeTiesKeepsLineBreaks(t *testing.T) {
	assert.Equal(t, "c'2\nd'4 ", MergeTies("c'4 ~\nc'4\nd'4 "))
}

func TestGraceHeight(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(2.5, GraceHeight("1 g[#45]2 3"))
	assert.Equal(3.5, GraceHeight("1 g[d45]2 3"))
	assert.Equal(3.5, GraceHeight("1 2[,,5]g 3"))
	assert.Equal(2.5, GraceHeight("d1 ,,2"))
}

func TestModernize(t *testing.T) {
	in := `\override Stem #'direction = #DOWN \once \override Score.RehearsalMark #'self-alignment-X = #RIGHT`
	assert := assert.New(t)
	assert.Equal(in, Modernize(in, 22))
	assert.Equal(`\override Stem.direction = #DOWN \once \override Score.RehearsalMark.self-alignment-X = #RIGHT`, Modernize(in, 24))
}

func TestPreamble(t *testing.T) {
	p := Preamble{StaffSize: 18, Input: "1 g[d5]2 angka %} 3"}
	out := p.String()
	assert := assert.New(t)
	assert.True(strings.HasPrefix(out, "\\version \"2.22.0\"\n#(set-global-staff-size 18)\n"), out[:60])
	assert.Contains(out, "note-mod-angka =")
	assert.Contains(out, "(y-start (+ (car Y-ext) -0.2))")
	assert.Contains(out, "1 g[d5]2 angka %/} 3\n%}\n\n")
	assert.NotContains(out, "system-system-spacing")
	assert.NotContains(out, "{{")

	plain := Preamble{HasLyrics: true, Input: "1 2 3 4"}.String()
	assert.True(strings.HasPrefix(plain, "\\version \"2.20.0\"\n#(set-global-staff-size 20)\n"))
	assert.Contains(plain, "system-system-spacing")
	assert.Contains(plain, "(y-start (+ (car Y-ext) 0.32))")
	assert.NotContains(plain, "note-mod-angka")
}

func TestScoreStartAndEnd(t *testing.T) {
	assert := assert.New(t)
	assert.Contains(ScoreStart(false, false, 5), "every-nth-bar-number-visible 5")
	assert.Equal("\\score {\n\\unfoldRepeats\n<< ", ScoreStart(true, false, 5))

	end := ScoreEnd(ScoreLayout{
		MIDI:    true,
		Headers: SortedHeaders(map[string]string{"title": "T", "composer": "C"}),
	})
	assert.Equal(">>\n\\header{\ncomposer=\"C\"\ntitle=\"T\"\n}\n"+
		`\midi { \context { \Score tempoWholesPerMinute = #(ly:make-moment 84 4)}} }`, end)

	layout := ScoreEnd(ScoreLayout{NoIndent: true, NoBarNums: true, StaffSize: 20, LyricSize: 20})
	assert.Contains(layout, `\layout{ indent = 0.0  \context { \Score \remove "Bar_number_engraver" } `)
	assert.True(strings.HasSuffix(layout, "}\n} }"))
}

func TestLyricFontSize(t *testing.T) {
	assert.InDelta(t, 6.0, LyricFontSize(10, 20), 1e-9)
	assert.InDelta(t, -6.0, LyricFontSize(20, 10), 1e-9)
}

func TestStaffWrappers(t *testing.T) {
	nm := &Namer{}
	start, voice := JianpuStaffStart(nm, Staff{Instrument: "Erhu", MaxBeams: 2})
	assert := assert.New(t)
	assert.Equal("W", voice)
	assert.Contains(start, `instrumentName = "Erhu"`)
	assert.Contains(start, `\new Voice="W" {`)
	assert.Contains(start, "length-fraction = #0.5")
	assert.Contains(start, "'Y-offset 2.5)")

	west, wv := WesternStaffStart(nm, "")
	assert.Equal("X", wv)
	assert.NotContains(west, "instrumentName")

	assert.Equal(`\new Lyrics = "IY" { \lyricsto "W" { la la } } `, Lyrics(nm, voice, "la la"))
	assert.Contains(MIDIStaffStart(nm), `\new Voice="Z"`)
}

func TestChordNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{`\new ChordNames { \chordmode { c1 g1 } }`}, ChordNames("c1 g1", ""))
	got := ChordNames("c1", "ukulele")
	require.Len(t, got, 2)
	assert.Equal(`\new FretBoards { \set Staff.stringTunings = #ukulele-tuning \chordmode { c1 } }`, got[1])
	assert.Equal("\\include \"predefined-guitar-fretboards.ly\"\n", FretsInclude("guitar"))
}
