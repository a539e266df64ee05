package notation

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainFigure(t *testing.T) {
	tok, err := ParseNote("1", "1", "1")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("1", tok.Figures)
	assert.Equal(0, tok.Beams)
	assert.False(tok.BeamsSet)
	assert.Equal(Natural, tok.Accidental)
	assert.Equal(Octave(0), tok.Octave)
}

func TestParseModifiers(t *testing.T) {
	cases := []struct {
		word    string
		figures string
		beams   int
		dots    int
		octave  Octave
		acc     Accidental
		tremolo bool
	}{
		{"q1", "1", 1, 0, 0, Natural, false},
		{"s#4.", "4", 2, 1, 0, Sharp, false},
		{"d5,,", "5", 3, 0, -2, Natural, false},
		{"h7'", "7", 4, 0, 1, Natural, false},
		{`\\3`, "3", 2, 0, 0, Natural, false},
		{"8", "1", 0, 0, 1, Natural, false},
		{"9", "2", 0, 0, 1, Natural, false},
		{".", "-", 0, 0, 0, Natural, false},
		{"b6", "6", 0, 0, 0, Flat, false},
		{"1///", "1", 0, 0, 0, Natural, true},
		{"1’", "1", 0, 0, 1, Natural, false},
	}
	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			tok, err := ParseNote(tc.word, tc.word, tc.word)
			require.NoError(t, err)
			assert := assert.New(t)
			assert.Equal(tc.figures, tok.Figures)
			assert.Equal(tc.beams, tok.Beams)
			assert.Equal(tc.dots, tok.Dots)
			assert.Equal(tc.octave, tok.Octave)
			assert.Equal(tc.acc, tok.Accidental)
			assert.Equal(tc.tremolo, tok.Tremolo)
		})
	}
}

func TestParseNoteErrors(t *testing.T) {
	cases := []struct {
		word string
		msg  string
	}{
		{"1@2", "Unrecognised command"},
		{"qs1", "Can't calculate number of beams from qs in"},
		{"1',", "Multiple octaves should not applied to a single note:"},
		{"#b1", "Can't handle accidental #b in"},
	}
	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			_, err := ParseNote(tc.word, tc.word, "1 "+tc.word)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedToken))

			var ne *Error
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, tc.msg, ne.Msg)
			assert.Equal(t, tc.word, ne.Word)
			assert.Equal(t, "1 "+tc.word, ne.Line)
		})
	}
}

func TestChordNormalizationSortsAndIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	for _, in := range []string{",13'5", "'53,1", "3'5,1", "1,35'"} {
		once := NormalizeChord(in)
		assert.Equal(once, NormalizeChord(once), in)
	}
	assert.Equal(",13'5", NormalizeChord(",13'5"))
	assert.Equal(",13'5", NormalizeChord("'53,1"))
	assert.Equal("#45", NormalizeChord("5#4"))
	assert.Equal("b3'1", NormalizeChord("'1b3"))
}

func TestParseChordBottomOctave(t *testing.T) {
	notes, bottom := ParseChord(",,5q1.3")
	require.Len(t, notes, 3)
	assert := assert.New(t)
	assert.Equal(byte('5'), notes[0].Figure)
	assert.Equal(Octave(-2), bottom)

	_, bottom = ParseChord("135")
	assert.Equal(Octave(0), bottom)
}

func TestFixModifierOrder(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("1'2", FixModifierOrder("12'"))
	assert.Equal("s#4s5", FixModifierOrder("s#4s5"))
	assert.Equal("'1", FixModifierOrder("8"))
	assert.Equal(",1s2", FixModifierOrder("1,2s"))
}

func TestParseGrace(t *testing.T) {
	notes := ParseGrace("#4'1d5")
	require.Len(t, notes, 3)

	assert := assert.New(t)
	assert.Equal(GraceNote{Figure: '4', Accidental: Sharp}, notes[0])
	assert.Equal(GraceNote{Figure: '1', Octave: 1}, notes[1])
	assert.Equal(GraceNote{Figure: '5', Length: 'd'}, notes[2])
	assert.Equal(2, notes[0].Beams())
	assert.Equal(3, notes[2].Beams())
	assert.Equal(2, notes[2].Units())
	assert.Equal(4, notes[0].Units())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		word string
		kind Kind
	}{
		{"% hi", KindComment},
		{"4=85", KindTempo},
		{"4.=60", KindTempo},
		{"1=Bb", KindKey},
		{"6=F#", KindKey},
		{"1=bE", KindKey},
		{"Fr=2", KindFinger},
		{"souyin", KindFinger},
		{"letterA", KindRehearsal},
		{"R*8", KindMultiRest},
		{"6/8", KindTime},
		{"4/4,8.", KindTime},
		{"OnePage", KindOption},
		{"Indonesian", KindOption},
		{"R{", KindRepeat},
		{"R3{", KindPercentRepeat},
		{"}", KindClose},
		{"A{", KindAlternative},
		{"|", KindBar},
		{"~", KindTie},
		{`\p`, KindCommand},
		{`^"above it"`, KindCommand},
		{"(", KindCommand},
		{"3[", KindTupletOpen},
		{"]", KindTupletClose},
		{"g[#45]", KindGraceBefore},
		{"['1]g", KindGraceAfter},
		{"Fine", KindFine},
		{"DC", KindDC},
		{"q1.", KindNote},
		{"1@2", KindNote},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, Classify(tc.word).Kind, tc.word)
	}
}

func TestClassifyFields(t *testing.T) {
	assert := assert.New(t)

	key := Classify("1=bE")
	assert.Equal("1=Eb", key.Word)
	assert.Equal(1, key.Num)
	assert.Equal("Eb", key.Text)

	ts := Classify("4/4,8.")
	assert.Equal(4, ts.Num)
	assert.Equal(4, ts.Den)
	assert.Equal("8.", ts.Text)

	f := Classify("bend")
	assert.Equal("bend", f.Text)
	assert.Equal("⤻", FingerGlyph(f.Text))

	assert.Equal(OptNotAngka, Classify("angka").Option)
	assert.Equal(5, Classify("R5{").Num)
	assert.Equal("#45", Classify("g[#45]").Text)
}

func TestTupletRatio(t *testing.T) {
	cases := []struct{ fit, num, den int }{
		{3, 2, 3},
		{5, 4, 5},
		{6, 4, 6},
		{2, 3, 2},
		{4, 6, 4},
		{7, 4, 7},
	}
	for _, tc := range cases {
		num, den, ok := TupletRatio(tc.fit)
		if !ok || num != tc.num || den != tc.den {
			t.Fatalf("TupletRatio(%d) = %d/%d, want %d/%d", tc.fit, num, den, tc.num, tc.den)
		}
	}
}

func TestTupletRatioRejectsFitOutOfRange(t *testing.T) {
	for _, fit := range []int{0, -3, MaxTupletFit + 1, 1 << 30} {
		if _, _, ok := TupletRatio(fit); ok {
			t.Fatalf("TupletRatio(%d) accepted", fit)
		}
	}
}

func TestClassifyOversizedCounts(t *testing.T) {
	assert := assert.New(t)
	tok := Classify("99999999999999999999[")
	assert.Equal(KindTupletOpen, tok.Kind)
	assert.Equal(0, tok.Num)

	tok = Classify("99999999999999999999/4")
	assert.Equal(KindTime, tok.Kind)
	assert.Equal(0, tok.Num)
	assert.Equal(0, Classify("R99999999999999999999{").Num)
}

func TestFoldWidth(t *testing.T) {
	assert.Equal(t, "1 2 q3, 4.", FoldWidth("１ ２ ｑ３‚ ４｡"))
}

func TestSplitWordsKeepsQuotedText(t *testing.T) {
	words := SplitWords(`1 ^"two words" 2 _"x" 3`)
	assert.Equal(t, []string{"1", `^"two words"`, "2", `_"x"`, "3"}, words)
}

func TestErrorHighlightUsesDisplayWidth(t *testing.T) {
	e := TokenError(ErrMalformedToken, "Unrecognised command", "1@", "你好 1@ 2")
	e.Score = 2
	want := "Unrecognised command 1@ in score 2\n你好 1@ 2\n     ^^"
	assert.Equal(t, want, e.Error())
}

func TestLongWordsAreClippedOnCharacters(t *testing.T) {
	word := "1" + strings.Repeat("你", 70)
	e := TokenError(ErrMalformedToken, "Unrecognised command", word, word)
	msg := e.Error()

	assert := assert.New(t)
	assert.True(utf8.ValidString(msg))
	assert.Contains(msg, "Unrecognised command 1"+strings.Repeat("你", 49)+"...")

	line := strings.Repeat("好", 700)
	e = TokenError(ErrMalformedToken, "Unrecognised command", "1@", line+" 1@")
	assert.True(utf8.ValidString(e.Error()))
	_, _, _, ok := e.Span()
	assert.False(ok)
}

func TestScoreErrorHasNoHighlight(t *testing.T) {
	e := ScoreError(ErrEmptyScore, 3, "No jianpu in score %d", 3)
	assert.Equal(t, "No jianpu in score 3", e.Error())
	assert.True(t, errors.Is(e, ErrEmptyScore))
}
