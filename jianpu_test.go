package jianpu

import (
	"bytes"
	"errors"
	"log"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/jianpu-go/internal/config"
	"github.com/cbegin/jianpu-go/internal/notation"
)

func TestConvertWritesEngravingAndMIDIScores(t *testing.T) {
	out, err := Convert("1 2 3 4")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.True(strings.HasPrefix(out, `\version "2.20.0"`), out[:40])
	assert.Equal(2, strings.Count(out, "\\score {"))
	assert.Equal(1, strings.Count(out, "\\unfoldRepeats"))
	assert.Contains(out, "=== BEGIN JIANPU STAFF ===")
	assert.Contains(out, "=== BEGIN MIDI STAFF ===")
	assert.Contains(out, `\note-mod "1" c'4`)
	assert.Contains(out, `\midi {`)
	assert.Contains(out, "%{ The jianpu input was:\n1 2 3 4\n%}")
	assert.True(strings.HasSuffix(out, "}\n"))
}

func TestConvertParts(t *testing.T) {
	in := "instrument=Erhu\n1 2 3 4\nNextPart\ninstrument=Pipa\n5 6 7 1'"
	out, err := Convert(in)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(2, strings.Count(out, "\\score {"))
	assert.Equal(2, strings.Count(out, "=== BEGIN JIANPU STAFF ==="))
	assert.Contains(out, `instrumentName = "Erhu"`)
	assert.Contains(out, `instrumentName = "Pipa"`)
	assert.NotContains(out, `instrument="`)
}

func TestConvertPartMidiAddsScorePerPart(t *testing.T) {
	out, err := Convert("PartMidi 1 2 3 4 NextPart 5 6 7 1'")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\\score {"))
	assert.Equal(t, 3, strings.Count(out, "\\unfoldRepeats"))
}

func TestConvertHeaderConflict(t *testing.T) {
	_, err := Convert("title=A\n1 2 3 4\nNextPart\ntitle=B\n1 2 3 4")
	require.Error(t, err)
	if !errors.Is(err, notation.ErrHeaderConflict) {
		t.Fatalf("expected header conflict, got %v", err)
	}
	assert.Contains(t, err.Error(), "score 1")
}

func TestConvertHeadersFollowMusic(t *testing.T) {
	out, err := Convert("title=Song\ncomposer=Trad\n1 2 3 4")
	require.NoError(t, err)
	assert.Contains(t, out, "\\header{\ncomposer=\"Trad\"\ntitle=\"Song\"\n}\n")
}

func TestConvertChordsAndFrets(t *testing.T) {
	out, err := Convert("chords=c1\nfrets=ukulele\n1 2 3 4")
	require.NoError(t, err)

	assert := assert.New(t)
	inc := strings.Index(out, `\include "predefined-ukulele-fretboards.ly"`)
	require.GreaterOrEqual(t, inc, 0)
	assert.Less(inc, strings.Index(out, "\\score {"))
	assert.Contains(out, `\new ChordNames { \chordmode { c1 } }`)
	assert.Contains(out, `\new FretBoards { \set Staff.stringTunings = #ukulele-tuning \chordmode { c1 } }`)
	assert.NotContains(out, `chords="`)
}

func TestConvertRejectsUnknownFrets(t *testing.T) {
	_, err := Convert("chords=c1\nfrets=banjo\n1 2 3 4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, notation.ErrUnsupportedCombination))
}

func TestConvertLyricsAndWithStaff(t *testing.T) {
	out, err := Convert("WithStaff\n1 2 3 4\nL: la la la la")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Contains(out, "=== BEGIN 5-LINE STAFF ===")
	assert.Contains(out, `\lyricsto`)
	assert.Contains(out, "la la la la")
	assert.Contains(out, "system-system-spacing")
}

func TestConvertModernizesFor224(t *testing.T) {
	out, err := Convert("1 2 3 4", WithLilypondMinor(24))
	require.NoError(t, err)
	old := regexp.MustCompile(`\\override [A-Z][^ ]* #'`)
	assert.False(t, old.MatchString(out))
	assert.Contains(t, out, `\override Stem.direction`)
}

func TestConvertRejectsOldLilypond(t *testing.T) {
	_, err := Convert("1 2 3 4", WithLilypondMinor(18))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.18 and below")

	_, err = MIDIFiles("1 2 3 4", WithLilypondMinor(18))
	assert.Error(t, err)
}

func TestConvertReportsBadTimeSignature(t *testing.T) {
	_, err := Convert("1/88 1 2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, notation.ErrMalformedToken))
	assert.Contains(t, err.Error(), "1/88")
}

func TestConvertEmptyInput(t *testing.T) {
	_, err := Convert("  \n ")
	assert.True(t, errors.Is(err, notation.ErrEmptyScore))
}

func TestConvertUnicode(t *testing.T) {
	out, err := Convert("Unicode 1 2 3 4")
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 4║\n", out)

	_, err = Convert("Unicode 1 2 3 4 NextPart 1 2 3 4")
	assert.True(t, errors.Is(err, notation.ErrUnsupportedCombination))
}

func TestConvertWarnsAboutLargeLyrics(t *testing.T) {
	var buf bytes.Buffer
	_, err := Convert("1 2 3 4\nL: a b c d", WithLyricSize(40), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "potential layout problems")
}

func TestTranslate(t *testing.T) {
	res, err := Translate("title=Song\n1 2 3 4", nil, Western)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Contains(res.Text, "c'4 d'4 e'4 f'4")
	assert.Equal("Song", res.Headers["title"])
	assert.Equal(0.0, res.MaxBeams)

	res, err = Translate("q1 q2 s3 s4 s5 s6 4 5", nil, Jianpu)
	require.NoError(t, err)
	assert.Equal(2.0, res.MaxBeams)
}

func TestTranslateKeepsEarlierHeaders(t *testing.T) {
	headers := map[string]string{"title": "Song"}
	_, err := Translate("title=Other\n1 2 3 4", headers, Jianpu)
	assert.True(t, errors.Is(err, notation.ErrHeaderConflict))
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StaffSize = 16
	out, err := Convert("1 2 3 4", FromConfig(cfg))
	require.NoError(t, err)
	assert.Contains(t, out, "#(set-global-staff-size 16)")
}

func TestMIDIFiles(t *testing.T) {
	files, err := MIDIFiles("1 2 3 4 NextScore 5 6 7 1'")
	require.NoError(t, err)
	require.Len(t, files, 2)

	s, err := smf.ReadFrom(bytes.NewReader(files[1]))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var ons []uint8
	for _, ev := range s.Tracks[0] {
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) {
			ons = append(ons, key)
		}
	}
	assert.Equal(t, []uint8{67, 69, 71, 72}, ons)

	files, err = MIDIFiles("PartMidi 1 2 3 4 NextPart 5 6 7 1'")
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestTimelinePicksScore(t *testing.T) {
	notes, err := Timeline("1 2 3 4 NextScore 5 5 5 5", WithScore(2))
	require.NoError(t, err)
	require.Len(t, notes, 4)
	assert.Equal(t, uint8(67), notes[0].Key)

	_, err = Timeline("1 2 3 4", WithScore(3))
	assert.Error(t, err)
}

func TestRenderWAV(t *testing.T) {
	wav, err := RenderWAV("4=240 1 2 3 4", WithSampleRate(8000))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("RIFF", string(wav[:4]))
	assert.Equal("WAVE", string(wav[8:12]))
	// Four crotchets at 240 plus the tail, in stereo float32.
	assert.LessOrEqual(len(wav)-44, 3*8000*2*4+1024*2*4)
	assert.Greater(len(wav)-44, 8000*2*4)
}
