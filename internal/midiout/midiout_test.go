package midiout

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/jianpu-go/internal/engine"
)

func compileMIDI(t *testing.T, text string) *engine.Part {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Pass = engine.PassMIDI
	p, err := engine.Compile(text, nil, opts)
	require.NoError(t, err)
	return p
}

func keysOf(notes []NoteSpan) []uint8 {
	out := make([]uint8, len(notes))
	for i, n := range notes {
		out[i] = n.Key
	}
	return out
}

func TestDashesExtendNotes(t *testing.T) {
	seq := Build(compileMIDI(t, "4=120 1=D 1 - 2 3"))
	require.Len(t, seq.Notes, 3)

	assert := assert.New(t)
	assert.Equal([]uint8{62, 64, 66}, keysOf(seq.Notes))
	assert.Equal(uint32(0), seq.Notes[0].StartTick)
	assert.Equal(uint32(2*PPQ), seq.Notes[0].EndTick)
	assert.Equal(time.Second, seq.Notes[1].Start)
	assert.Equal(uint32(4*PPQ), seq.Ticks)
	assert.Equal(2*time.Second, seq.Length)
}

func TestRepeatsUnfold(t *testing.T) {
	seq := Build(compileMIDI(t, "R{ 1 2 3 4 } A{ 5 5 5 5 | 6 6 6 6 }"))
	require.Len(t, seq.Notes, 16)
	assert.Equal(t, []uint8{
		60, 62, 64, 65, 67, 67, 67, 67,
		60, 62, 64, 65, 69, 69, 69, 69,
	}, keysOf(seq.Notes))
}

func TestPercentRepeatUnfolds(t *testing.T) {
	seq := Build(compileMIDI(t, "R3{ 1 1 1 1 }"))
	assert.Len(t, seq.Notes, 12)
	assert.Equal(t, uint32(12*PPQ), seq.Ticks)
}

func TestChordSoundsAllNotes(t *testing.T) {
	seq := Build(compileMIDI(t, "135 - - -"))
	require.Len(t, seq.Notes, 3)
	for _, n := range seq.Notes {
		if n.EndTick != 4*PPQ {
			t.Fatalf("expected chord note to last the bar, got %+v", n)
		}
	}
	assert.ElementsMatch(t, []uint8{60, 64, 67}, keysOf(seq.Notes))
}

func TestRestsAdvanceTime(t *testing.T) {
	seq := Build(compileMIDI(t, "0 1 0 - "))
	require.Len(t, seq.Notes, 1)
	assert.Equal(t, uint32(PPQ), seq.Notes[0].StartTick)
	assert.Equal(t, uint32(4*PPQ), seq.Ticks)
}

func TestKeyShift(t *testing.T) {
	cases := []struct {
		key  engine.Key
		want int
	}{
		{engine.Key{Degree: 1, Tonic: "C"}, 0},
		{engine.Key{Degree: 1, Tonic: "D"}, 2},
		{engine.Key{Degree: 1, Tonic: "G"}, -5},
		{engine.Key{Degree: 1, Tonic: "Bb"}, -2},
		{engine.Key{Degree: 1, Tonic: "F#"}, 6},
		{engine.Key{Degree: 6, Tonic: "A"}, -12},
		{engine.Key{Degree: 6, Tonic: "E"}, -5},
	}
	for _, tc := range cases {
		if got := keyShift(tc.key); got != tc.want {
			t.Fatalf("keyShift(%+v) = %d, want %d", tc.key, got, tc.want)
		}
	}
}

func TestParseTempo(t *testing.T) {
	assert := assert.New(t)
	q, ok := parseTempo("4=85")
	assert.True(ok)
	assert.Equal(85.0, q)
	q, _ = parseTempo("4.=60")
	assert.Equal(90.0, q)
	q, _ = parseTempo("8=120")
	assert.Equal(60.0, q)
	_, ok = parseTempo("fast")
	assert.False(ok)
}

func TestWriteRoundTrip(t *testing.T) {
	data, err := Write(compileMIDI(t, "4=120 1 2 3 4"), compileMIDI(t, "5 - - -"))
	require.NoError(t, err)

	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 2)

	var bpm float64
	var ons []uint8
	for _, ev := range s.Tracks[0] {
		var ch, key, vel uint8
		var b float64
		switch {
		case ev.Message.GetMetaTempo(&b):
			bpm = b
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			ons = append(ons, key)
		}
	}
	assert := assert.New(t)
	assert.InDelta(120.0, bpm, 0.01)
	assert.Equal([]uint8{60, 62, 64, 65}, ons)
	assert.Equal(smf.MetricTicks(PPQ), s.TimeFormat)
}
