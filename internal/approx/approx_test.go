package approx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/jianpu-go/internal/engine"
)

func render(t *testing.T, text string) string {
	t.Helper()
	p, err := engine.Compile(text, nil, engine.DefaultOptions())
	require.NoError(t, err)
	return Render(p)
}

func TestBeamsRunTogether(t *testing.T) {
	assert.Equal(t, "1=B♭ 1\u03322\u0332 3 4 5║", render(t, "1=Bb q1 q2 3 4 5"))
}

func TestDotsAndBars(t *testing.T) {
	assert.Equal(t, "1. 2. 3│1 - - -║", render(t, "1. 2. 3 1 - - -"))
}

func TestOctaveAndAccidentalMarks(t *testing.T) {
	assert.Equal(t, "1\u0307 ♯2\u0323 0 6║", render(t, "1' #2, 0 6"))
}

func TestKeyText(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("6=F♯", keyText("6=F#"))
	assert.Equal("1=E♭", keyText("1=Eb"))
	assert.Equal("1=C", keyText("1=C"))
}

func TestContinuationDrawnAsDash(t *testing.T) {
	n := &engine.Note{Figures: "1", Continuation: true, Octave: 1, Beams: 1, InBeam: true}
	assert.Equal(t, "-\u0332", noteText(n))
}
