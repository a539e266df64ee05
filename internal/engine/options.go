package engine

import (
	"io"
	"log"
)

// Policy holds behaviour that depends on what the typesetting backend can do.
type Policy struct {
	// BarlineTies re-encodes a dash that starts a bar as a new note tied
	// to the previous one, since LilyPond cannot draw the jianpu tie
	// across the barline otherwise. It needs LilyPond 2.20 or later.
	BarlineTies bool
}

// Options configures one compile of one part.
type Options struct {
	Pass  Pass
	Score int
	// HasLyrics enables temporary voices for rests, so lyrics skip them.
	HasLyrics bool
	RestHack  bool
	Policy    Policy
	// SloppyBars downgrades a wrong final bar length to a warning.
	SloppyBars    bool
	LilypondMinor int
	// NotAngka carries the not-angka style over from an earlier part of
	// the same score.
	NotAngka bool
	Logger   *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Pass:          PassJianpu,
		Score:         1,
		RestHack:      true,
		Policy:        Policy{BarlineTies: true},
		LilypondMinor: 22,
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}
