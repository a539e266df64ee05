package jianpu

import (
	"io"
	"log"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/cbegin/jianpu-go/internal/config"
)

// Option tunes a conversion.
type Option func(*settings)

type settings struct {
	cfg       config.Config
	logger    *log.Logger
	soundFont *meltysynth.SoundFont
	score     int
}

func newSettings(opts []Option) *settings {
	s := &settings{cfg: *config.DefaultConfig(), score: 1}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// FromConfig replaces every setting with those loaded from a config.
func FromConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.cfg = *cfg
	}
}

// WithLogger receives warnings such as ignored bar length errors.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithLilypondMinor sets the LilyPond 2.x minor version the output targets.
func WithLilypondMinor(minor int) Option {
	return func(s *settings) {
		s.cfg.LilypondMinor = minor
	}
}

// WithBarlineTies toggles re-encoding a dash that starts a bar as a tied
// note.
func WithBarlineTies(enabled bool) Option {
	return func(s *settings) {
		s.cfg.BarlineTies = enabled
	}
}

// WithRestHack toggles drawing beamed rests as hidden notes so beams run
// over them.
func WithRestHack(enabled bool) Option {
	return func(s *settings) {
		s.cfg.RestHack = enabled
	}
}

// WithSloppyBars turns a wrong final bar length into a warning.
func WithSloppyBars(enabled bool) Option {
	return func(s *settings) {
		s.cfg.SloppyBars = enabled
	}
}

func WithStaffSize(points float64) Option {
	return func(s *settings) {
		s.cfg.StaffSize = points
	}
}

func WithLyricSize(points float64) Option {
	return func(s *settings) {
		s.cfg.LyricSize = points
	}
}

// WithSampleRate sets the rate audio previews are rendered at.
func WithSampleRate(rate int) Option {
	return func(s *settings) {
		s.cfg.SampleRate = rate
	}
}

// WithSoundFont renders audio previews through a SoundFont instead of the
// built-in voices, using the given General MIDI program.
func WithSoundFont(sf *meltysynth.SoundFont, program int) Option {
	return func(s *settings) {
		s.soundFont = sf
		s.cfg.Program = program
	}
}

// WithScore picks which score, counting from 1, audio previews play.
func WithScore(n int) Option {
	return func(s *settings) {
		s.score = n
	}
}
