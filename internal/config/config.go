// Package config loads translator settings from defaults, an optional
// config file and the environment.
package config

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/lily"
)

// Config holds everything the translator and its previews can be tuned by.
type Config struct {
	// StaffSize and LyricSize are point sizes. A zero LyricSize follows
	// StaffSize.
	StaffSize      float64 `mapstructure:"staff_size"`
	LyricSize      float64 `mapstructure:"lyric_size"`
	BarNumberEvery int     `mapstructure:"bar_number_every"`
	// LilypondMinor is the minor version of the LilyPond 2.x that will
	// typeset the output.
	LilypondMinor int  `mapstructure:"lilypond_minor"`
	RestHack      bool `mapstructure:"rest_hack"`
	BarlineTies   bool `mapstructure:"barline_ties"`
	SloppyBars    bool `mapstructure:"sloppy_bars"`

	SampleRate int    `mapstructure:"sample_rate"`
	SoundFont  string `mapstructure:"soundfont"`
	Program    int    `mapstructure:"program"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		StaffSize:      20,
		BarNumberEvery: 5,
		LilypondMinor:  22,
		RestHack:       true,
		BarlineTies:    true,
		SampleRate:     44100,
	}
}

// envNames lists the environment variables read for each key, lower-case
// first.
var envNames = map[string][]string{
	"staff_size":       {"j2ly_staff_size", "J2LY_STAFF_SIZE"},
	"lyric_size":       {"j2ly_lyric_size", "J2LY_LYRIC_SIZE"},
	"bar_number_every": {"J2LY_BAR_NUMBER_EVERY"},
	"lilypond_minor":   {"J2LY_LILYPOND_MINOR"},
	"rest_hack":        {"J2LY_REST_HACK"},
	"barline_ties":     {"J2LY_BARLINE_TIES"},
	"sample_rate":      {"J2LY_SAMPLE_RATE"},
	"soundfont":        {"J2LY_SOUNDFONT"},
	"program":          {"J2LY_PROGRAM"},
}

// presenceNames lists boolean keys that any non-empty environment value
// switches on, whatever it says.
var presenceNames = map[string][]string{
	"sloppy_bars": {"j2ly_sloppy_bars", "J2LY_SLOPPY_BARS"},
}

// Load reads the config file at path, if path is not empty, over the
// defaults and applies the environment on top.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("staff_size", def.StaffSize)
	v.SetDefault("lyric_size", def.LyricSize)
	v.SetDefault("bar_number_every", def.BarNumberEvery)
	v.SetDefault("lilypond_minor", def.LilypondMinor)
	v.SetDefault("rest_hack", def.RestHack)
	v.SetDefault("barline_ties", def.BarlineTies)
	v.SetDefault("sloppy_bars", def.SloppyBars)
	v.SetDefault("sample_rate", def.SampleRate)
	v.SetDefault("soundfont", def.SoundFont)
	v.SetDefault("program", def.Program)
	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, errors.Wrapf(err, "binding %s", key)
		}
	}
	for key, names := range presenceNames {
		for _, name := range names {
			if os.Getenv(name) != "" {
				v.Set(key, true)
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the translator cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.StaffSize <= 0:
		return errors.Errorf("staff size must be positive, got %g", c.StaffSize)
	case c.LyricSize < 0:
		return errors.Errorf("lyric size must not be negative, got %g", c.LyricSize)
	case c.LilypondMinor < 20:
		return errors.New("Lilypond 2.18 and below is no longer supported")
	case c.BarNumberEvery <= 0:
		return errors.Errorf("bar number interval must be positive, got %d", c.BarNumberEvery)
	case c.SampleRate <= 0:
		return errors.Errorf("sample rate must be positive, got %d", c.SampleRate)
	case c.Program < 0 || c.Program > 127:
		return errors.Errorf("program must be 0 to 127, got %d", c.Program)
	}
	return nil
}

// Lyrics returns the lyric point size.
func (c *Config) Lyrics() float64 {
	if c.LyricSize == 0 {
		return c.StaffSize
	}
	return c.LyricSize
}

// EngineOptions returns compile options for one pass of one part.
func (c *Config) EngineOptions(pass engine.Pass, logger *log.Logger) engine.Options {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return engine.Options{
		Pass:          pass,
		Score:         1,
		RestHack:      c.RestHack,
		Policy:        engine.Policy{BarlineTies: c.BarlineTies},
		SloppyBars:    c.SloppyBars,
		LilypondMinor: c.LilypondMinor,
		Logger:        logger,
	}
}

// RenderOptions returns markup options sharing namer across a document.
func (c *Config) RenderOptions(namer *lily.Namer, graceHeight float64) lily.Options {
	return lily.Options{
		LilypondMinor: c.LilypondMinor,
		GraceHeight:   graceHeight,
		Namer:         namer,
	}
}
