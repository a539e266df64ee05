package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/lily"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 20.0, cfg.Lyrics())
}

func TestLowerCaseEnvironment(t *testing.T) {
	t.Setenv("j2ly_staff_size", "18")
	t.Setenv("j2ly_lyric_size", "22.5")
	t.Setenv("j2ly_sloppy_bars", "true")
	cfg, err := Load("")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(18.0, cfg.StaffSize)
	assert.Equal(22.5, cfg.Lyrics())
	assert.True(cfg.SloppyBars)
}

func TestSloppyBarsAnyValue(t *testing.T) {
	for _, v := range []string{"0", "false", "yes"} {
		t.Setenv("j2ly_sloppy_bars", v)
		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.SloppyBars, v)
	}
	t.Setenv("j2ly_sloppy_bars", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.SloppyBars)
}

func TestOldLilypondRejected(t *testing.T) {
	t.Setenv("J2LY_LILYPOND_MINOR", "18")
	_, err := Load("")
	assert.Error(t, err)
}

func TestUpperCaseEnvironment(t *testing.T) {
	t.Setenv("J2LY_BARLINE_TIES", "false")
	t.Setenv("J2LY_LILYPOND_MINOR", "24")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.BarlineTies)
	assert.Equal(t, 24, cfg.LilypondMinor)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jianpu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("staff_size: 16\nrest_hack: false\nprogram: 24\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(16.0, cfg.StaffSize)
	assert.False(cfg.RestHack)
	assert.Equal(24, cfg.Program)
	assert.Equal(5, cfg.BarNumberEvery)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LilypondMinor = 18
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.18 and below")

	cfg.LilypondMinor = 20
	assert.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Program = 128
	assert.Error(t, cfg.Validate())
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BarlineTies = false
	opts := cfg.EngineOptions(engine.PassWestern, nil)

	assert := assert.New(t)
	assert.Equal(engine.PassWestern, opts.Pass)
	assert.False(opts.Policy.BarlineTies)
	assert.True(opts.RestHack)
	assert.NotNil(opts.Logger)

	cfg = DefaultConfig()
	assert.True(cfg.EngineOptions(engine.PassJianpu, nil).Policy.BarlineTies)

	nm := &lily.Namer{}
	ro := cfg.RenderOptions(nm, 3.5)
	assert.Same(nm, ro.Namer)
	assert.Equal(3.5, ro.GraceHeight)
	assert.Equal(22, ro.LilypondMinor)
}
