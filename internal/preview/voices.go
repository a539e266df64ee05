package preview

import (
	"math"
	"sync/atomic"
)

const twoPi = math.Pi * 2

// Params shapes the built-in synth voices.
type Params struct {
	Voices      int
	MasterGain  float64
	AttackSec   float64
	DecaySec    float64
	SustainLvl  float64
	ReleaseSec  float64
	PulseDuty   float64
	VelocityAmp float64
	LPFCutoff   float64 // lowpass filter cutoff in Hz (0 = disabled)
	// RoomSize (0..1) and RoomWet (0..1) set the reverb. A zero RoomWet
	// plays dry.
	RoomSize float64
	RoomWet  float64
}

func DefaultParams() Params {
	return Params{
		Voices:      16,
		MasterGain:  0.25,
		AttackSec:   0.005,
		DecaySec:    0.15,
		SustainLvl:  0.65,
		ReleaseSec:  0.12,
		PulseDuty:   0.25,
		VelocityAmp: 0.85,
		LPFCutoff:   9000,
		RoomSize:    0.6,
		RoomWet:     0.18,
	}
}

type waveType int

const (
	waveTriangle waveType = iota
	wavePulse
	waveNoise
)

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type voice struct {
	active    bool
	id        int
	age       int
	wave      waveType
	freq      float64
	phase     float64
	velocity  float64
	env       float64
	envState  envState
	noiseLFSR uint16
}

// voiceBank is a small polyphonic synth: triangle melody voices, pulse
// voices for chord tones and noise for percussion.
type voiceBank struct {
	sampleRate float64
	params     Params
	voices     []voice
	nextID     int
	masterGain uint64
	dcPrevIn   float64
	dcPrevOut  float64
	lpf        float64
	lpfAlpha   float64
}

func newVoiceBank(sampleRate int, params Params) *voiceBank {
	if params.Voices <= 0 {
		params.Voices = 16
	}
	b := &voiceBank{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
		masterGain: math.Float64bits(params.MasterGain),
	}
	for i := range b.voices {
		b.voices[i].noiseLFSR = uint16(0xACE1 + i*97)
	}
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (twoPi * params.LPFCutoff)
		dt := 1.0 / float64(sampleRate)
		b.lpfAlpha = dt / (rc + dt)
	}
	return b
}

func (b *voiceBank) noteOn(key, velocity int, wave waveType) int {
	slot := b.stealVoice()
	id := b.nextID
	b.nextID++
	v := &b.voices[slot]
	v.active = true
	v.id = id
	v.age = 0
	v.wave = wave
	v.freq = midiToFreq(key)
	v.phase = 0
	v.velocity = clamp(float64(velocity)/127.0, 0, 1)
	v.env = 0
	v.envState = envAttack
	if v.noiseLFSR == 0 {
		v.noiseLFSR = 0xACE1
	}
	return id
}

func (b *voiceBank) noteOff(id int) {
	for i := range b.voices {
		v := &b.voices[i]
		if v.active && v.id == id && v.envState != envRelease {
			v.envState = envRelease
		}
	}
}

// renderFrame returns one mono sample.
func (b *voiceBank) renderFrame() float32 {
	var out float64
	gain := math.Float64frombits(atomic.LoadUint64(&b.masterGain))
	for i := range b.voices {
		v := &b.voices[i]
		if !v.active {
			continue
		}
		v.age++
		env := b.advanceEnv(v)
		if !v.active {
			continue
		}
		out += b.renderWave(v) * env * (0.15 + v.velocity*b.params.VelocityAmp) * gain
	}
	out = b.dcBlock(out)
	if b.lpfAlpha > 0 {
		b.lpf += b.lpfAlpha * (out - b.lpf)
		out = b.lpf
	}
	return float32(clamp(out, -1, 1))
}

func (b *voiceBank) dcBlock(x float64) float64 {
	const r = 0.995
	y := x - b.dcPrevIn + r*b.dcPrevOut
	b.dcPrevIn = x
	b.dcPrevOut = y
	return y
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (b *voiceBank) renderWave(v *voice) float64 {
	dt := v.freq / b.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	switch v.wave {
	case wavePulse:
		out := -1.0
		if v.phase < b.params.PulseDuty {
			out = 1
		}
		out += polyBLEP(v.phase, dt)
		out -= polyBLEP(math.Mod(v.phase-b.params.PulseDuty+1, 1), dt)
		return out * 0.5
	case waveNoise:
		if v.phase < dt {
			bit := (v.noiseLFSR ^ (v.noiseLFSR >> 1)) & 1
			v.noiseLFSR = (v.noiseLFSR >> 1) | (bit << 15)
		}
		if v.noiseLFSR&1 == 1 {
			return 1
		}
		return -1
	}
	return 2*math.Abs(2*v.phase-1) - 1
}

func (b *voiceBank) stealVoice() int {
	for i := range b.voices {
		if !b.voices[i].active {
			return i
		}
	}
	// Steal the oldest releasing voice, or failing that the oldest voice.
	oldestRelease, oldestReleaseAge := -1, -1
	oldest, oldestAge := 0, -1
	for i := range b.voices {
		v := &b.voices[i]
		if v.envState == envRelease && v.age > oldestReleaseAge {
			oldestRelease, oldestReleaseAge = i, v.age
		}
		if v.age > oldestAge {
			oldest, oldestAge = i, v.age
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldest
}

func (b *voiceBank) advanceEnv(v *voice) float64 {
	p := b.params
	switch v.envState {
	case envAttack:
		v.env += rate(1, p.AttackSec, b.sampleRate)
		if v.env >= 1 {
			v.env = 1
			v.envState = envDecay
		}
	case envDecay:
		v.env -= rate(1-p.SustainLvl, p.DecaySec, b.sampleRate)
		if v.env <= p.SustainLvl {
			v.env = p.SustainLvl
			v.envState = envSustain
		}
	case envRelease:
		v.env -= rate(p.SustainLvl, p.ReleaseSec, b.sampleRate)
		if v.env <= 0.0001 {
			v.env = 0
			v.envState = envOff
			v.active = false
		}
	case envOff:
		v.active = false
		v.env = 0
	}
	return v.env
}

func rate(span, sec, sampleRate float64) float64 {
	step := span / (sec * sampleRate)
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return 1
	}
	return step
}

func (b *voiceBank) setMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&b.masterGain, math.Float64bits(gain))
}

func (b *voiceBank) activeVoices() int {
	n := 0
	for i := range b.voices {
		if b.voices[i].active {
			n++
		}
	}
	return n
}

func midiToFreq(key int) float64 {
	return 440 * math.Pow(2, float64(key-69)/12)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
