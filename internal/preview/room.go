package preview

import "math"

// room puts the dry synth in a small hall and keeps chords from clipping:
// a Schroeder reverb (four combs, two allpasses) into a peak limiter.
type room struct {
	combs   [4]delayLine
	allpass [2]delayLine
	wet     float32

	threshold, ratio float32
	attack, release  float32
	env              float32
}

type delayLine struct {
	buf []float32
	pos int
	fb  float32
}

func (d *delayLine) comb(in float32) float32 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in + out*d.fb
	d.pos = (d.pos + 1) % len(d.buf)
	return out
}

func (d *delayLine) diffuse(in float32) float32 {
	held := d.buf[d.pos]
	d.buf[d.pos] = in + held*d.fb
	d.pos = (d.pos + 1) % len(d.buf)
	return held - in
}

// newRoom returns nil when wet is zero, which leaves the signal dry.
func newRoom(sampleRate int, size, wet float64) *room {
	if wet <= 0 {
		return nil
	}
	base := max(10, int(float64(sampleRate)*size*0.05))
	r := &room{wet: float32(clamp(wet, 0, 1))}
	for i, ratio := range [4]int{1000, 1117, 1271, 1437} {
		r.combs[i] = delayLine{buf: make([]float32, base*ratio/1000), fb: 0.78}
	}
	for i, ratio := range [2]int{347, 213} {
		r.allpass[i] = delayLine{buf: make([]float32, max(1, base*ratio/1000)), fb: 0.5}
	}
	sr := float64(sampleRate)
	r.threshold = float32(math.Pow(10, -6.0/20))
	r.ratio = 8
	r.attack = float32(1 - math.Exp(-1/(0.002*sr)))
	r.release = float32(1 - math.Exp(-1/(0.120*sr)))
	return r
}

func (r *room) process(dry float32) (float32, float32) {
	var tail float32
	for i := range r.combs {
		tail += r.combs[i].comb(dry)
	}
	tail *= 0.25
	for i := range r.allpass {
		tail = r.allpass[i].diffuse(tail)
	}
	// Spread the tail slightly so the two channels differ.
	l := dry*(1-r.wet) + tail*r.wet
	rt := dry*(1-r.wet) + r.allpass[0].buf[r.allpass[0].pos]*r.wet*0.5 + tail*r.wet*0.5
	g := r.gain(max(abs32(l), abs32(rt)))
	return l * g, rt * g
}

func (r *room) gain(peak float32) float32 {
	if peak > r.env {
		r.env += r.attack * (peak - r.env)
	} else {
		r.env += r.release * (peak - r.env)
	}
	if r.env <= r.threshold {
		return 1
	}
	return float32(math.Pow(float64(r.env/r.threshold), float64(1/r.ratio-1)))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
