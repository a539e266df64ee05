// Package preview plays note timelines through a small built-in synth or a
// SoundFont, live or into WAV data.
package preview

import (
	"sort"
	"time"

	"github.com/cbegin/jianpu-go/internal/midiout"
)

// Source produces interleaved stereo float32 frames.
type Source interface {
	Process(dst []float32)
	// Finished reports that every note has ended and died away.
	Finished() bool
}

const drumChannel = 9

type cue struct {
	frame int64
	on    bool
	span  int
}

// schedule turns note spans into note-on and note-off cues in frame order.
// Note-offs sort first so a repeated key can sound again at once.
func schedule(notes []midiout.NoteSpan, sampleRate int) []cue {
	cues := make([]cue, 0, len(notes)*2)
	for i, n := range notes {
		start, end := toFrame(n.Start, sampleRate), toFrame(n.End, sampleRate)
		if end <= start {
			end = start + 1
		}
		cues = append(cues, cue{start, true, i}, cue{end, false, i})
	}
	sort.SliceStable(cues, func(i, j int) bool {
		if cues[i].frame != cues[j].frame {
			return cues[i].frame < cues[j].frame
		}
		return !cues[i].on && cues[j].on
	})
	return cues
}

func toFrame(d time.Duration, sampleRate int) int64 {
	return (d.Nanoseconds()*int64(sampleRate) + int64(time.Second/2)) / int64(time.Second)
}

// Synth renders a timeline with the built-in voices.
type Synth struct {
	bank  *voiceBank
	notes []midiout.NoteSpan
	waves []waveType
	cues  []cue
	next  int
	frame int64
	ids   map[int]int
	room  *room
}

// NewSynth prepares notes for playback. Chord tones get a pulse voice so
// they stand apart from the triangle melody.
func NewSynth(sampleRate int, notes []midiout.NoteSpan, params Params) *Synth {
	starts := map[uint32]int{}
	for _, n := range notes {
		if n.Channel != drumChannel {
			starts[n.StartTick]++
		}
	}
	waves := make([]waveType, len(notes))
	for i, n := range notes {
		switch {
		case n.Channel == drumChannel:
			waves[i] = waveNoise
		case starts[n.StartTick] > 1:
			waves[i] = wavePulse
		default:
			waves[i] = waveTriangle
		}
	}
	return &Synth{
		bank:  newVoiceBank(sampleRate, params),
		notes: notes,
		waves: waves,
		cues:  schedule(notes, sampleRate),
		ids:   map[int]int{},
		room:  newRoom(sampleRate, params.RoomSize, params.RoomWet),
	}
}

func (s *Synth) Process(dst []float32) {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		for s.next < len(s.cues) && s.cues[s.next].frame <= s.frame {
			c := s.cues[s.next]
			if c.on {
				n := s.notes[c.span]
				s.ids[c.span] = s.bank.noteOn(int(n.Key), int(n.Velocity), s.waves[c.span])
			} else if id, ok := s.ids[c.span]; ok {
				s.bank.noteOff(id)
				delete(s.ids, c.span)
			}
			s.next++
		}
		v := s.bank.renderFrame()
		if s.room != nil {
			dst[2*f], dst[2*f+1] = s.room.process(v)
		} else {
			dst[2*f] = v
			dst[2*f+1] = v
		}
		s.frame++
	}
}

func (s *Synth) Finished() bool {
	return s.next >= len(s.cues) && s.bank.activeVoices() == 0
}

// SetVolume scales the output. 1 is the default level.
func (s *Synth) SetVolume(v float64) {
	s.bank.setMasterGain(s.bank.params.MasterGain * v)
}

// Render pulls a source to the end, or to maxFrames when that is positive,
// and returns interleaved stereo samples.
func Render(src Source, maxFrames int) []float32 {
	const block = 1024
	var out []float32
	buf := make([]float32, block*2)
	for frames := 0; !src.Finished(); frames += block {
		if maxFrames > 0 && frames >= maxFrames {
			break
		}
		src.Process(buf)
		out = append(out, buf...)
	}
	if maxFrames > 0 && len(out) > maxFrames*2 {
		out = out[:maxFrames*2]
	}
	return out
}
