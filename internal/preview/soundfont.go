package preview

import (
	"io"

	"github.com/pkg/errors"
	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/cbegin/jianpu-go/internal/midiout"
)

// synthesizer is the subset of meltysynth.Synthesizer the SoundFont source
// drives.
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

// SoundFontSynth renders a timeline through a General MIDI SoundFont.
type SoundFontSynth struct {
	syn         synthesizer
	notes       []midiout.NoteSpan
	cues        []cue
	next        int
	frame       int64
	tail        int64
	left, right []float32
}

// LoadSoundFont reads an SF2 file.
func LoadSoundFont(r io.Reader) (*meltysynth.SoundFont, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading soundfont")
	}
	return sf, nil
}

// NewSoundFontSynth plays notes with a General MIDI program on every
// melodic channel.
func NewSoundFontSynth(sf *meltysynth.SoundFont, sampleRate int, notes []midiout.NoteSpan, program int) (*SoundFontSynth, error) {
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	syn, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, errors.Wrap(err, "creating synthesizer")
	}
	return newSoundFontSynth(syn, sampleRate, notes, program), nil
}

func newSoundFontSynth(syn synthesizer, sampleRate int, notes []midiout.NoteSpan, program int) *SoundFontSynth {
	for ch := int32(0); ch < 16; ch++ {
		if ch != drumChannel {
			syn.ProcessMidiMessage(ch, 0xC0, int32(program), 0)
		}
	}
	return &SoundFontSynth{
		syn:   syn,
		notes: notes,
		cues:  schedule(notes, sampleRate),
		// Leave a second for reverb and release tails.
		tail: int64(sampleRate),
	}
}

func (s *SoundFontSynth) Process(dst []float32) {
	frames := len(dst) / 2
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	left, right := s.left[:frames], s.right[:frames]
	done := 0
	for done < frames {
		for s.next < len(s.cues) && s.cues[s.next].frame <= s.frame {
			c := s.cues[s.next]
			n := s.notes[c.span]
			if c.on {
				s.syn.NoteOn(int32(n.Channel), int32(n.Key), int32(n.Velocity))
			} else {
				s.syn.NoteOff(int32(n.Channel), int32(n.Key))
			}
			s.next++
		}
		run := frames - done
		if s.next < len(s.cues) {
			if until := int(s.cues[s.next].frame - s.frame); until < run {
				run = until
			}
		}
		s.syn.Render(left[done:done+run], right[done:done+run])
		done += run
		s.frame += int64(run)
	}
	for i := 0; i < frames; i++ {
		dst[2*i] = left[i]
		dst[2*i+1] = right[i]
	}
	if s.next >= len(s.cues) {
		s.tail -= int64(frames)
	}
}

func (s *SoundFontSynth) Finished() bool {
	return s.next >= len(s.cues) && s.tail <= 0
}
