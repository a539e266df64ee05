package jianpu

import (
	"time"

	"github.com/pkg/errors"

	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/midiout"
	"github.com/cbegin/jianpu-go/internal/preview"
)

// previewTail is rendered past the last note so releases can ring out.
const previewTail = 2 * time.Second

// compileScores compiles every part of every score for the MIDI pass.
func compileScores(text string, s *settings) ([][]*engine.Part, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if IsUnicode(text) {
		text = unicodeRe.ReplaceAllString(" "+text+" ", " ")
	}
	var scores [][]*engine.Part
	for i, score := range splitScores(text) {
		headers := map[string]string{}
		notAngka := false
		var parts []*engine.Part
		for _, p := range splitParts(score) {
			eo := s.cfg.EngineOptions(engine.PassMIDI, s.logger)
			eo.Score = i + 1
			eo.NotAngka = notAngka
			part, err := engine.Compile(p, headers, eo)
			if err != nil {
				return nil, errors.Wrapf(err, "score %d", i+1)
			}
			notAngka = part.Layout.NotAngka
			delete(part.Headers, "instrument")
			parts = append(parts, part)
		}
		scores = append(scores, parts)
	}
	if len(scores) == 0 {
		return nil, errors.New("no jianpu in input")
	}
	return scores, nil
}

// MIDIFiles writes one Standard MIDI File per score with a track per
// part. A score marked PartMidi that has several parts is followed by one
// file per part.
func MIDIFiles(text string, opts ...Option) ([][]byte, error) {
	s := newSettings(opts)
	scores, err := compileScores(text, s)
	if err != nil {
		return nil, err
	}
	var files [][]byte
	for i, parts := range scores {
		data, err := midiout.Write(parts...)
		if err != nil {
			return nil, errors.Wrapf(err, "score %d", i+1)
		}
		files = append(files, data)
		if len(parts) < 2 || !partMidiRe.MatchString(" "+splitScores(text)[i]+" ") {
			continue
		}
		for j, p := range parts {
			data, err := midiout.Write(p)
			if err != nil {
				return nil, errors.Wrapf(err, "score %d part %d", i+1, j+1)
			}
			files = append(files, data)
		}
	}
	return files, nil
}

// Timeline lays out the notes of the selected score.
func Timeline(text string, opts ...Option) ([]midiout.NoteSpan, error) {
	s := newSettings(opts)
	return s.timeline(text)
}

func (s *settings) timeline(text string) ([]midiout.NoteSpan, error) {
	scores, err := compileScores(text, s)
	if err != nil {
		return nil, err
	}
	if s.score < 1 || s.score > len(scores) {
		return nil, errors.Errorf("score %d requested but the input has %d", s.score, len(scores))
	}
	return midiout.Timeline(scores[s.score-1]...), nil
}

func (s *settings) source(notes []midiout.NoteSpan) (preview.Source, error) {
	if s.soundFont != nil {
		syn, err := preview.NewSoundFontSynth(s.soundFont, s.cfg.SampleRate, notes, s.cfg.Program)
		if err != nil {
			return nil, err
		}
		return syn, nil
	}
	return preview.NewSynth(s.cfg.SampleRate, notes, preview.DefaultParams()), nil
}

// RenderWAV renders the selected score to a 32-bit float stereo WAV file.
func RenderWAV(text string, opts ...Option) ([]byte, error) {
	s := newSettings(opts)
	notes, err := s.timeline(text)
	if err != nil {
		return nil, err
	}
	src, err := s.source(notes)
	if err != nil {
		return nil, err
	}
	var end time.Duration
	for _, n := range notes {
		end = max(end, n.End)
	}
	frames := int((end + previewTail).Seconds() * float64(s.cfg.SampleRate))
	return preview.EncodeWAV(preview.Render(src, frames), s.cfg.SampleRate, 2), nil
}

// Player plays a score on the default audio device.
type Player struct {
	audio  *preview.Player
	length time.Duration
}

// NewPlayer prepares the selected score for playback. Call Play to start.
func NewPlayer(text string, opts ...Option) (*Player, error) {
	s := newSettings(opts)
	notes, err := s.timeline(text)
	if err != nil {
		return nil, err
	}
	src, err := s.source(notes)
	if err != nil {
		return nil, err
	}
	pl, err := preview.NewPlayer(s.cfg.SampleRate, src)
	if err != nil {
		return nil, err
	}
	var end time.Duration
	for _, n := range notes {
		end = max(end, n.End)
	}
	return &Player{audio: pl, length: end}, nil
}

func (p *Player) Play()  { p.audio.Play() }
func (p *Player) Pause() { p.audio.Pause() }

// Length is when the last note stops.
func (p *Player) Length() time.Duration { return p.length }

// Position returns what the listener is hearing now.
func (p *Player) Position() time.Duration { return p.audio.Position() }

// Wait blocks until playback ends.
func (p *Player) Wait() { p.audio.Wait(50 * time.Millisecond) }

func (p *Player) Stop() error { return p.audio.Stop() }
