// Package midiout writes compiled parts as Standard MIDI Files and as note
// timelines for audio preview.
package midiout

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/jianpu-go/internal/engine"
	"github.com/cbegin/jianpu-go/internal/notation"
)

const (
	// PPQ is the resolution of written files, in ticks per crotchet.
	PPQ = 960
	// A unit is a 64th note.
	ticksPerUnit = PPQ / 16

	defaultQPM     = 84.0
	velocity       = 90
	drumChannel    = 9
	drumKey        = 37
	middleC        = 60
	lilyBaseOctave = 48
)

// NoteSpan is one sounding note.
type NoteSpan struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
	// StartTick and EndTick are at PPQ resolution.
	StartTick uint32
	EndTick   uint32
	Start     time.Duration
	End       time.Duration
}

// TempoChange sets crotchets per minute from Tick on.
type TempoChange struct {
	Tick uint32
	QPM  float64
}

type MeterChange struct {
	Tick     uint32
	Num, Den uint8
}

// Sequence is a part laid out in time with its repeats unfolded.
type Sequence struct {
	Notes  []NoteSpan
	Tempos []TempoChange
	Meters []MeterChange
	// Ticks and Length are where the last note or rest ends.
	Ticks  uint32
	Length time.Duration
}

// Timeline lays out parts that play together and returns their notes in
// start order.
func Timeline(parts ...*engine.Part) []NoteSpan {
	var out []NoteSpan
	for _, p := range parts {
		out = append(out, Build(p).Notes...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTick < out[j].StartTick })
	return out
}

// Build lays out one part compiled for the MIDI pass.
func Build(part *engine.Part) *Sequence {
	w := &walker{seq: &Sequence{}, qpm: defaultQPM, barUnits: 64}
	w.play(parse(part.Events))
	w.seq.Ticks = w.tick
	w.seq.Length = w.clock
	return w.seq
}

// Write encodes parts as a format 1 file with one track per part.
func Write(parts ...*engine.Part) ([]byte, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(PPQ)
	for i, p := range parts {
		tr := track(Build(p), i)
		if err := s.Add(tr); err != nil {
			return nil, errors.Wrapf(err, "adding track %d", i+1)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "writing midi file")
	}
	return buf.Bytes(), nil
}

type timedMsg struct {
	tick  uint32
	order int
	msg   []byte
}

func track(seq *Sequence, index int) smf.Track {
	var msgs []timedMsg
	if index == 0 {
		for _, t := range seq.Tempos {
			msgs = append(msgs, timedMsg{t.Tick, 0, smf.MetaTempo(t.QPM)})
		}
		for _, m := range seq.Meters {
			msgs = append(msgs, timedMsg{m.Tick, 0, smf.MetaMeter(m.Num, m.Den)})
		}
	}
	for _, n := range seq.Notes {
		msgs = append(msgs,
			timedMsg{n.StartTick, 2, midi.NoteOn(n.Channel, n.Key, n.Velocity)},
			timedMsg{n.EndTick, 1, midi.NoteOff(n.Channel, n.Key)})
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].order < msgs[j].order
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("Part "+strconv.Itoa(index+1)))
	var last uint32
	for _, m := range msgs {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}
	end := uint32(0)
	if seq.Ticks > last {
		end = seq.Ticks - last
	}
	tr.Close(end)
	return tr
}

// node is an event or a repeat block with its alternatives.
type node struct {
	ev  *engine.Event
	rep *repeatNode
}

type repeatNode struct {
	times int
	body  []node
	alts  [][]node
}

func parse(events []engine.Event) []node {
	var out []node
	i := 0
	for i < len(events) {
		var seq []node
		seq, i = parseSeq(events, i)
		out = append(out, seq...)
		i++
	}
	return out
}

// parseSeq reads nodes up to the block close or alternative separator that
// ends the current level and returns the index of that event.
func parseSeq(events []engine.Event, i int) ([]node, int) {
	var out []node
	for i < len(events) {
		e := &events[i]
		switch e.Type {
		case engine.EventBlockClose, engine.EventAlternativeNext:
			return out, i
		case engine.EventRepeatOpen:
			r := &repeatNode{times: e.Num}
			r.body, i = parseSeq(events, i+1)
			i++
			if i < len(events) && events[i].Type == engine.EventAlternativeOpen {
				i++
				for {
					var alt []node
					alt, i = parseSeq(events, i)
					r.alts = append(r.alts, alt)
					if i >= len(events) || events[i].Type != engine.EventAlternativeNext {
						i++
						break
					}
					i++
				}
			}
			out = append(out, node{rep: r})
		default:
			out = append(out, node{ev: e})
			i++
		}
	}
	return out, i
}

type walker struct {
	seq      *Sequence
	tick     uint32
	pos      engine.Units
	clock    time.Duration
	qpm      float64
	shift    int
	barUnits int64
	// sounding holds the notes of the previous chord or note, extended by
	// continuations and ties.
	sounding []int
	tied     bool
}

func (w *walker) play(nodes []node) {
	for _, n := range nodes {
		if n.rep == nil {
			w.event(n.ev)
			continue
		}
		r := n.rep
		for pass := 0; pass < r.times; pass++ {
			w.play(r.body)
			if len(r.alts) == 0 {
				continue
			}
			alt := pass - (r.times - len(r.alts))
			if alt < 0 {
				alt = 0
			}
			w.play(r.alts[alt])
		}
	}
}

func (w *walker) event(e *engine.Event) {
	switch e.Type {
	case engine.EventTempo:
		if qpm, ok := parseTempo(e.Text); ok {
			w.qpm = qpm
			w.seq.Tempos = append(w.seq.Tempos, TempoChange{w.tick, qpm})
		}
	case engine.EventTime:
		w.barUnits = int64(64 * e.Num / e.Den)
		w.seq.Meters = append(w.seq.Meters, MeterChange{w.tick, uint8(e.Num), uint8(e.Den)})
	case engine.EventKey:
		w.shift = keyShift(e.Key)
	case engine.EventMultiRest:
		w.sounding = nil
		w.advance(engine.U(w.barUnits * int64(e.Num)))
	case engine.EventNote:
		w.note(e.Note)
	}
}

func (w *walker) advance(u engine.Units) {
	w.pos = w.pos.Add(u)
	end := uint32(w.pos.Scale(ticksPerUnit, 1).Float() + 0.5)
	w.clock += time.Duration(float64(end-w.tick) / PPQ * 60 / w.qpm * float64(time.Second))
	w.tick = end
}

func (w *walker) note(n *engine.Note) {
	startTick, startClock := w.tick, w.clock
	keys := w.keys(n)
	extend := len(w.sounding) > 0 && (n.Continuation || (w.tied && sameKeys(w.seq.Notes, w.sounding, keys)))
	w.advance(n.Duration)
	w.tied = hasTie(n)

	switch {
	case extend:
		for _, i := range w.sounding {
			w.seq.Notes[i].EndTick = w.tick
			w.seq.Notes[i].End = w.clock
		}
	case n.IsRest() || n.IsDash():
		w.sounding = nil
	default:
		w.sounding = w.sounding[:0]
		ch := uint8(0)
		if n.Percussion {
			ch = drumChannel
		}
		for _, k := range keys {
			w.sounding = append(w.sounding, len(w.seq.Notes))
			w.seq.Notes = append(w.seq.Notes, NoteSpan{
				Channel:   ch,
				Key:       k,
				Velocity:  velocity,
				StartTick: startTick,
				EndTick:   w.tick,
				Start:     startClock,
				End:       w.clock,
			})
		}
	}
}

func hasTie(n *engine.Note) bool {
	for _, a := range n.After {
		if a == engine.AttachTie {
			return true
		}
	}
	return false
}

func sameKeys(notes []NoteSpan, idx []int, keys []uint8) bool {
	if len(idx) != len(keys) {
		return false
	}
	for i, k := range keys {
		if notes[idx[i]].Key != k {
			return false
		}
	}
	return true
}

// keys returns the MIDI keys a note sounds.
func (w *walker) keys(n *engine.Note) []uint8 {
	if n.Percussion {
		return []uint8{drumKey}
	}
	if n.IsChord() {
		out := make([]uint8, 0, len(n.Chord))
		for _, c := range n.Chord {
			out = append(out, w.key(notation.Placeholders[c.Figure], c.Accidental, c.Octave))
		}
		return out
	}
	return []uint8{w.key(n.Placeholder, n.Accidental, n.Octave)}
}

var semitones = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

func (w *walker) key(letter byte, acc notation.Accidental, o notation.Octave) uint8 {
	k := middleC + semitones[letter] + 12*int(o) + w.shift
	switch acc {
	case notation.Sharp:
		k++
	case notation.Flat:
		k--
	}
	return uint8(max(0, min(127, k)))
}

// keyShift is the interval the key transposes by: from c (or a for keys
// naming degree 6) to the tonic, an octave lower for tonics g to b.
func keyShift(k engine.Key) int {
	from := lilyBaseOctave
	if k.Degree == 6 {
		from += semitones['a']
	}
	tonic := strings.ToLower(k.Tonic)
	if tonic == "" {
		return 0
	}
	to := lilyBaseOctave + semitones[tonic[0]]
	if len(tonic) > 1 {
		switch tonic[1] {
		case '#':
			to++
		case 'b':
			to--
		}
	}
	if strings.IndexByte("gab", tonic[0]) >= 0 {
		to -= 12
	}
	return to - from
}

// parseTempo reads a word such as 4=85 or 4.=60 as crotchets per minute.
func parseTempo(word string) (float64, bool) {
	unit, rate, ok := strings.Cut(word, "=")
	if !ok {
		return 0, false
	}
	dots := strings.Count(unit, ".")
	den, err := strconv.Atoi(strings.TrimRight(unit, "."))
	if err != nil || den <= 0 {
		return 0, false
	}
	bpm, err := strconv.ParseFloat(rate, 64)
	if err != nil || bpm <= 0 {
		return 0, false
	}
	qpm := bpm * 4 / float64(den)
	inc := qpm
	for i := 0; i < dots; i++ {
		inc /= 2
		qpm += inc
	}
	return qpm, true
}
