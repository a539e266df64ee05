package engine

import (
	"fmt"

	"github.com/cbegin/jianpu-go/internal/notation"
)

// frame is one open structure: a repeat, an alternative block or a tuplet.
type frame interface{ isFrame() }

type repeatFrame struct {
	savedPos Units
	// extra is how many more times than once a percent repeat plays.
	extra int
	// open indexes the RepeatOpen event.
	open int
}

type alternativeFrame struct {
	savedPos Units
	extra    int
	open     int
}

type tupletFrame struct {
	num, den int64
}

func (*repeatFrame) isFrame()      {}
func (*alternativeFrame) isFrame() {}
func (*tupletFrame) isFrame()      {}

func (c *compiler) top() frame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func (c *compiler) pop() frame {
	f := c.top()
	if f != nil {
		c.frames = c.frames[:len(c.frames)-1]
	}
	return f
}

func (c *compiler) openRepeat(times int, percent bool) {
	if n := len(c.events); n > 0 && c.events[n-1].Type == EventFine {
		c.events[n-1].NoBarline = true
	}
	extra := 0
	if percent {
		extra = times - 1
	}
	c.frames = append(c.frames, &repeatFrame{savedPos: c.st.barPos, extra: extra, open: len(c.events)})
	c.emit(Event{Type: EventRepeatOpen, Num: times, Percent: percent})
}

func (c *compiler) closeBlock(word, line string) error {
	switch f := c.top().(type) {
	case nil:
		return notation.TokenError(notation.ErrMalformedToken, "Unmatched", word, line)
	case *tupletFrame:
		return notation.TokenError(notation.ErrMalformedToken, "Tuplet must be closed with ] before", word, line)
	case *repeatFrame:
		c.pop()
		c.emit(Event{Type: EventBlockClose, Braces: 1})
		c.resync(f)
		c.lastClosedRepeat = f.open
	case *alternativeFrame:
		c.pop()
		c.emit(Event{Type: EventBlockClose, Braces: 2})
		c.lastClosedRepeat = -1
	}
	return nil
}

// resync keeps the bar check consistent after a percent repeat shorter than
// a bar: the section's length modulo the bar is added once per extra play.
func (c *compiler) resync(f *repeatFrame) {
	st := c.st
	if st.barLength.Cmp(U(0)) <= 0 {
		return
	}
	newPos := st.barPos
	for newPos.Cmp(f.savedPos) < 0 {
		newPos = newPos.Add(st.barLength)
	}
	delta := newPos.Sub(f.savedPos)
	st.barPos = st.barPos.Add(delta.Scale(int64(f.extra), 1)).Mod(st.barLength)
}

func (c *compiler) openAlternative(word, line string) error {
	if c.lastClosedRepeat < 0 {
		return notation.TokenError(notation.ErrMalformedToken, "A{ must directly follow the } of a repeat:", word, line)
	}
	open := c.lastClosedRepeat
	c.events[open].Percent = false
	c.frames = append(c.frames, &alternativeFrame{savedPos: c.st.barPos, open: open})
	c.emit(Event{Type: EventAlternativeOpen})
	return nil
}

// nextAlternative handles | inside an alternative block. It reports false
// when | is an ordinary bar check.
func (c *compiler) nextAlternative() bool {
	f, ok := c.top().(*alternativeFrame)
	if !ok {
		return false
	}
	c.emit(Event{Type: EventAlternativeNext})
	c.st.barPos = f.savedPos
	if hdr := &c.events[f.open]; hdr.Num < f.extra+2 {
		hdr.Num = f.extra + 2
	}
	f.extra++
	return true
}

func (c *compiler) openTuplet(fit int, word, line string) error {
	num, den, ok := notation.TupletRatio(fit)
	if !ok {
		return notation.TokenError(notation.ErrMalformedToken,
			fmt.Sprintf("Tuplet must fit 1 to %d notes:", notation.MaxTupletFit), word, line)
	}
	c.frames = append(c.frames, &tupletFrame{num: int64(num), den: int64(den)})
	c.st.tupletNum *= int64(num)
	c.st.tupletDen *= int64(den)
	c.emit(Event{Type: EventTupletOpen, Num: num, Den: den})
	return nil
}

func (c *compiler) closeTuplet(word, line string) error {
	f, ok := c.top().(*tupletFrame)
	if !ok {
		return notation.TokenError(notation.ErrMalformedToken, "No tuplet to close at", word, line)
	}
	c.pop()
	c.st.tupletNum /= f.num
	c.st.tupletDen /= f.den
	c.emit(Event{Type: EventTupletClose})
	return nil
}

// checkFrames reports structures left open at the end of a score.
func (c *compiler) checkFrames() error {
	tuplet := false
	for _, f := range c.frames {
		switch f.(type) {
		case *repeatFrame, *alternativeFrame:
			return notation.ScoreError(notation.ErrUnterminatedRepeat, c.opts.Score, "Unterminated repeat in score %d", c.opts.Score)
		case *tupletFrame:
			tuplet = true
		}
	}
	if tuplet {
		return notation.ScoreError(notation.ErrUnterminatedTuplet, c.opts.Score, "Unterminated tuplet in score %d", c.opts.Score)
	}
	return nil
}
