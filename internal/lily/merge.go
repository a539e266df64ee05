package lily

import (
	"strconv"
	"strings"
)

// tokens is LilyPond text split at whitespace. gaps[i] is the whitespace
// before words[i]; tail is whatever follows the last word.
type tokens struct {
	words []string
	gaps  []string
	tail  string
}

func tokenize(s string) *tokens {
	t := &tokens{}
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && isBlank(s[i]) {
			i++
		}
		if i == len(s) {
			t.tail = s[start:]
			break
		}
		gap := s[start:i]
		start = i
		for i < len(s) && !isBlank(s[i]) {
			i++
		}
		t.gaps = append(t.gaps, gap)
		t.words = append(t.words, s[start:i])
	}
	return t
}

func isBlank(c byte) bool { return c == ' ' || c == '\n' || c == '\t' }

func (t *tokens) String() string {
	var b strings.Builder
	for i, w := range t.words {
		b.WriteString(t.gaps[i])
		b.WriteString(w)
	}
	b.WriteString(t.tail)
	return b.String()
}

// replace swaps words[from:to] for repl, keeping the whitespace before from.
func (t *tokens) replace(from, to int, repl []string) {
	gaps := make([]string, len(repl))
	for i := range gaps {
		gaps[i] = " "
	}
	if len(gaps) > 0 {
		gaps[0] = t.gaps[from]
	}
	t.words = append(t.words[:from], append(repl, t.words[to:]...)...)
	t.gaps = append(t.gaps[:from], append(gaps, t.gaps[to:]...)...)
}

// unit returns the musical unit starting at word i: a single word, or a
// whole chord "< c' e' >4". end is the index after it.
func (t *tokens) unit(i int) (text string, end int) {
	if i >= len(t.words) {
		return "", i
	}
	if t.words[i] != "<" {
		return t.words[i], i + 1
	}
	for j := i + 1; j < len(t.words); j++ {
		if strings.HasPrefix(t.words[j], ">") {
			return strings.Join(t.words[i:j+1], " "), j + 1
		}
	}
	return t.words[i], i + 1
}

func isCommandWord(w string) bool { return strings.HasPrefix(w, `\`) && len(w) > 1 }

var tieMerges = []struct {
	notes  int
	dotted bool
	result string
}{
	{4, true, "1."},
	{4, false, "1"},
	{3, false, "2."},
	{2, true, "2."},
	{2, false, "2"},
}

// MergeTies rewrites runs of tied equal crotchets as single longer notes,
// extends chord tremolos over their tied continuations and merges runs of
// crotchet rests. It also moves dynamics inside tremolos and turns rests
// filling a whole bar into bar rests.
func MergeTies(ly string) string {
	t := tokenize(ly)
	for _, m := range tieMerges {
		dot := ""
		if m.dotted {
			dot = "."
		}
		t.mergeTied(m.notes, dot, m.result)
		t.mergeTremolo(m.notes, dot)
		t.mergeRests(m.notes, dot, m.result)
	}
	t.moveDynamics()
	t.barRests()
	return t.String()
}

// tiedRun matches n copies of want separated by ties starting at word i,
// where the first copy has already been consumed. It returns the commands
// found after the first tie and the index after the run.
func (t *tokens) tiedRun(i, n int, want string) (cmds []string, end int, ok bool) {
	for k := 1; k < n; k++ {
		if i >= len(t.words) || t.words[i] != "~" {
			return nil, 0, false
		}
		i++
		if k == 1 {
			for i < len(t.words) && isCommandWord(t.words[i]) {
				cmds = append(cmds, t.words[i])
				i++
			}
		}
		u, next := t.unit(i)
		if u != want {
			return nil, 0, false
		}
		i = next
	}
	return cmds, i, true
}

func (t *tokens) mergeTied(n int, dot, result string) {
	want := "4" + dot
	for i := 0; i < len(t.words); i++ {
		u, next := t.unit(i)
		trem := ""
		if strings.HasSuffix(u, ":32") {
			trem = ":32"
			u = strings.TrimSuffix(u, ":32")
		}
		if !strings.HasSuffix(u, want) {
			continue
		}
		base := strings.TrimSuffix(u, want)
		if base == "" || (base[0] == '<') != strings.HasPrefix(u, "< ") {
			continue
		}
		if last := base[len(base)-1]; last >= '0' && last <= '9' {
			continue
		}
		cmds, end, ok := t.tiedRun(next, n, base+want)
		if !ok {
			continue
		}
		repl := append([]string{base + result + trem}, cmds...)
		t.replace(i, end, repl)
		i += len(repl) - 1
	}
}

// mergeTremolo extends "\repeat tremolo K { a32 b32 }" over tied chord
// continuations "< a b >4".
func (t *tokens) mergeTremolo(n int, dot string) {
	chk := 4
	if dot != "" {
		chk = 6
	}
	for i := 0; i+7 <= len(t.words); i++ {
		w := t.words[i : i+7]
		if w[0] != `\repeat` || w[1] != "tremolo" || w[2] != strconv.Itoa(chk) || w[3] != "{" || w[6] != "}" ||
			!strings.HasSuffix(w[4], "32") || !strings.HasSuffix(w[5], "32") {
			continue
		}
		a, b := strings.TrimSuffix(w[4], "32"), strings.TrimSuffix(w[5], "32")
		cmds, end, ok := t.tiedRun(i+7, n, "< "+a+" "+b+" >4"+dot)
		if !ok {
			continue
		}
		repl := append([]string{`\repeat`, "tremolo", strconv.Itoa(chk * n), "{", w[4], w[5], "}"}, cmds...)
		t.replace(i, end, repl)
		i += len(repl) - 1
	}
}

func (t *tokens) mergeRests(n int, dot, result string) {
	want := "r4" + dot
	for i := 0; i+n <= len(t.words); i++ {
		run := true
		for k := 0; k < n; k++ {
			if t.words[i+k] != want {
				run = false
				break
			}
		}
		if run {
			t.replace(i, i+n, []string{"r" + result})
		}
	}
}

// moveDynamics puts commands that follow a tremolo inside it, after its
// first note. \bar and friends stay outside.
func (t *tokens) moveDynamics() {
	for i := 0; i+7 <= len(t.words); i++ {
		w := t.words[i : i+7]
		if w[0] != `\repeat` || w[1] != "tremolo" || w[3] != "{" || w[6] != "}" {
			continue
		}
		j := i + 7
		for j < len(t.words) && isCommandWord(t.words[j]) && t.words[j][1] != 'b' {
			j++
		}
		if j == i+7 {
			continue
		}
		cmds := append([]string(nil), t.words[i+7:j]...)
		repl := append(append([]string{w[0], w[1], w[2], w[3], w[4]}, cmds...), w[5], w[6])
		t.replace(i, j, repl)
		i = j - 1
	}
}

// barRests capitalises a rest that fills a bar: one that directly follows a
// bar number comment or a key change and is directly followed by the next
// bar number comment.
func (t *tokens) barRests() {
	w := t.words
	for i := range w {
		if !strings.HasPrefix(w[i], "r") {
			continue
		}
		after := i >= 4 && w[i-4] == "%{" && w[i-3] == "bar" && strings.HasSuffix(w[i-2], ":") && w[i-1] == "%}"
		if !after && !(i >= 1 && w[i-1] == `\major`) {
			continue
		}
		j := i + 1
		for j < len(w) && w[j] == "|" {
			j++
		}
		if j < len(w) && w[j] == `\noPageBreak` {
			j++
		}
		if j+1 < len(w) && w[j] == "%{" && w[j+1] == "bar" {
			w[i] = "R" + w[i][1:]
		}
	}
}
