package notation

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind says what a word of the input is.
type Kind int

const (
	KindNote Kind = iota + 1
	KindComment
	KindHarmonicOn
	KindHarmonicOff
	KindTempo
	KindKey
	KindFinger
	KindRehearsal
	KindMultiRest
	KindTime
	KindOption
	KindRepeat
	KindPercentRepeat
	KindClose
	KindAlternative
	KindBar
	KindTie
	KindCommand
	KindTupletOpen
	KindTupletClose
	KindGraceBefore
	KindGraceAfter
	KindFine
	KindDC
)

type Option int

const (
	OptOnePage Option = iota + 1
	OptNoBarNums
	OptNoIndent
	OptRaggedLast
	OptSeparateTimesig
	OptNotAngka
	OptWithStaff
	OptKeepLength
	OptKeepOctave
	OptPartMidi
)

var optionWords = map[string]Option{
	"OnePage":         OptOnePage,
	"NoBarNums":       OptNoBarNums,
	"NoIndent":        OptNoIndent,
	"RaggedLast":      OptRaggedLast,
	"SeparateTimesig": OptSeparateTimesig,
	"angka":           OptNotAngka,
	"Indonesian":      OptNotAngka,
	"WithStaff":       OptWithStaff,
	"KeepLength":      OptKeepLength,
	"KeepOctave":      OptKeepOctave,
	"PartMidi":        OptPartMidi,
}

// Token is one classified word. Which fields are set depends on Kind.
type Token struct {
	Kind   Kind
	Word   string
	Option Option
	// Num and Den carry a time signature, a tuplet's fit count (Num),
	// a percent repeat count (Num), a multi-bar rest length (Num) or a
	// key's jianpu degree (Num, 1 or 6).
	Num, Den int
	// Text carries a key tonic, finger name, rehearsal letter, grace body
	// or anacrusis.
	Text string
}

var (
	tempoRe       = regexp.MustCompile(`^[1-468]+[.]*=[1-9][0-9]*$`)
	keyRe         = regexp.MustCompile(`^[16]=[A-Ga-g][#b]?$`)
	backwardKeyRe = regexp.MustCompile(`^[16]=[#b][A-Ga-g]$`)
	rehearsalRe   = regexp.MustCompile(`^letter[A-Z]$`)
	multiRestRe   = regexp.MustCompile(`^R\*([1-9][0-9]*)$`)
	timeRe        = regexp.MustCompile(`^([1-9][0-9]*)/([1-468]+)(?:,([1-9][0-9]*[.]?))?$`)
	percentRe     = regexp.MustCompile(`^R([1-9][0-9]*)\{$`)
	tupletRe      = regexp.MustCompile(`^([1-9][0-9]*)\[$`)
	graceBeforeRe = regexp.MustCompile(`^g\[([#b',1-9qsdh]+)\]$`)
	graceAfterRe  = regexp.MustCompile(`^\[([#b',1-9qsdh]+)\]g$`)
)

var fingerAliases = map[string]bool{
	"souyin": true, "harmonic": true, "up": true, "down": true, "bend": true, "tilde": true,
}

// Classify decides what one word is. Words that match no directive are
// classified as notes; ParseNote rejects the ones that are not.
func Classify(word string) Token {
	if fingerAliases[word] {
		word = "Fr=" + word
	}
	if backwardKeyRe.MatchString(word) {
		word = word[:2] + word[3:4] + word[2:3]
	}
	tok := Token{Word: word}
	switch {
	case strings.HasPrefix(word, "%"):
		tok.Kind = KindComment
	case word == "Harm:":
		tok.Kind = KindHarmonicOn
	case word == ":Harm":
		tok.Kind = KindHarmonicOff
	case tempoRe.MatchString(word):
		tok.Kind = KindTempo
	case keyRe.MatchString(word):
		tok.Kind = KindKey
		tok.Num = int(word[0] - '0')
		tok.Text = word[2:]
	case strings.HasPrefix(word, "Fr="):
		tok.Kind = KindFinger
		tok.Text = strings.SplitN(word, "=", 3)[1]
	case rehearsalRe.MatchString(word):
		tok.Kind = KindRehearsal
		tok.Text = word[len(word)-1:]
	case multiRestRe.MatchString(word):
		tok.Kind = KindMultiRest
		tok.Num = atoi(multiRestRe.FindStringSubmatch(word)[1])
	case timeRe.MatchString(word):
		m := timeRe.FindStringSubmatch(word)
		tok.Kind = KindTime
		tok.Num = atoi(m[1])
		tok.Den = atoi(m[2])
		tok.Text = m[3]
	case optionWords[word] != 0:
		tok.Kind = KindOption
		tok.Option = optionWords[word]
	case word == "R{":
		tok.Kind = KindRepeat
		tok.Num = 2
	case percentRe.MatchString(word):
		tok.Kind = KindPercentRepeat
		tok.Num = atoi(percentRe.FindStringSubmatch(word)[1])
	case word == "}":
		tok.Kind = KindClose
	case word == "A{":
		tok.Kind = KindAlternative
	case word == "|":
		tok.Kind = KindBar
	case word == "~":
		tok.Kind = KindTie
	case isCommand(word):
		tok.Kind = KindCommand
	case tupletRe.MatchString(word):
		tok.Kind = KindTupletOpen
		tok.Num = atoi(tupletRe.FindStringSubmatch(word)[1])
	case word == "]":
		tok.Kind = KindTupletClose
	case graceBeforeRe.MatchString(word):
		tok.Kind = KindGraceBefore
		tok.Text = graceBeforeRe.FindStringSubmatch(word)[1]
	case graceAfterRe.MatchString(word):
		tok.Kind = KindGraceAfter
		tok.Text = graceAfterRe.FindStringSubmatch(word)[1]
	case word == "Fine":
		tok.Kind = KindFine
	case word == "DC":
		tok.Kind = KindDC
	default:
		tok.Kind = KindNote
	}
	return tok
}

// atoi reads a count matched by one of the patterns above. Counts too large
// for an int come back as 0, which every caller rejects.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func isCommand(word string) bool {
	switch word {
	case "(", ")", "->":
		return true
	}
	for _, p := range []string{`\`, `^\`, `_\`, `^"`, `_"`} {
		if strings.HasPrefix(word, p) {
			return true
		}
	}
	return false
}

// FingerGlyph maps a fingering name to the glyph printed for it. Unknown
// names are printed as given.
func FingerGlyph(name string) string {
	switch name {
	case "0":
		return "宀"
	case "1":
		return "一"
	case "2":
		return "二"
	case "3":
		return "三"
	case "4":
		return "四"
	case "souyin":
		return "久"
	case "harmonic":
		return "○"
	case "up":
		return "↗"
	case "down":
		return "↘"
	case "bend":
		return "⤻"
	case "tilde":
		return "∼"
	}
	return name
}

// MaxTupletFit is the largest number of notes a tuplet may fit.
const MaxTupletFit = 64

// TupletRatio returns the time-scaling fraction for a tuplet that fits n
// notes: 3 in the time of 2, 5 in the time of 4, 6 in the time of 4 and so on.
// ok is false when n is outside 1 to MaxTupletFit.
func TupletRatio(n int) (num, den int, ok bool) {
	if n < 1 || n > MaxTupletFit {
		return 0, 0, false
	}
	i := 2
	for i < n {
		i *= 2
	}
	if i == n {
		return n * 3 / 2, n, true
	}
	return i / 2, n, true
}
