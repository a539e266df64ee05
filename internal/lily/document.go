package lily

import (
	"embed"
	"math"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

//go:embed templates/preamble.ly.tmpl
var templateFS embed.FS

var preambleTmpl = template.Must(template.ParseFS(templateFS, "templates/preamble.ly.tmpl"))

var (
	angkaRe    = regexp.MustCompile(`(\s|^)(angka|Indonesian)(\s|$)`)
	overrideRe = regexp.MustCompile(`(\\override [A-Z][^ ]*) #'`)
)

// Preamble describes the definitions written once at the top of a document.
type Preamble struct {
	StaffSize float64
	HasLyrics bool
	// Input is the notation the document was made from. It is copied into
	// a trailing block comment.
	Input string
}

type preambleData struct {
	VersionMinor int
	StaffSize    string
	HasLyrics    bool
	Angka        bool
	ThreeDots    string
	CurveOffset  string
}

// String renders the preamble.
func (p Preamble) String() string {
	size := p.StaffSize
	if size == 0 {
		size = 20
	}
	data := preambleData{
		VersionMinor: 20,
		StaffSize:    strconv.FormatFloat(size, 'g', -1, 64),
		HasLyrics:    p.HasLyrics,
		Angka:        angkaRe.MatchString(p.Input),
		ThreeDots:    "⋮",
		CurveOffset:  "0.32",
	}
	if strings.Contains(p.Input, "g[") || strings.Contains(p.Input, "]g") {
		data.VersionMinor = 22
	}
	if GraceHeight(p.Input) == 3.5 {
		data.CurveOffset = "-0.2"
	}
	var b strings.Builder
	if err := preambleTmpl.Execute(&b, data); err != nil {
		panic(err)
	}
	b.WriteString("\n\n%{ The jianpu input was:\n")
	b.WriteString(strings.ReplaceAll(strings.TrimSpace(p.Input), "%}", "%/}"))
	b.WriteString("\n%}\n\n")
	return b.String()
}

// GraceHeight returns the room grace notes need: 3.5 when any grace group
// has demisemiquavers or notes two octaves down, else 2.5. One height is
// used for a whole document so grace notes line up across scores.
func GraceHeight(input string) float64 {
	for _, w := range strings.Fields(input) {
		if !strings.HasPrefix(w, "g[") && !strings.HasSuffix(w, "]g") {
			continue
		}
		if strings.Contains(w, "d") || strings.Contains(w, ",,") {
			return 3.5
		}
	}
	return 2.5
}

// Modernize rewrites deprecated #'property overrides into dotted paths,
// which LilyPond 2.24 warns about.
func Modernize(doc string, minor int) string {
	if minor < 24 {
		return doc
	}
	return overrideRe.ReplaceAllString(doc, "$1.")
}

// LyricFontSize converts a lyric point size into a font-size step relative
// to the staff size. Each 6 steps double the size.
func LyricFontSize(staffSize, lyricSize float64) float64 {
	return math.Log(lyricSize/staffSize) * 6 / math.Log(2)
}

// SortedHeaders turns a header map into lines ordered by name.
func SortedHeaders(h map[string]string) []Header {
	keys := maps.Keys(h)
	slices.Sort(keys)
	out := make([]Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, Header{Name: k, Value: h[k]})
	}
	return out
}

// ChordNames renders a chord-name staff, plus fret diagrams when frets names
// a predefined tuning.
func ChordNames(chords, frets string) []string {
	out := []string{`\new ChordNames { \chordmode { ` + chords + ` } }`}
	if frets == "" {
		return out
	}
	tuning := ""
	if frets != "guitar" {
		tuning = `\set Staff.stringTunings = #` + frets + `-tuning`
	}
	return append(out, `\new FretBoards { `+tuning+` \chordmode { `+chords+` } }`)
}

// FretsInclude is the include a FretBoards staff needs.
func FretsInclude(frets string) string {
	return `\include "predefined-` + frets + `-fretboards.ly"` + "\n"
}
