package notation

import (
	"strings"

	"golang.org/x/text/width"
)

// FoldWidth replaces full-width ASCII variants with their ASCII forms, so
// input typed with a CJK input method still parses.
func FoldWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0xff01 && r <= 0xff5e:
			if n := width.LookupRune(r).Narrow(); n != 0 {
				return n
			}
			return r - 0xfee0
		case r == '‚':
			return ','
		case r == '｡':
			return '.'
		}
		return r
	}, s)
}

// SplitWords splits a line into words. Quoted text attached above or below
// the staff (^"..." or _"...") may span several words and is kept whole.
func SplitWords(line string) []string {
	fields := strings.Fields(line)
	words := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if (strings.HasPrefix(f, `^"`) || strings.HasPrefix(f, `_"`)) && !closesQuote(f) {
			for j := i + 1; j < len(fields); j++ {
				if strings.HasSuffix(fields[j], `"`) && !strings.Contains(strings.Join(fields[i+1:j], " "), `"`) {
					f = strings.Join(fields[i:j+1], " ")
					i = j
					break
				}
			}
		}
		words = append(words, f)
	}
	return words
}

func closesQuote(f string) bool {
	return len(f) > 2 && strings.Count(f[2:], `"`) > 0
}
