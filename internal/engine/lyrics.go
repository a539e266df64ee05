package engine

import (
	"strings"
)

// lyricLine converts an L: or H: line into the body of a LilyPond lyrics
// block. H: lines get a space after each hanzi so every character takes a
// note; _ joins characters onto one note.
func lyricLine(line string) string {
	hanzi := strings.HasPrefix(line, "H:")
	line = strings.TrimSpace(line[2:])
	stanza := ""
	if len(line) > 1 && line[0] >= '1' && line[0] <= '9' && line[1] == '.' {
		stanza = `\set stanza = #"` + line[:1] + `." `
		line = strings.TrimSpace(line[2:])
	}
	if hanzi {
		line = spaceHanzi(line, stanza)
		stanza = ""
	}
	return stanza + strings.ReplaceAll(hyphenate(line), " -- ", " --\n")
}

func spaceHanzi(line, stanza string) string {
	var b strings.Builder
	b.WriteString(`\override LyricText #'self-alignment-X = #LEFT `)
	b.WriteString(stanza)
	needSpace := false
	for _, r := range line {
		isHanzi := r >= 0x3400 && r < 0xa700
		isOpenQuote := r == '‘' || r == '“' || r == '《'
		if needSpace && (isHanzi || isOpenQuote) {
			b.WriteByte(' ')
			needSpace = false
			if isOpenQuote {
				b.WriteString(`\once \override LyricText #'self-alignment-X = #CENTER `)
			}
		}
		if isHanzi {
			needSpace = true
		}
		if r == '_' {
			needSpace = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hyphenate turns "syl- la" into "syl -- la", the LilyPond hyphen. A dash
// after a space or another dash is left alone.
func hyphenate(line string) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] == '-' && i > 0 && i+1 < len(line) && line[i+1] == ' ' &&
			line[i-1] != '-' && line[i-1] != ' ' {
			b.WriteString(" -- ")
			i++
			continue
		}
		b.WriteByte(line[i])
	}
	return b.String()
}
