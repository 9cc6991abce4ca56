package stanza

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Pilcrow marks a semantic line break inside a fragment.
const Pilcrow = '¶'

const escapedPilcrow = `\¶`

// All three substitutions apply in a single pass, so markers inserted for
// newlines are never escaped and newlines inserted for tabs never gain a marker.
var lineEncoder = strings.NewReplacer(
	string(Pilcrow), escapedPilcrow,
	"\n", "\n"+string(Pilcrow),
	"\t", "\n\t",
)

// EncodeLine encodes one raw source line, including its terminating newline
// if it has one. Literal pilcrows are escaped with a backslash, the newline
// becomes a newline followed by a pilcrow, and every tab is preceded by a
// newline.
func EncodeLine(line string) string {
	return lineEncoder.Replace(line)
}

// DecodeLine decodes one physical fragment line. A trailing newline, if
// present, is dropped; unescaped pilcrows become newlines and escaped ones
// become literal pilcrows.
func DecodeLine(physical string) string {
	physical = strings.TrimSuffix(physical, "\n")
	if !strings.ContainsRune(physical, Pilcrow) {
		return physical
	}
	var b strings.Builder
	b.Grow(len(physical))
	for i := 0; i < len(physical); {
		if strings.HasPrefix(physical[i:], escapedPilcrow) {
			b.WriteRune(Pilcrow)
			i += len(escapedPilcrow)
			continue
		}
		r, size := utf8.DecodeRuneInString(physical[i:])
		if r == Pilcrow {
			b.WriteByte('\n')
		} else {
			b.WriteString(physical[i : i+size])
		}
		i += size
	}
	return b.String()
}

// DecodeText decodes a run of physical lines, such as a whole fragment.
func DecodeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for text != "" {
		line := text
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			line, text = text[:idx], text[idx+1:]
		} else {
			text = ""
		}
		b.WriteString(DecodeLine(line))
	}
	return b.String()
}

// Wrap breaks encoded text so that no physical line exceeds width columns,
// starting from column zero. See wrapper for the break rules.
func Wrap(text string, width int) string {
	w := wrapper{width: width}
	return w.wrap(text)
}

// wrapper is a greedy word wrapper that only ever inserts newlines. Breaks
// go in front of a word or whitespace run that would overflow the current
// physical line, so no token is split and no character is dropped. The
// column carries over between calls, which lets a fragment be wrapped one
// line at a time.
type wrapper struct {
	width int
	col   int
}

func (w *wrapper) reset() {
	w.col = 0
}

func (w *wrapper) wrap(text string) string {
	if w.width <= 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(text)/w.width + 1)
	for text != "" {
		var chunk string
		chunk, text = nextChunk(text)
		if chunk == "\n" {
			b.WriteByte('\n')
			w.col = 0
			continue
		}
		cw := runewidth.StringWidth(chunk)
		if w.col > 0 && w.col+cw > w.width {
			b.WriteByte('\n')
			w.col = 0
		}
		b.WriteString(chunk)
		w.col += cw
	}
	return b.String()
}

// nextChunk splits off the leading newline, whitespace run, or word of text.
func nextChunk(text string) (string, string) {
	if text[0] == '\n' {
		return text[:1], text[1:]
	}
	first, _ := utf8.DecodeRuneInString(text)
	space := isWrapSpace(first)
	end := len(text)
	for i, r := range text {
		if r == '\n' || isWrapSpace(r) != space {
			end = i
			break
		}
	}
	return text[:end], text[end:]
}

func isWrapSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}
