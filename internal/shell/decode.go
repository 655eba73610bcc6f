package shell

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// Decode turns raw tool output into clean UTF-8 text.
//
// wsl.exe writes UTF-16LE to pipes (with or without a BOM) while most other
// tools write the console code page or UTF-8. Whatever survives decoding,
// stray NUL bytes and a leading U+FEFF are stripped and CRLF is folded to LF.
func Decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		text = string(raw[len(bomUTF8):])
	case bytes.HasPrefix(raw, bomUTF16LE) || looksUTF16LE(raw):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			text = string(raw)
		} else {
			text = string(out)
		}
	default:
		text = string(raw)
	}

	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return text
}

// looksUTF16LE reports whether most odd bytes are NUL, which is how ASCII
// text looks once it has been encoded as UTF-16LE.
func looksUTF16LE(raw []byte) bool {
	if len(raw) < 4 {
		return false
	}
	var odd, nul int
	for i := 1; i < len(raw); i += 2 {
		odd++
		if raw[i] == 0 {
			nul++
		}
	}
	return nul*2 > odd
}

// Lines splits decoded output into trimmed, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
