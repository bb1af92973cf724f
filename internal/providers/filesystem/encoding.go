package filesystem

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// CodeAuto asks decompression to detect the entry name charset
const CodeAuto = "auto"

// chardet reports a few charsets under names htmlindex does not know
var charsetAliases = map[string]string{
	"gb-18030": "gb18030",
}

func isUTF8Code(code string) bool {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// lookupEncoding returns the encoding for code, or nil for UTF-8
func lookupEncoding(code string) (encoding.Encoding, error) {
	if isUTF8Code(code) {
		return nil, nil
	}
	name := strings.ToLower(strings.TrimSpace(code))
	if alias, ok := charsetAliases[name]; ok {
		name = alias
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", code, err)
	}
	return enc, nil
}

// encodeName converts a UTF-8 entry name to code
func encodeName(name string, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return name, nil
	}
	out, err := enc.NewEncoder().String(name)
	if err != nil {
		return "", fmt.Errorf("encode entry name %q: %w", name, err)
	}
	return out, nil
}

// decodeName converts an entry name in code to UTF-8
func decodeName(name string, enc encoding.Encoding) string {
	if enc == nil {
		return name
	}
	out, err := enc.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return out
}

// detectEncoding guesses the charset of non UTF-8 entry names. It returns
// nil when every name is already valid UTF-8 or detection fails.
func detectEncoding(names []string) encoding.Encoding {
	var sample bytes.Buffer
	for _, n := range names {
		if !utf8.ValidString(n) {
			sample.WriteString(n)
			sample.WriteByte('\n')
		}
	}
	if sample.Len() == 0 {
		return nil
	}

	result, err := chardet.NewTextDetector().DetectBest(sample.Bytes())
	if err != nil || result == nil {
		return nil
	}
	enc, err := lookupEncoding(result.Charset)
	if err != nil {
		return nil
	}
	return enc
}
