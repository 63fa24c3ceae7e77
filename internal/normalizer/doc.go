package normalizer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	encunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ole2Signature marks a genuine binary Word 97-2003 file. Those are not
// parseable here; extraction for .doc is best-effort and only succeeds
// when the file is actually text (or a mislabeled DOCX, handled earlier).
var ole2Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func extractLegacyDoc(data []byte) (string, error) {
	if bytes.HasPrefix(data, ole2Signature) {
		return "", fmt.Errorf("binary .doc (Word 97-2003) extraction is not supported; save as .docx")
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode .doc content: %w", err)
	}

	if !looksLikeText(text) {
		return "", fmt.Errorf("file does not appear to contain readable text")
	}

	return cleanText(text), nil
}

// decodeText handles the encodings a text file saved with a .doc
// extension plausibly uses: UTF-8 (with or without BOM), UTF-16 either
// endian, then Windows-1252 / Latin-1 as a last resort.
func decodeText(data []byte) (string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), nil
	}

	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		decoder := encunicode.UTF16(encunicode.LittleEndian, encunicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		decoder := encunicode.UTF16(encunicode.BigEndian, encunicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	decoder := charmap.Windows1252.NewDecoder()
	decoded, _, err := transform.Bytes(decoder, data)
	if err == nil {
		return string(decoded), nil
	}

	decoder = charmap.ISO8859_1.NewDecoder()
	decoded, _, err = transform.Bytes(decoder, data)
	if err == nil {
		return string(decoded), nil
	}

	return string(data), nil
}

// looksLikeText samples the start of the decoded text and requires most
// runes to be printable. Charmap decoding never fails, so without this
// check a binary blob would "decode" into garbage.
func looksLikeText(text string) bool {
	if len(text) > 512 {
		text = text[:512]
	}
	if text == "" {
		return false
	}

	total := 0
	printable := 0
	for _, r := range text {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}

	return float64(printable)/float64(total) >= 0.8
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
