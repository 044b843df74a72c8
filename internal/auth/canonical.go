package auth

import (
	"bytes"           // byte buffers
	"encoding/base64" // base64 encoding
	"unicode/utf8"    // UTF-8 validation

	"github.com/goccy/go-json" // fast JSON encoding
)

// Canonicalize is the body serialization shared by request signers and the
// verifier:
//
//	empty or whitespace-only body  -> `""`
//	valid JSON                     -> the same document compacted, key order kept
//	other UTF-8 text               -> the raw text as a JSON string
//	invalid UTF-8                  -> base64: followed by the std base64 of the raw bytes
//
// The last form keeps arbitrary bytes lossless; JSON encoding would fold
// every invalid sequence into U+FFFD.  It can never start a JSON value, so
// it cannot collide with the other forms.
func Canonicalize(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return `""`
	}
	if json.Valid(trimmed) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	if !utf8.Valid(body) {
		return "base64:" + base64.StdEncoding.EncodeToString(body)
	}
	out, err := json.Marshal(string(body))
	if err != nil {
		// strings always marshal
		return `""`
	}
	return string(out)
}
