package scan

import (
	"bytes"
	"unicode/utf8"

	"github.com/matzehuels/depscan/pkg/errors"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw file contents to text. A leading UTF-8 byte order mark
// is stripped; invalid UTF-8 and NUL bytes yield a MalformedInputFailure
// whose offset refers to data.
func Decode(data []byte) (string, error) {
	skip := 0
	if bytes.HasPrefix(data, bom) {
		skip = len(bom)
	}
	body := data[skip:]
	if i := bytes.IndexByte(body, 0); i >= 0 {
		return "", &errors.MalformedInputFailure{Offset: skip + i, Reason: "NUL byte in text"}
	}
	if !utf8.Valid(body) {
		return "", &errors.MalformedInputFailure{Offset: skip + invalidOffset(body), Reason: "invalid UTF-8"}
	}
	return string(body), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, n := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && n <= 1 {
			return i
		}
		i += n
	}
	return len(b)
}
