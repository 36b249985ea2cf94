package etag

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Value is a computed ETag.
type Value struct {
	Sum Digest
	// Parts is the part count of a multipart upload, 0 for single-part ones.
	Parts int64
}

// Multipart reports whether v carries a part count suffix.
func (v Value) Multipart() bool {
	return v.Parts > 1
}

// String renders v the way S3 does, without the surrounding quotes.
func (v Value) String() string {
	s := hex.EncodeToString(v.Sum[:])
	if v.Multipart() {
		s += "-" + strconv.FormatInt(v.Parts, 10)
	}
	return s
}

// ParseValue parses an ETag as printed by String or as returned by S3, that
// is optionally wrapped in double quotes.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	sum, count, found := strings.Cut(s, "-")
	if len(sum) != 2*DigestSize {
		return Value{}, fmt.Errorf("parse etag %q: want %d hex digits", s, 2*DigestSize)
	}

	var v Value
	if _, err := hex.Decode(v.Sum[:], []byte(sum)); err != nil {
		return Value{}, fmt.Errorf("parse etag %q: %w", s, err)
	}
	if found {
		n, err := strconv.ParseInt(count, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse etag %q: part count: %w", s, err)
		}
		if n < 2 {
			return Value{}, fmt.Errorf("parse etag %q: part count must be at least 2", s)
		}
		v.Parts = n
	}
	return v, nil
}
