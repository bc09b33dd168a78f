// Package etag encodes resource version counters as opaque HTTP entity tags.
//
// The wire form is the 8-byte big-endian version rendered as 16 lowercase hex
// characters, wrapped in double quotes: version 7 becomes "0000000000000007".
// Clients round-trip the value; they never interpret it.
package etag

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// encodedLen is the fixed hex width of the version counter (8 bytes).
const encodedLen = 16

// FromVersion encodes a version counter as a quoted strong entity tag.
func FromVersion(version int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(version))
	return fmt.Sprintf("%q", hex.EncodeToString(buf[:]))
}

// Parse decodes an entity tag back to a version counter. Surrounding quotes
// are optional. Any malformed input (wrong width, non-hex bytes, a weak-tag
// prefix) returns ok=false. Callers must treat a malformed tag exactly like
// a mismatched one so the parser cannot be used as an oracle.
func Parse(tag string) (version int64, ok bool) {
	tag = strings.TrimSpace(tag)
	if strings.HasPrefix(tag, `W/`) {
		return 0, false
	}
	if len(tag) >= 2 && tag[0] == '"' && tag[len(tag)-1] == '"' {
		tag = tag[1 : len(tag)-1]
	}
	if len(tag) != encodedLen {
		return 0, false
	}
	raw, err := hex.DecodeString(tag)
	if err != nil {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(raw)), true
}
