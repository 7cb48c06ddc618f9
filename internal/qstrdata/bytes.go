package qstrdata

import (
	"fmt"
	"strings"
)

// Field width limits accepted for the hash and length prefixes.
const (
	MaxBytesInHash = 4
	MaxBytesInLen  = 4

	DefaultBytesInHash = 2
	DefaultBytesInLen  = 1
)

// WidthError reports an unusable field width.
type WidthError struct {
	Field string
	Width int
	Max   int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("%s width %d out of range 1..%d", e.Field, e.Width, e.Max)
}

// LengthError reports a string whose byte length does not fit the length
// field. Truncating would corrupt the table, so it is fatal.
type LengthError struct {
	Ident string
	Len   int
	Width int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("qstr is too long: %q is %d bytes, %d length byte(s) hold at most %d",
		e.Ident, e.Len, e.Width, maxLen(e.Width))
}

func maxLen(width int) int {
	return (1 << (8 * uint(width))) - 1
}

// Encoder renders the byte literal of a table record.
type Encoder struct {
	BytesInHash int
	BytesInLen  int
	Hash        HashFunc
}

// NewEncoder returns an Encoder using ComputeHash.
func NewEncoder(bytesHash, bytesLen int) (*Encoder, error) {
	if bytesHash < 1 || bytesHash > MaxBytesInHash {
		return nil, &WidthError{Field: "hash", Width: bytesHash, Max: MaxBytesInHash}
	}
	if bytesLen < 1 || bytesLen > MaxBytesInLen {
		return nil, &WidthError{Field: "length", Width: bytesLen, Max: MaxBytesInLen}
	}
	return &Encoder{
		BytesInHash: bytesHash,
		BytesInLen:  bytesLen,
		Hash:        ComputeHash,
	}, nil
}

// Bytes returns (const byte*)"<hash><len>" "<data>" for s. Hash and length
// are little-endian \xNN escapes. Data is s itself when it is printable
// ASCII without backslash or double quote, else every UTF-8 byte escaped.
func (e *Encoder) Bytes(s string) (string, error) {
	data := []byte(s)
	if len(data) > maxLen(e.BytesInLen) {
		return "", &LengthError{Ident: s, Len: len(data), Width: e.BytesInLen}
	}
	hash := e.Hash(data, e.BytesInHash)

	var b strings.Builder
	b.WriteString(`(const byte*)"`)
	writeLE(&b, uint64(hash), e.BytesInHash)
	writeLE(&b, uint64(len(data)), e.BytesInLen)
	b.WriteString(`" "`)
	if printable(s) {
		b.WriteString(s)
	} else {
		for _, c := range data {
			fmt.Fprintf(&b, `\x%02x`, c)
		}
	}
	b.WriteByte('"')
	return b.String(), nil
}

// Null returns the literal of the always-first empty record: zero hash,
// zero length, no data.
func (e *Encoder) Null() string {
	zeros := strings.Repeat(`\x00`, e.BytesInHash+e.BytesInLen)
	return `(const byte *)"` + zeros + `" ""`
}

func writeLE(b *strings.Builder, v uint64, width int) {
	for i := 0; i < width; i++ {
		fmt.Fprintf(b, `\x%02x`, (v>>(8*uint(i)))&0xff)
	}
}

func printable(s string) bool {
	for _, r := range s {
		if r < 32 || r > 126 || r == '\\' || r == '"' {
			return false
		}
	}
	return true
}
