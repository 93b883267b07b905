package serialise

import (
	"math/big"
	"strings"

	guuid "github.com/google/uuid"

	"github.com/nivalisdb/nivalis/kernel/field"
)

// Compact UUID representation: '~' followed by a base58 rendering of the raw
// identifier with leading zero bytes elided. Reversible and shorter than the
// canonical hex form for structured UUIDs.
const compactUUIDMark = '~'

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var b58Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(b58Alphabet); i++ {
		idx[b58Alphabet[i]] = int8(i)
	}
	return idx
}()

var b58Radix = big.NewInt(58)

func b58Encode(b []byte) string {
	n := new(big.Int).SetBytes(b)
	if n.Sign() == 0 {
		return string(b58Alphabet[0])
	}
	var out []byte
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, b58Radix, mod)
		out = append(out, b58Alphabet[mod.Int64()])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func b58Decode(s string) ([]byte, bool) {
	n := new(big.Int)
	for i := 0; i < len(s); i++ {
		d := b58Index[s[i]]
		if d < 0 {
			return nil, false
		}
		n.Mul(n, b58Radix)
		n.Add(n, big.NewInt(int64(d)))
	}
	return n.Bytes(), true
}

// UUID parses any accepted UUID form and returns the raw 16-byte identifier:
// canonical hex, urn:uuid prefixed, braced, or the compact '~' form.
func UUID(s string) ([]byte, error) {
	if s == "" {
		return nil, formatErr(field.UUID, "empty uuid")
	}
	if s[0] == compactUUIDMark {
		raw, ok := b58Decode(s[1:])
		if !ok || len(raw) > 16 {
			return nil, formatErr(field.UUID, "%q is not a valid compact uuid", s)
		}
		out := make([]byte, 16)
		copy(out[16-len(raw):], raw)
		return out, nil
	}
	u, err := guuid.Parse(s)
	if err != nil {
		return nil, formatErr(field.UUID, "%q is not a valid uuid", s)
	}
	raw := make([]byte, 16)
	copy(raw, u[:])
	return raw, nil
}

// IsUUID reports whether s parses as one UUID in any accepted form. A
// dot-joined path of several UUIDs is not split here and does not match.
func IsUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := UUID(s)
	return err == nil
}

// CanonicalUUID renders the lowercased canonical hex form of a raw
// identifier, used when normalizing stored values.
func CanonicalUUID(raw []byte) string {
	var u guuid.UUID
	copy(u[:], raw)
	return strings.ToLower(u.String())
}

// CompactUUID renders the reversible '~' form.
func CompactUUID(raw []byte) string {
	i := 0
	for i < len(raw)-1 && raw[i] == 0 {
		i++
	}
	return string(compactUUIDMark) + b58Encode(raw[i:])
}

// NewCompactUUID generates a fresh random identifier in compact form.
func NewCompactUUID() string {
	u := guuid.New()
	return CompactUUID(u[:])
}
