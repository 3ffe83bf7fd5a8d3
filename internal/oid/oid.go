// Package oid implements parsing, formatting, and ordering of SNMP object
// identifiers. An OID is a non-empty sequence of unsigned 32-bit components;
// ordering is numeric component-wise, matching RFC 2578 lexicographic rules
// rather than plain string comparison (".2" sorts before ".10").
package oid

import (
	"errors"
	"strconv"
	"strings"
)

// ErrEmpty is returned by Parse when the input has no numeric components
// after normalization.
var ErrEmpty = errors.New("oid: empty identifier")

// OID is the parsed integer-vector form of an object identifier.
type OID []uint32

// Parse converts a dotted-decimal string into an OID. A leading dot is
// stripped ("1.3.6" and ".1.3.6" both parse); a single trailing dot is
// tolerated. Empty components, non-numeric components, and components that
// overflow uint32 are rejected.
func Parse(s string) (OID, error) {
	s = strings.TrimPrefix(s, ".")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return nil, ErrEmpty
	}

	parts := strings.Split(s, ".")
	out := make(OID, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, errors.New("oid: empty component in " + s)
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, errors.New("oid: invalid component " + p + " in " + s)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

// MustParse is Parse but panics on error; intended for static OIDs known at
// compile time.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// String formats the OID in dotted-decimal form with no leading dot.
func (o OID) String() string {
	var b strings.Builder
	for i, c := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return b.String()
}

// Ordering is the result of Compare.
type Ordering int

const (
	OrderLess    Ordering = -1
	OrderEqual   Ordering = 0
	OrderGreater Ordering = 1
)

// Compare orders two OIDs numeric-component-wise. When one is a strict
// prefix of the other, the shorter one is OrderLess.
func Compare(a, b OID) Ordering {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return OrderLess
		case a[i] > b[i]:
			return OrderGreater
		}
	}
	switch {
	case len(a) < len(b):
		return OrderLess
	case len(a) > len(b):
		return OrderGreater
	default:
		return OrderEqual
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b OID) bool { return Compare(a, b) == OrderLess }

// IsPrefixOf reports whether a is a strict or equal prefix of b — i.e. every
// component of a matches the corresponding component of b. Used for subtree
// walks (walk(root) / is_prefix_of(root, oid)).
func IsPrefixOf(a, b OID) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a defensive copy so callers mutating the result never alias
// shared state.
func (o OID) Clone() OID {
	c := make(OID, len(o))
	copy(c, o)
	return c
}
