// Package snmptype defines the tagged-sum SNMP value used throughout the
// simulator. A Value has exactly one variant per SNMP type plus the three
// v2c exception markers; a Value's payload is never itself a Value — the
// double-wrapped {counter32, {counter32, n}} shape some SNMP simulators
// produce by accident cannot be expressed here, since the constructors below
// are the only way to build one and none of them accept a Value as input.
package snmptype

import (
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Integer Kind = iota
	OctetString
	ObjectIdentifier
	Null
	IPAddress
	Counter32
	Gauge32
	TimeTicks
	Opaque
	Counter64
	NoSuchObject
	NoSuchInstance
	EndOfMibView
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case OctetString:
		return "octet_string"
	case ObjectIdentifier:
		return "object_identifier"
	case Null:
		return "null"
	case IPAddress:
		return "ip_address"
	case Counter32:
		return "counter32"
	case Gauge32:
		return "gauge32"
	case TimeTicks:
		return "timeticks"
	case Opaque:
		return "opaque"
	case Counter64:
		return "counter64"
	case NoSuchObject:
		return "no_such_object"
	case NoSuchInstance:
		return "no_such_instance"
	case EndOfMibView:
		return "end_of_mib_view"
	default:
		return "unknown"
	}
}

// IsException reports whether the Kind is one of the three v2c exception
// markers, none of which carries a meaningful payload.
func (k Kind) IsException() bool {
	return k == NoSuchObject || k == NoSuchInstance || k == EndOfMibView
}

// Value is the tagged union. Exactly one of the payload fields is
// meaningful, selected by Kind; callers use the constructors below rather
// than populating fields directly.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	s    string
	b    []byte
}

func (v Value) Kind() Kind { return v.kind }

// Int returns the payload as a signed integer (Integer kind).
func (v Value) Int() int64 { return v.i }

// Uint returns the payload as an unsigned integer (Counter32/Gauge32/
// TimeTicks/Counter64 kinds).
func (v Value) Uint() uint64 { return v.u }

// Str returns the payload as a string (OctetString/ObjectIdentifier/
// IPAddress kinds).
func (v Value) Str() string { return v.s }

// Raw returns the opaque byte payload (Opaque kind).
func (v Value) Raw() []byte { return v.b }

func NewInteger(n int64) Value           { return Value{kind: Integer, i: n} }
func NewOctetString(s string) Value      { return Value{kind: OctetString, s: s} }
func NewObjectIdentifier(s string) Value { return Value{kind: ObjectIdentifier, s: s} }
func NewNull() Value                     { return Value{kind: Null} }
func NewIPAddress(s string) Value        { return Value{kind: IPAddress, s: s} }
func NewCounter32(n uint32) Value        { return Value{kind: Counter32, u: uint64(n)} }
func NewGauge32(n uint32) Value          { return Value{kind: Gauge32, u: uint64(n)} }
func NewTimeTicks(n uint32) Value        { return Value{kind: TimeTicks, u: uint64(n)} }
func NewOpaque(b []byte) Value           { return Value{kind: Opaque, b: b} }
func NewCounter64(n uint64) Value        { return Value{kind: Counter64, u: n} }
func NewNoSuchObject() Value             { return Value{kind: NoSuchObject} }
func NewNoSuchInstance() Value           { return Value{kind: NoSuchInstance} }
func NewEndOfMibView() Value             { return Value{kind: EndOfMibView} }

// ToPDU places the Value into a gosnmp.SnmpPDU bound to oid, using the
// dedicated ASN.1 tag for each kind rather than a generic integer/string.
func (v Value) ToPDU(oid string) gosnmp.SnmpPDU {
	pdu := gosnmp.SnmpPDU{Name: oid}
	switch v.kind {
	case Integer:
		pdu.Type = gosnmp.Integer
		pdu.Value = int(v.i)
	case OctetString:
		pdu.Type = gosnmp.OctetString
		pdu.Value = []byte(v.s)
	case ObjectIdentifier:
		pdu.Type = gosnmp.ObjectIdentifier
		pdu.Value = v.s
	case Null:
		pdu.Type = gosnmp.Null
		pdu.Value = nil
	case IPAddress:
		pdu.Type = gosnmp.IPAddress
		pdu.Value = v.s
	case Counter32:
		pdu.Type = gosnmp.Counter32
		pdu.Value = uint32(v.u)
	case Gauge32:
		pdu.Type = gosnmp.Gauge32
		pdu.Value = uint32(v.u)
	case TimeTicks:
		pdu.Type = gosnmp.TimeTicks
		pdu.Value = uint32(v.u)
	case Opaque:
		pdu.Type = gosnmp.Opaque
		pdu.Value = v.b
	case Counter64:
		pdu.Type = gosnmp.Counter64
		pdu.Value = v.u
	case NoSuchObject:
		pdu.Type = gosnmp.NoSuchObject
	case NoSuchInstance:
		pdu.Type = gosnmp.NoSuchInstance
	case EndOfMibView:
		pdu.Type = gosnmp.EndOfMibView
	}
	return pdu
}

// FromPDU extracts a Value from a decoded gosnmp.SnmpPDU, the inverse of
// ToPDU, for callers that need to inspect a value carried in a varbind.
func FromPDU(pdu gosnmp.SnmpPDU) (Value, error) {
	switch pdu.Type {
	case gosnmp.Integer:
		n, ok := toInt64(pdu.Value)
		if !ok {
			return Value{}, fmt.Errorf("snmptype: non-numeric Integer payload %T", pdu.Value)
		}
		return NewInteger(n), nil
	case gosnmp.OctetString:
		switch s := pdu.Value.(type) {
		case []byte:
			return NewOctetString(string(s)), nil
		case string:
			return NewOctetString(s), nil
		default:
			return Value{}, fmt.Errorf("snmptype: non-string OctetString payload %T", pdu.Value)
		}
	case gosnmp.ObjectIdentifier:
		s, _ := pdu.Value.(string)
		return NewObjectIdentifier(s), nil
	case gosnmp.Null, gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		switch pdu.Type {
		case gosnmp.NoSuchObject:
			return NewNoSuchObject(), nil
		case gosnmp.NoSuchInstance:
			return NewNoSuchInstance(), nil
		case gosnmp.EndOfMibView:
			return NewEndOfMibView(), nil
		default:
			return NewNull(), nil
		}
	case gosnmp.IPAddress:
		s, _ := pdu.Value.(string)
		return NewIPAddress(s), nil
	case gosnmp.Counter32:
		n, ok := toUint64(pdu.Value)
		if !ok {
			return Value{}, fmt.Errorf("snmptype: non-numeric Counter32 payload %T", pdu.Value)
		}
		return NewCounter32(uint32(n)), nil
	case gosnmp.Gauge32:
		n, ok := toUint64(pdu.Value)
		if !ok {
			return Value{}, fmt.Errorf("snmptype: non-numeric Gauge32 payload %T", pdu.Value)
		}
		return NewGauge32(uint32(n)), nil
	case gosnmp.TimeTicks:
		n, ok := toUint64(pdu.Value)
		if !ok {
			return Value{}, fmt.Errorf("snmptype: non-numeric TimeTicks payload %T", pdu.Value)
		}
		return NewTimeTicks(uint32(n)), nil
	case gosnmp.Opaque:
		b, _ := pdu.Value.([]byte)
		return NewOpaque(b), nil
	case gosnmp.Counter64:
		n, ok := toUint64(pdu.Value)
		if !ok {
			return Value{}, fmt.Errorf("snmptype: non-numeric Counter64 payload %T", pdu.Value)
		}
		return NewCounter64(n), nil
	default:
		return Value{}, fmt.Errorf("snmptype: unsupported ASN.1 tag %v", pdu.Type)
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

func toUint64(v interface{}) (uint64, bool) {
	switch x := v.(type) {
	case int:
		return uint64(x), true
	case int32:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	default:
		return 0, false
	}
}
