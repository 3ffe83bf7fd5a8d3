package profile

import "github.com/nimbuscomm/snmpdevsim/internal/snmptype"

// WalkTriple is the shape the walk-file parser (internal/walkfile) hands
// to LoadWalkProfile: a numeric OID string, its declared SNMP type, and
// the static value carried at that type. Name is the optional symbolic
// name from the source line, kept for diagnostics only.
type WalkTriple struct {
	OID   string
	Type  snmptype.Kind
	Value snmptype.Value
	Name  string
}
