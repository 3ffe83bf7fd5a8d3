// Package profile implements the shared, per-device-class profile store
// (C3): an ordered OID -> (type, static value, behavior hint) map loaded
// from parsed walk data and read concurrently by many simulated devices.
package profile

import (
	"github.com/nimbuscomm/snmpdevsim/internal/oid"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

// BehaviorKind selects which simulation behavior (internal/simvalue) applies
// to an Entry's static value.
type BehaviorKind int

const (
	BehaviorStatic BehaviorKind = iota
	BehaviorTrafficCounter
	BehaviorPacketCounter
	BehaviorErrorCounter
	BehaviorUtilizationGauge
	BehaviorSignalGauge
	BehaviorUptimeTicks
	BehaviorEnum
)

// Behavior is a flat tagged struct carrying the parameters for whichever
// BehaviorKind it holds. Only the fields relevant to Kind are meaningful.
type Behavior struct {
	Kind BehaviorKind

	// traffic_counter / packet_counter / error_counter
	BaseRateBps  float64
	BasePPS      float64
	BaseRate     float64
	BurstProb    float64
	CounterWidth int // 32 or 64, traffic_counter only

	// utilization_gauge / signal_gauge
	Min     float64
	Max     float64
	Nominal float64
	Range   float64

	// enum
	EnumValues []int64
}

// Entry is one profile record: the OID, its declared wire type, the static
// value as loaded from the walk file, and the inferred behavior hint.
type Entry struct {
	OID      oid.OID
	OIDStr   string
	Type     snmptype.Kind
	Static   snmptype.Value
	Behavior Behavior
}
