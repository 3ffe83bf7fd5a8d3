package simvalue

import (
	"testing"
	"time"

	"github.com/nimbuscomm/snmpdevsim/internal/profile"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

func trafficEntry() profile.Entry {
	return profile.Entry{
		OIDStr: "1.3.6.1.2.1.2.2.1.10.1",
		Type:   snmptype.Counter32,
		Static: snmptype.NewCounter32(0),
		Behavior: profile.Behavior{
			Kind:         profile.BehaviorTrafficCounter,
			BaseRateBps:  1_000_000,
			CounterWidth: 32,
		},
	}
}

func TestUptimeTicksIsHundredthsOfSecond(t *testing.T) {
	e := profile.Entry{Behavior: profile.Behavior{Kind: profile.BehaviorUptimeTicks}}
	res := Simulate(e, DeviceView{UptimeSeconds: 123.45}, time.Now())
	if got := res.Value.Uint(); got != 12345 {
		t.Fatalf("uptime ticks = %d, want 12345", got)
	}
}

func TestCounterMonotoneAcrossAdvancingTime(t *testing.T) {
	e := trafficEntry()
	base := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	view := DeviceView{ID: "dev-1", UptimeSeconds: 10, SignalQuality: 1.0}
	var prior uint64
	for i := 0; i < 50; i++ {
		now := base.Add(time.Duration(i) * time.Minute)
		view.UptimeSeconds = 10 + float64(i*60)
		view.PriorCounter = prior
		res := Simulate(e, view, now)
		if res.NewCounterHighWater < prior {
			t.Fatalf("iteration %d: high-water regressed from %d to %d", i, prior, res.NewCounterHighWater)
		}
		wire := res.Value.Uint()
		if wire > res.NewCounterHighWater {
			t.Fatalf("wire value %d exceeds high-water %d", wire, res.NewCounterHighWater)
		}
		prior = res.NewCounterHighWater
	}
	if prior == 0 {
		t.Fatal("expected counter to have accrued something over 50 minutes of uptime")
	}
}

func TestCounterIsolatedPerDevice(t *testing.T) {
	e := trafficEntry()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	viewA := DeviceView{ID: "dev-a", UptimeSeconds: 3600, SignalQuality: 1.0}
	viewB := DeviceView{ID: "dev-b", UptimeSeconds: 3600, SignalQuality: 1.0}

	resA := Simulate(e, viewA, now)

	// Advancing device A's own high-water mark must never leak into a
	// fresh resolution for device B starting from its own zero state.
	viewA.PriorCounter = resA.NewCounterHighWater
	_ = Simulate(e, viewA, now)

	if viewB.PriorCounter != 0 {
		t.Fatalf("device B's view was mutated by device A's simulation")
	}
	_ = Simulate(e, viewB, now)
}

func TestEnumIsDeterministicForSameDeviceAndOID(t *testing.T) {
	e := profile.Entry{
		OIDStr: "1.3.6.1.2.1.2.2.1.8.1",
		Behavior: profile.Behavior{
			Kind:       profile.BehaviorEnum,
			EnumValues: []int64{1, 2, 3},
		},
	}
	view := DeviceView{ID: "dev-1"}
	first := Simulate(e, view, time.Now()).Value.Int()
	second := Simulate(e, view, time.Now()).Value.Int()
	if first != second {
		t.Fatalf("enum selection not stable: %d vs %d", first, second)
	}
}

func TestSignalGaugeStaysWithinClampBand(t *testing.T) {
	e := profile.Entry{
		OIDStr: "1.3.6.1.2.1.10.127.1.1.4.1.5.3",
		Behavior: profile.Behavior{
			Kind:    profile.BehaviorSignalGauge,
			Nominal: 35,
			Range:   5,
		},
	}
	view := DeviceView{ID: "dev-1", InterfaceUtilization: 1.0}
	v := Simulate(e, view, time.Now()).Value.Uint()
	if v < signalGaugeFloor || v > signalGaugeCeil {
		t.Fatalf("signal gauge %d outside [%v,%v]", v, signalGaugeFloor, signalGaugeCeil)
	}
}

func TestUtilizationGaugeStaysWithinDeclaredRange(t *testing.T) {
	e := profile.Entry{
		OIDStr: "1.3.6.1.2.1.25.3.3.1.2.1",
		Behavior: profile.Behavior{
			Kind: profile.BehaviorUtilizationGauge,
			Min:  0,
			Max:  100,
		},
	}
	view := DeviceView{ID: "dev-1"}
	for h := 0; h < 24; h++ {
		now := time.Date(2026, 7, 31, h, 0, 0, 0, time.UTC)
		v := Simulate(e, view, now).Value.Uint()
		if v > 100 {
			t.Fatalf("hour %d: utilization gauge %d exceeds Max", h, v)
		}
	}
}

func TestStaticBehaviorPassesValueThrough(t *testing.T) {
	e := profile.Entry{
		Behavior: profile.Behavior{Kind: profile.BehaviorStatic},
		Static:   snmptype.NewOctetString("Motorola SB6141"),
	}
	res := Simulate(e, DeviceView{}, time.Now())
	if res.Value.Str() != "Motorola SB6141" {
		t.Fatalf("static passthrough failed: %q", res.Value.Str())
	}
	if res.IsCounterBehavior {
		t.Fatal("static entry should not be flagged as a counter behavior")
	}
}
