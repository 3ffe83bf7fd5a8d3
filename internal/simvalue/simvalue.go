// Package simvalue implements the value-simulation engine (C4): it turns a
// profile entry's static value plus device state and wall time into the
// value actually placed on the wire, so counters grow, gauges fluctuate,
// and uptime advances the way a real device's would.
package simvalue

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/nimbuscomm/snmpdevsim/internal/profile"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

// DeviceView is the read-only slice of device state the simulator needs;
// internal/device builds one from its own fields on every resolution.
type DeviceView struct {
	ID                   string
	Port                 int
	UptimeSeconds         float64
	InterfaceUtilization float64 // [0,1]
	SignalQuality         float64 // [0,1]
	CPUUtilization        float64 // [0,1]

	// PriorCounter is the device-owned high-water mark for this OID (zero
	// the first time it is resolved). Counter behaviors return a new
	// high-water mark via Result.NewCounterHighWater; the device, as sole
	// mutator of its own state, is responsible for persisting it.
	PriorCounter uint64
}

// Result is what Simulate hands back: the wire value, plus an updated
// counter high-water mark when the entry's behavior is one of the counter
// kinds (the device persists this so the next call stays monotonic).
type Result struct {
	Value                snmptype.Value
	NewCounterHighWater  uint64
	IsCounterBehavior    bool
}

// Simulate derives the live value for entry given view and the current
// time.
func Simulate(entry profile.Entry, view DeviceView, now time.Time) Result {
	switch entry.Behavior.Kind {
	case profile.BehaviorUptimeTicks:
		ticks := uint32(math.Floor(view.UptimeSeconds * 100))
		return Result{Value: snmptype.NewTimeTicks(ticks)}

	case profile.BehaviorTrafficCounter:
		return simulateCounter(entry, view, now, trafficCandidate)

	case profile.BehaviorPacketCounter:
		return simulateCounter(entry, view, now, packetCandidate)

	case profile.BehaviorErrorCounter:
		return simulateCounter(entry, view, now, errorCandidate)

	case profile.BehaviorUtilizationGauge:
		return Result{Value: simulateUtilizationGauge(entry, view, now)}

	case profile.BehaviorSignalGauge:
		return Result{Value: simulateSignalGauge(entry, view, now)}

	case profile.BehaviorEnum:
		return Result{Value: simulateEnum(entry, view)}

	default: // BehaviorStatic
		return Result{Value: entry.Static}
	}
}

// todFactor returns the time-of-day traffic multiplier using UTC
// hour-of-day bands: overnight, off-peak, business-hours, early-evening,
// peak-evening.
func todFactor(now time.Time) float64 {
	h := now.UTC().Hour()
	switch {
	case h >= 0 && h < 6:
		return 0.6 // overnight
	case h >= 6 && h < 9:
		return 0.8 // off-peak (morning ramp)
	case h >= 9 && h < 17:
		return 1.0 // business hours
	case h >= 17 && h < 20:
		return 1.3 // early evening
	default: // 20:00–23:59
		return 1.5 // peak evening
	}
}

// seededRand returns a rand.Rand seeded from device id + OID (+ an optional
// salt), so draws are reproducible within a device and request but differ
// across devices and OIDs.
func seededRand(id, oidStr string, salt int64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(oidStr))
	seed := int64(h.Sum64()) ^ salt
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}

// uniform returns a draw from U(-spread, +spread).
func uniform(r *rand.Rand, spread float64) float64 {
	return (r.Float64()*2 - 1) * spread
}

func signalImpact(view DeviceView) float64 {
	return 2.0 - view.SignalQuality
}

type candidateFunc func(entry profile.Entry, view DeviceView, now time.Time) float64

func trafficCandidate(entry profile.Entry, view DeviceView, now time.Time) float64 {
	r := seededRand(view.ID, entry.OIDStr, now.Unix())
	variance := 1 + uniform(r, 0.05)
	return entry.Behavior.BaseRateBps / 8 * view.UptimeSeconds * todFactor(now) * signalImpact(view) * variance
}

func packetCandidate(entry profile.Entry, view DeviceView, now time.Time) float64 {
	r := seededRand(view.ID, entry.OIDStr, now.Unix())
	variance := 1 + uniform(r, 0.07)
	return entry.Behavior.BasePPS * view.UptimeSeconds * todFactor(now) * variance
}

func errorCandidate(entry profile.Entry, view DeviceView, now time.Time) float64 {
	base := entry.Behavior.BaseRate * view.UptimeSeconds * (1 + view.InterfaceUtilization) * signalImpact(view)
	r := seededRand(view.ID, entry.OIDStr, now.UnixNano())
	if r.Float64() < entry.Behavior.BurstProb {
		base += 5 + r.Float64()*10 // U(5,15)
	}
	return base
}

// simulateCounter computes a candidate raw (unwrapped) total via fn, folds
// it against the device's high-water mark so the exported counter never
// regresses except by the modulo wrap itself, and wraps it to the entry's
// declared width.
func simulateCounter(entry profile.Entry, view DeviceView, now time.Time, fn candidateFunc) Result {
	candidate := fn(entry, view, now)
	if candidate < 0 || math.IsNaN(candidate) {
		candidate = 0
	}
	rawCandidate := uint64(math.Floor(candidate))

	rawHighWater := rawCandidate
	if view.PriorCounter > rawHighWater {
		rawHighWater = view.PriorCounter
	}

	width := entry.Behavior.CounterWidth
	if width != 64 {
		width = 32
	}

	var wire snmptype.Value
	var wrapped uint64
	if width == 64 {
		wrapped = rawHighWater // uint64 counters never wrap within any realistic simulated run
		wire = snmptype.NewCounter64(wrapped)
	} else {
		wrapped = rawHighWater % (uint64(1) << 32)
		wire = snmptype.NewCounter32(uint32(wrapped))
	}

	return Result{Value: wire, NewCounterHighWater: rawHighWater, IsCounterBehavior: true}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func simulateUtilizationGauge(entry profile.Entry, view DeviceView, now time.Time) snmptype.Value {
	r := seededRand(view.ID, entry.OIDStr, now.Unix())
	span := entry.Behavior.Max - entry.Behavior.Min
	base := entry.Behavior.Min + span*todFactor(now)/1.5 // todFactor tops out at 1.5
	base = clamp(base, entry.Behavior.Min, entry.Behavior.Max)
	jitter := uniform(r, span*0.10)
	v := clamp(base+jitter, entry.Behavior.Min, entry.Behavior.Max)
	return snmptype.NewGauge32(uint32(math.Round(v)))
}

// signalGaugeFloor/Ceil are the clamp band for a cable SNR reading in dB,
// keeping simulated values within a realistic range for the device class.
const (
	signalGaugeFloor = 15.0
	signalGaugeCeil  = 45.0
)

func simulateSignalGauge(entry profile.Entry, view DeviceView, now time.Time) snmptype.Value {
	r := seededRand(view.ID, entry.OIDStr, now.Unix())
	v := entry.Behavior.Nominal + uniform(r, entry.Behavior.Range)
	v -= view.InterfaceUtilization * entry.Behavior.Range * 0.25 // reduced slightly under load
	v = clamp(v, signalGaugeFloor, signalGaugeCeil)
	return snmptype.NewGauge32(uint32(math.Round(v)))
}

func simulateEnum(entry profile.Entry, view DeviceView) snmptype.Value {
	if len(entry.Behavior.EnumValues) == 0 {
		return entry.Static
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(view.ID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(entry.OIDStr))
	idx := h.Sum64() % uint64(len(entry.Behavior.EnumValues))
	return snmptype.NewInteger(entry.Behavior.EnumValues[idx])
}
