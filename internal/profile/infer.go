package profile

import (
	"strings"

	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

// inferBehavior assigns a Behavior to a freshly loaded entry from its OID
// prefix and declared type. Defaults that are reasonable for an
// unannotated walk file: traffic/packet counters at modest rates, gauges
// spanning their natural range. LoadWalkProfile always uses the inferred
// Behavior; a caller that needs a different one builds the Entries itself
// and passes them to StoreProfile.
func inferBehavior(oidStr string, snmpType snmptype.Kind) Behavior {
	switch {
	case matchesAny(oidStr,
		"1.3.6.1.2.1.2.2.1.10.", // ifInOctets
		"1.3.6.1.2.1.2.2.1.16.", // ifOutOctets
		"1.3.6.1.2.1.31.1.1.1.6.",  // ifHCInOctets
		"1.3.6.1.2.1.31.1.1.1.10.", // ifHCOutOctets
	):
		width := 32
		baseRate := 1_000_000.0
		if snmpType == snmptype.Counter64 {
			width = 64
			baseRate = 100_000_000.0
		}
		return Behavior{Kind: BehaviorTrafficCounter, BaseRateBps: baseRate, CounterWidth: width}

	case matchesAny(oidStr,
		"1.3.6.1.2.1.2.2.1.11.", // ifInUcastPkts
		"1.3.6.1.2.1.2.2.1.17.", // ifOutUcastPkts
	):
		return Behavior{Kind: BehaviorPacketCounter, BasePPS: 500}

	case matchesAny(oidStr,
		"1.3.6.1.2.1.2.2.1.14.", // ifInErrors
		"1.3.6.1.2.1.2.2.1.20.", // ifOutErrors
	):
		return Behavior{Kind: BehaviorErrorCounter, BaseRate: 0.01, BurstProb: 0.02}

	case oidStr == "1.3.6.1.2.1.1.3.0": // sysUpTime
		return Behavior{Kind: BehaviorUptimeTicks}

	case strings.HasPrefix(oidStr, "1.3.6.1.2.1.10.127.1.1.4.1.5."): // docsIfSigQSignalNoise
		return Behavior{Kind: BehaviorSignalGauge, Nominal: 35, Range: 5}

	case strings.HasPrefix(oidStr, "1.3.6.1.2.1.25.3.3.1.2."): // hrProcessorLoad
		return Behavior{Kind: BehaviorUtilizationGauge, Min: 0, Max: 100}

	default:
		return Behavior{Kind: BehaviorStatic}
	}
}

func matchesAny(oidStr string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(oidStr, p) {
			return true
		}
	}
	return false
}
