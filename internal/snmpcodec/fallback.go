package snmpcodec

import (
	"fmt"
	"sort"

	"github.com/nimbuscomm/snmpdevsim/internal/oid"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

// FallbackView is the minimal device state the built-in table needs to
// answer without a loaded profile.
type FallbackView struct {
	ID          string
	Port        int
	Class       string
	UptimeTicks uint32
}

type fallbackEntry struct {
	oid      oid.OID
	oidStr   string
	resolve  func(FallbackView) snmptype.Value
}

var fallbackTable []fallbackEntry

func addFallback(oidStr string, resolve func(FallbackView) snmptype.Value) {
	fallbackTable = append(fallbackTable, fallbackEntry{
		oid:     oid.MustParse(oidStr),
		oidStr:  oidStr,
		resolve: resolve,
	})
}

// ifColumn describes one column of the classic ifTable (1.3.6.1.2.1.2.2.1.N.1).
func ifColumn(n int, resolve func(FallbackView) snmptype.Value) {
	addFallback(fmt.Sprintf("1.3.6.1.2.1.2.2.1.%d.1", n), resolve)
}

func init() {
	addFallback("1.3.6.1.2.1.1.1.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewOctetString(classDescription(v.Class))
	})
	addFallback("1.3.6.1.2.1.1.2.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewObjectIdentifier("1.3.6.1.4.1.4491.2.4.1")
	})
	addFallback("1.3.6.1.2.1.1.3.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewTimeTicks(v.UptimeTicks)
	})
	addFallback("1.3.6.1.2.1.1.4.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewOctetString("admin@example.com")
	})
	addFallback("1.3.6.1.2.1.1.5.0", func(v FallbackView) snmptype.Value {
		if v.ID != "" {
			return snmptype.NewOctetString(v.ID)
		}
		return snmptype.NewOctetString(fmt.Sprintf("device_%d", v.Port))
	})
	addFallback("1.3.6.1.2.1.1.6.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewOctetString("Customer Premises")
	})
	addFallback("1.3.6.1.2.1.1.7.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewInteger(2)
	})
	addFallback("1.3.6.1.2.1.2.1.0", func(v FallbackView) snmptype.Value {
		return snmptype.NewInteger(2)
	})

	ifColumn(1, func(v FallbackView) snmptype.Value { return snmptype.NewInteger(1) })
	ifColumn(2, func(v FallbackView) snmptype.Value {
		return snmptype.NewOctetString(fmt.Sprintf("eth0 (%s)", v.Class))
	})
	ifColumn(3, func(v FallbackView) snmptype.Value { return snmptype.NewInteger(6) }) // ethernetCsmacd
	ifColumn(4, func(v FallbackView) snmptype.Value { return snmptype.NewInteger(1500) })
	ifColumn(5, func(v FallbackView) snmptype.Value { return snmptype.NewGauge32(100_000_000) })
	ifColumn(6, func(v FallbackView) snmptype.Value {
		return snmptype.NewOctetString(fmt.Sprintf("\x00\x1a\x2b%02x%02x%02x", v.Port>>16&0xff, v.Port>>8&0xff, v.Port&0xff))
	})
	ifColumn(7, func(v FallbackView) snmptype.Value { return snmptype.NewInteger(1) }) // up
	ifColumn(8, func(v FallbackView) snmptype.Value { return snmptype.NewInteger(1) }) // up
	ifColumn(9, func(v FallbackView) snmptype.Value { return snmptype.NewTimeTicks(0) })
	ifColumn(10, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(11, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(12, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(13, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(14, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(15, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(16, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(17, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(18, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(19, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })
	ifColumn(20, func(v FallbackView) snmptype.Value { return snmptype.NewCounter32(0) })

	sort.Slice(fallbackTable, func(i, j int) bool {
		return oid.Less(fallbackTable[i].oid, fallbackTable[j].oid)
	})
}

var classDescriptions = map[string]string{
	"cable_modem": "Motorola SB6141 DOCSIS 3.0 Cable Modem",
	"mta":         "Arris TM722 Multimedia Terminal Adapter",
	"switch":      "Cisco Catalyst 2960 24-Port Switch",
	"router":      "Cisco ISR 4331 Integrated Services Router",
	"cmts":        "Arris C4 Cable Modem Termination System",
	"server":      "Generic Rackmount Server",
}

func classDescription(class string) string {
	if desc, ok := classDescriptions[class]; ok {
		return desc
	}
	if class == "" {
		return "Generic SNMP Device"
	}
	return fmt.Sprintf("Simulated %s", class)
}

// FallbackGet resolves oid against the built-in table, reporting whether it
// was found.
func FallbackGet(o oid.OID, view FallbackView) (snmptype.Value, bool) {
	for _, e := range fallbackTable {
		if oid.Compare(e.oid, o) == oid.OrderEqual {
			return e.resolve(view), true
		}
	}
	return snmptype.Value{}, false
}

// FallbackSuccessor returns the smallest registered OID strictly greater
// than query, which is how GETNEXT enters and walks the built-in table: a
// query of "1", "1.3", "1.3.6", ... "1.3.6.1.2.1.1" each land on
// 1.3.6.1.2.1.1.1.0, since a strict prefix numerically compares as less
// than anything it prefixes.
func FallbackSuccessor(query oid.OID) (oid.OID, bool) {
	// fallbackTable is sorted; find the first entry strictly greater.
	for _, e := range fallbackTable {
		if oid.Less(query, e.oid) {
			return e.oid, true
		}
	}
	return oid.OID{}, false
}

// FallbackValueFor resolves the value at a successor OID previously
// returned by FallbackSuccessor or FallbackGet's own oid.
func FallbackValueFor(o oid.OID, view FallbackView) (snmptype.Value, bool) {
	return FallbackGet(o, view)
}
