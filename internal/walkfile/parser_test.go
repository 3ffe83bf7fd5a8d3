package walkfile

import (
	"strings"
	"testing"

	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

const sample = `
# comment lines and blanks are ignored

SNMPv2-MIB::sysDescr.0 = STRING: "Motorola SB6141 DOCSIS 3.0 Cable Modem"
SNMPv2-MIB::sysUpTime.0 = Timeticks: (12345678) 1 day, 10:17:36.78
IF-MIB::ifInOctets.1 = Counter32: 1000000
.1.3.6.1.2.1.2.2.1.10.2 = Counter64: 9999999999
this line is garbage and should be skipped
`

func TestParseAcceptsBothLineShapes(t *testing.T) {
	triples, stats, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.Accepted != 4 {
		t.Fatalf("accepted = %d, want 4 (stats=%+v)", stats.Accepted, stats)
	}
	if stats.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", stats.Skipped)
	}

	byOID := map[string]string{}
	for _, tr := range triples {
		byOID[tr.OID] = tr.Value.Str()
	}
	if byOID["1.3.6.1.2.1.1.1.0"] != "Motorola SB6141 DOCSIS 3.0 Cable Modem" {
		t.Fatalf("sysDescr mismatch: %+v", triples)
	}

	for _, tr := range triples {
		if tr.OID == "1.3.6.1.2.1.1.3.0" {
			if tr.Type != snmptype.TimeTicks || tr.Value.Uint() != 12345678 {
				t.Fatalf("sysUpTime mismatch: %+v", tr)
			}
		}
		if tr.OID == "1.3.6.1.2.1.2.2.1.10.2" {
			if tr.Type != snmptype.Counter64 || tr.Value.Uint() != 9999999999 {
				t.Fatalf("Counter64 mismatch: %+v", tr)
			}
		}
	}
}

func TestParseUnknownMIBSymbolIsSkippedNotFatal(t *testing.T) {
	data := "BOGUS-MIB::notAThing.0 = STRING: \"x\"\n.1.3.6.1.2.1.1.1.0 = STRING: \"ok\"\n"
	triples, stats, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.Skipped != 1 || stats.Accepted != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(triples) != 1 || triples[0].OID != "1.3.6.1.2.1.1.1.0" {
		t.Fatalf("triples = %+v", triples)
	}
}
