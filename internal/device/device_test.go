package device

import (
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nimbuscomm/snmpdevsim/internal/oid"
	"github.com/nimbuscomm/snmpdevsim/internal/profile"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

func sampleStore() *profile.Store {
	s := profile.NewStore()
	s.LoadWalkProfile("cable_modem", []profile.WalkTriple{
		{OID: "1.3.6.1.2.1.1.1.0", Type: snmptype.OctetString, Value: snmptype.NewOctetString("Motorola SB6141")},
		{OID: "1.3.6.1.2.1.2.2.1.10.1", Type: snmptype.Counter32, Value: snmptype.NewCounter32(0)},
	})
	return s
}

func TestGetFallsBackToBuiltinTableWithoutProfile(t *testing.T) {
	d := New("dev1", "unknown_class", 40000, "public", profile.NewStore(), nil)
	val, ok := d.Get(oid.MustParse("1.3.6.1.2.1.1.1.0"))
	if !ok {
		t.Fatal("expected fallback hit for sysDescr")
	}
	if val.Kind() != snmptype.OctetString {
		t.Fatalf("expected octet_string, got %v", val.Kind())
	}
}

func TestGetSysDescrMatchesCableModemLiteralWithoutProfile(t *testing.T) {
	d := New("dev1", "cable_modem", 30000, "public", profile.NewStore(), nil)
	val, ok := d.Get(oid.MustParse("1.3.6.1.2.1.1.1.0"))
	if !ok {
		t.Fatal("expected fallback hit for sysDescr")
	}
	const want = "Motorola SB6141 DOCSIS 3.0 Cable Modem"
	if val.Str() != want {
		t.Fatalf("sysDescr = %q, want %q", val.Str(), want)
	}
}

func TestGetResolvesFromProfileWhenPresent(t *testing.T) {
	d := New("dev1", "cable_modem", 30000, "public", sampleStore(), nil)
	val, ok := d.Get(oid.MustParse("1.3.6.1.2.1.1.1.0"))
	if !ok || val.Str() != "Motorola SB6141" {
		t.Fatalf("expected profile value, got %+v ok=%v", val, ok)
	}
}

func TestGetNextNeverReturnsStartOID(t *testing.T) {
	d := New("dev1", "cable_modem", 30000, "public", sampleStore(), nil)
	start := oid.MustParse("1.3.6.1.2.1.1.1.0")
	next, _, ok := d.GetNext(start)
	if !ok {
		t.Fatal("expected a successor")
	}
	if next.String() == start.String() {
		t.Fatal("GetNext returned the query OID")
	}
}

func TestCounterHighWaterPersistsAcrossCalls(t *testing.T) {
	d := New("dev1", "cable_modem", 30000, "public", sampleStore(), nil)
	o := oid.MustParse("1.3.6.1.2.1.2.2.1.10.1")

	first, ok := d.Get(o)
	if !ok {
		t.Fatal("expected counter entry")
	}
	time.Sleep(2 * time.Millisecond)
	second, ok := d.Get(o)
	if !ok {
		t.Fatal("expected counter entry")
	}
	if second.Uint() < first.Uint() {
		t.Fatalf("counter regressed: %d then %d", first.Uint(), second.Uint())
	}
}

func TestGetBulkAtEndOfMibReturnsSingleMarkerBoundToStart(t *testing.T) {
	d := New("dev1", "cable_modem", 30000, "public", sampleStore(), nil)
	start := "1.3.6.1.2.1.2.2.1.20.1" // last entry in the built-in fallback table
	req := &gosnmp.SnmpPacket{
		NonRepeaters:   0,
		MaxRepetitions: 10,
		Variables:      []gosnmp.SnmpPDU{{Name: start, Type: gosnmp.Null}},
	}
	out := d.handleGetBulk(req)
	if len(out) != 1 {
		t.Fatalf("expected exactly one varbind at end of MIB, got %d", len(out))
	}
	if out[0].Type != gosnmp.EndOfMibView {
		t.Fatalf("expected end_of_mib_view, got %v", out[0].Type)
	}
	if out[0].Name != start {
		t.Fatalf("expected marker bound to start OID %q, got %q", start, out[0].Name)
	}
}

func TestInfoReportsBootingBeforeStart(t *testing.T) {
	d := New("dev1", "cable_modem", 30000, "public", sampleStore(), nil)
	if d.State() != Booting {
		t.Fatalf("expected Booting, got %v", d.State())
	}
	info := d.Info()
	if info.ID != "dev1" || !info.HasProfile || info.State != Booting.String() {
		t.Fatalf("unexpected info: %+v", info)
	}
}
