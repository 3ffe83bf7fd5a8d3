// Package walkfile parses SNMP "walk" files into the stream of
// (numeric_oid, type, value) triples the profile store consumes. Its
// interface (Parse producing []profile.WalkTriple) is what the core
// depends on; a production build might swap this for a fuller MIB-aware
// parser without the profile store noticing.
package walkfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nimbuscomm/snmpdevsim/internal/profile"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

// Stats reports how many lines were accepted vs skipped during a Parse.
type Stats struct {
	Accepted int
	Skipped  int
}

// Parse reads a walk file (one of two supported line shapes) and returns
// the accepted triples plus counts. Lines that fail to parse are counted
// in Stats.Skipped and otherwise ignored — never fatal.
func Parse(r io.Reader) ([]profile.WalkTriple, Stats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var triples []profile.WalkTriple
	var stats Stats

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseLine(line)
		if err != nil {
			stats.Skipped++
			continue
		}
		triples = append(triples, t)
		stats.Accepted++
	}
	if err := scanner.Err(); err != nil {
		return triples, stats, fmt.Errorf("walkfile: scan: %w", err)
	}
	return triples, stats, nil
}

func parseLine(line string) (profile.WalkTriple, error) {
	lhs, rhs, ok := strings.Cut(line, " = ")
	if !ok {
		return profile.WalkTriple{}, fmt.Errorf("walkfile: missing ' = ' separator: %q", line)
	}
	lhs = strings.TrimSpace(lhs)
	rhs = strings.TrimSpace(rhs)

	oidStr, name, err := resolveOID(lhs)
	if err != nil {
		return profile.WalkTriple{}, err
	}

	kind, val, err := parseTypedValue(rhs)
	if err != nil {
		return profile.WalkTriple{}, err
	}

	return profile.WalkTriple{OID: oidStr, Type: kind, Value: val, Name: name}, nil
}

// resolveOID handles both line shapes: a leading-dot numeric OID, or a
// "MIB-NAME::symbol[.suffix]" name resolved through the small built-in
// table below (no textual MIB compilation — that is an explicit Non-goal).
func resolveOID(lhs string) (oidStr string, name string, err error) {
	if strings.HasPrefix(lhs, ".") || isAllNumericPath(lhs) {
		return strings.TrimPrefix(lhs, "."), "", nil
	}

	mib, rest, ok := strings.Cut(lhs, "::")
	if !ok {
		return "", "", fmt.Errorf("walkfile: unrecognised OID form: %q", lhs)
	}
	_ = mib

	base, suffix, _ := strings.Cut(rest, ".")
	oid, ok := builtinMIBSymbols[base]
	if !ok {
		return "", "", fmt.Errorf("walkfile: unknown MIB symbol: %s::%s", mib, rest)
	}
	if suffix != "" {
		oid = oid + "." + suffix
	}
	return oid, rest, nil
}

func isAllNumericPath(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// parseTypedValue parses the RHS "<TYPE>: <value>" shape.
func parseTypedValue(rhs string) (snmptype.Kind, snmptype.Value, error) {
	typeTok, valueTok, ok := strings.Cut(rhs, ":")
	if !ok {
		return 0, snmptype.Value{}, fmt.Errorf("walkfile: missing type separator in %q", rhs)
	}
	typeTok = strings.TrimSpace(typeTok)
	valueTok = strings.TrimSpace(valueTok)

	switch typeTok {
	case "STRING":
		return snmptype.OctetString, snmptype.NewOctetString(unquote(valueTok)), nil
	case "INTEGER":
		n, err := strconv.ParseInt(firstField(valueTok), 10, 64)
		if err != nil {
			return 0, snmptype.Value{}, fmt.Errorf("walkfile: bad INTEGER %q: %w", valueTok, err)
		}
		return snmptype.Integer, snmptype.NewInteger(n), nil
	case "Gauge32":
		n, err := strconv.ParseUint(firstField(valueTok), 10, 32)
		if err != nil {
			return 0, snmptype.Value{}, fmt.Errorf("walkfile: bad Gauge32 %q: %w", valueTok, err)
		}
		return snmptype.Gauge32, snmptype.NewGauge32(uint32(n)), nil
	case "Counter32":
		n, err := strconv.ParseUint(firstField(valueTok), 10, 32)
		if err != nil {
			return 0, snmptype.Value{}, fmt.Errorf("walkfile: bad Counter32 %q: %w", valueTok, err)
		}
		return snmptype.Counter32, snmptype.NewCounter32(uint32(n)), nil
	case "Counter64":
		n, err := strconv.ParseUint(firstField(valueTok), 10, 64)
		if err != nil {
			return 0, snmptype.Value{}, fmt.Errorf("walkfile: bad Counter64 %q: %w", valueTok, err)
		}
		return snmptype.Counter64, snmptype.NewCounter64(n), nil
	case "Timeticks":
		// "(<ticks>) <human>" — only the parenthesised integer is semantic.
		open := strings.Index(valueTok, "(")
		close := strings.Index(valueTok, ")")
		if open < 0 || close <= open {
			return 0, snmptype.Value{}, fmt.Errorf("walkfile: bad Timeticks %q", valueTok)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(valueTok[open+1:close]), 10, 32)
		if err != nil {
			return 0, snmptype.Value{}, fmt.Errorf("walkfile: bad Timeticks %q: %w", valueTok, err)
		}
		return snmptype.TimeTicks, snmptype.NewTimeTicks(uint32(n)), nil
	case "Hex-STRING":
		return snmptype.OctetString, snmptype.NewOctetString(valueTok), nil
	case "OID":
		return snmptype.ObjectIdentifier, snmptype.NewObjectIdentifier(strings.TrimPrefix(valueTok, ".")), nil
	case "IpAddress":
		return snmptype.IPAddress, snmptype.NewIPAddress(valueTok), nil
	case "Opaque":
		return snmptype.Opaque, snmptype.NewOpaque([]byte(valueTok)), nil
	default:
		return 0, snmptype.Value{}, fmt.Errorf("walkfile: unrecognised type token %q", typeTok)
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

// builtinMIBSymbols maps a handful of common MIB-II object names to their
// numeric OID base, enough to resolve the symbolic form of the system and
// interfaces groups without a full MIB compiler.
var builtinMIBSymbols = map[string]string{
	"sysDescr":      "1.3.6.1.2.1.1.1",
	"sysObjectID":   "1.3.6.1.2.1.1.2",
	"sysUpTime":     "1.3.6.1.2.1.1.3",
	"sysContact":    "1.3.6.1.2.1.1.4",
	"sysName":       "1.3.6.1.2.1.1.5",
	"sysLocation":   "1.3.6.1.2.1.1.6",
	"sysServices":   "1.3.6.1.2.1.1.7",
	"ifNumber":      "1.3.6.1.2.1.2.1",
	"ifIndex":       "1.3.6.1.2.1.2.2.1.1",
	"ifDescr":       "1.3.6.1.2.1.2.2.1.2",
	"ifType":        "1.3.6.1.2.1.2.2.1.3",
	"ifMtu":         "1.3.6.1.2.1.2.2.1.4",
	"ifSpeed":       "1.3.6.1.2.1.2.2.1.5",
	"ifPhysAddress": "1.3.6.1.2.1.2.2.1.6",
	"ifAdminStatus": "1.3.6.1.2.1.2.2.1.7",
	"ifOperStatus":  "1.3.6.1.2.1.2.2.1.8",
	"ifInOctets":    "1.3.6.1.2.1.2.2.1.10",
	"ifInUcastPkts": "1.3.6.1.2.1.2.2.1.11",
	"ifInErrors":    "1.3.6.1.2.1.2.2.1.14",
	"ifOutOctets":   "1.3.6.1.2.1.2.2.1.16",
	"ifOutUcastPkts": "1.3.6.1.2.1.2.2.1.17",
	"ifOutErrors":   "1.3.6.1.2.1.2.2.1.20",
}
