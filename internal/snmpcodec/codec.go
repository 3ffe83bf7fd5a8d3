// Package snmpcodec implements the PDU codec (C1): decoding SNMPv1/v2c
// request packets and encoding response packets, including the v1
// exception-to-error-response conversion. The GETBULK end-of-MIB rule is
// applied by the device before it calls EncodeResponse.
package snmpcodec

import (
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// DecodeError wraps a failure to parse an inbound datagram as either
// SNMPv1 or SNMPv2c.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("snmpcodec: decode: %v", e.Cause) }
func (e *DecodeError) Unwrap() error { return e.Cause }

// Decode parses packet as SNMPv2c first, falling back to SNMPv1; unlike a
// live gosnmp client decoder, the simulator never knows in advance which
// version a given sender will use, so both are tried in turn.
func Decode(packet []byte) (*gosnmp.SnmpPacket, error) {
	v2c := gosnmp.GoSNMP{Version: gosnmp.Version2c}
	if req, err := v2c.SnmpDecodePacket(packet); err == nil {
		return req, nil
	}

	v1 := gosnmp.GoSNMP{Version: gosnmp.Version1}
	req, err := v1.SnmpDecodePacket(packet)
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	return req, nil
}

// hasException reports whether vars contains a v2c exception marker, and
// if so the 1-based index of the first one (for v1 error_index).
func hasException(vars []gosnmp.SnmpPDU) (index int, found bool) {
	for i, v := range vars {
		switch v.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
			return i + 1, true
		}
	}
	return 0, false
}

// EncodeResponse builds and marshals a GetResponse (or, for SNMPv1 when an
// exception marker is present, an error-response with error_status =
// noSuchName) bound to req.
func EncodeResponse(req *gosnmp.SnmpPacket, vars []gosnmp.SnmpPDU, errStatus gosnmp.SNMPError, errIndex uint8) ([]byte, error) {
	resp := &gosnmp.SnmpPacket{
		Version:   req.Version,
		Community: req.Community,
		PDUType:   gosnmp.GetResponse,
		RequestID: req.RequestID,
		Error:     errStatus,
		ErrorIndex: errIndex,
		Variables: vars,
	}

	if req.Version == gosnmp.Version1 && errStatus == gosnmp.NoError {
		if idx, found := hasException(vars); found {
			resp.Error = gosnmp.NoSuchName
			resp.ErrorIndex = uint8(idx)
			resp.Variables = stripV1Exceptions(vars)
		}
	}

	return resp.MarshalMsg()
}

// stripV1Exceptions replaces exception-marker varbinds with Null, since
// SNMPv1 carries the failure in error_status/error_index, not per-varbind.
func stripV1Exceptions(vars []gosnmp.SnmpPDU) []gosnmp.SnmpPDU {
	out := make([]gosnmp.SnmpPDU, len(vars))
	for i, v := range vars {
		switch v.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
			out[i] = gosnmp.SnmpPDU{Name: v.Name, Type: gosnmp.Null}
		default:
			out[i] = v
		}
	}
	return out
}

// EncodeGenErr builds a v1/v2c error-response with error_status = genErr,
// used when resolution panics or fails unexpectedly.
func EncodeGenErr(req *gosnmp.SnmpPacket, errIndex uint8) ([]byte, error) {
	resp := &gosnmp.SnmpPacket{
		Version:    req.Version,
		Community:  req.Community,
		PDUType:    gosnmp.GetResponse,
		RequestID:  req.RequestID,
		Error:      gosnmp.GenErr,
		ErrorIndex: errIndex,
		Variables:  req.Variables,
	}
	return resp.MarshalMsg()
}
