// Package device implements the per-port device instance (C5) and its
// request pipeline (C7): a UDP socket, a small local state machine, and
// the decode → resolve → encode handler described in the core design.
package device

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gosnmp/gosnmp"
	"golang.org/x/sys/unix"

	"github.com/nimbuscomm/snmpdevsim/internal/metrics"
	"github.com/nimbuscomm/snmpdevsim/internal/oid"
	"github.com/nimbuscomm/snmpdevsim/internal/profile"
	"github.com/nimbuscomm/snmpdevsim/internal/simvalue"
	"github.com/nimbuscomm/snmpdevsim/internal/snmpcodec"
	"github.com/nimbuscomm/snmpdevsim/internal/snmptype"
)

// State is one point in the device's Booting → Running → Stopping →
// Stopped lifecycle.
type State int32

const (
	Booting State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Booting:
		return "booting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Device is one simulated network element bound to a single UDP port.
type Device struct {
	ID        string
	Class     string
	Port      int
	Community string
	MAC       string

	uptimeEpoch time.Time
	store       *profile.Store
	metrics     *metrics.Registry

	mu         sync.Mutex // serialises counters/gauges/last_access mutation (invariant 3)
	counters   map[string]uint64
	gauges     map[string]int64
	lastAccess time.Time

	state  atomic.Int32
	conn   *net.UDPConn
	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a device in the Booting state. Call Start to bind its
// socket and begin serving.
func New(id, class string, port int, community string, store *profile.Store, reg *metrics.Registry) *Device {
	if community == "" {
		community = "public"
	}
	now := time.Now()
	d := &Device{
		ID:          id,
		Class:       class,
		Port:        port,
		Community:   community,
		MAC:         deriveMAC(id, port),
		uptimeEpoch: now,
		store:       store,
		metrics:     reg,
		counters:    make(map[string]uint64),
		gauges:      make(map[string]int64),
		lastAccess:  now,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	d.state.Store(int32(Booting))
	return d
}

func deriveMAC(id string, port int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum64()
	return fmt.Sprintf("02:%02x:%02x:%02x:%02x:%02x",
		byte(sum>>32), byte(sum>>24), byte(sum>>16), byte(port>>8), byte(port))
}

// State reports the device's current lifecycle state.
func (d *Device) State() State { return State(d.state.Load()) }

// Start binds the device's UDP socket and launches its receive loop,
// transitioning Booting → Running.
func (d *Device) Start() error {
	addr := &net.UDPAddr{Port: d.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("device %s: bind port %d: %w", d.ID, d.Port, err)
	}
	if err := tuneSocket(conn); err != nil {
		log.Printf("device %s: socket tuning: %v", d.ID, err)
	}
	d.conn = conn
	d.state.Store(int32(Running))
	go d.serve()
	return nil
}

// tuneSocket enlarges the UDP receive/send buffers so a burst of requests
// across many simulated devices doesn't drop datagrams, and enables
// SO_REUSEPORT where the kernel supports it.
func tuneSocket(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw conn: %w", err)
	}

	var setErr error
	err = rawConn.Control(func(fd uintptr) {
		ifd := int(fd)
		if e := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, 256*1024); e != nil {
			setErr = fmt.Errorf("SO_RCVBUF: %w", e)
			return
		}
		if e := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, 256*1024); e != nil {
			setErr = fmt.Errorf("SO_SNDBUF: %w", e)
			return
		}
		if e := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, int(unix.SO_REUSEPORT), 1); e != nil {
			log.Printf("SO_REUSEPORT not available: %v", e)
		}
	})
	if err != nil {
		return fmt.Errorf("rawConn.Control: %w", err)
	}
	return setErr
}

// serve is the device's receive loop. It exits cooperatively when stopCh
// closes, after which Stop drains nothing further and closes the socket.
func (d *Device) serve() {
	defer close(d.doneCh)
	buf := make([]byte, 4096)
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		_ = d.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-d.stopCh:
				return
			default:
				continue
			}
		}

		packet := make([]byte, n)
		copy(packet, buf[:n])
		d.handlePacket(packet, addr)
	}
}

// Stop asks the receive loop to exit, waits for the in-flight request to
// drain, then closes the socket and releases local state (Running →
// Stopping → Stopped).
func (d *Device) Stop() {
	if !d.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		if d.State() == Stopped {
			return
		}
	}
	close(d.stopCh)
	if d.conn != nil {
		<-d.doneCh
		_ = d.conn.Close()
	}
	d.state.Store(int32(Stopped))
}

func (d *Device) touchLastAccess() {
	d.mu.Lock()
	d.lastAccess = time.Now()
	d.mu.Unlock()
}

// LastAccess reports the last time this device handled a request.
func (d *Device) LastAccess() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastAccess
}

// handlePacket decodes an incoming datagram, checks the community string,
// dispatches to the right PDU handler, and encodes a response. A panic
// during resolution is recovered and converted to genErr/no_such_object,
// rather than crashing the device or closing its socket.
func (d *Device) handlePacket(packet []byte, addr *net.UDPAddr) {
	var req *gosnmp.SnmpPacket
	defer func() {
		if r := recover(); r != nil {
			log.Printf("device %s: recovered from panic handling packet: %v", d.ID, r)
			if d.metrics != nil {
				d.metrics.HandlerPanics.Inc()
			}
			if req == nil {
				return
			}
			if req.Version == gosnmp.Version1 {
				d.respondGenErr(req, addr)
				return
			}
			vars := make([]gosnmp.SnmpPDU, len(req.Variables))
			for i, v := range req.Variables {
				vars[i] = snmptype.NewNoSuchObject().ToPDU(v.Name)
			}
			if resp, err := snmpcodec.EncodeResponse(req, vars, gosnmp.NoError, 0); err == nil {
				_, _ = d.conn.WriteToUDP(resp, addr)
			}
		}
	}()

	req, err := snmpcodec.Decode(packet)
	if err != nil {
		if d.metrics != nil {
			d.metrics.DecodeErrors.Inc()
		}
		return
	}

	if req.Community != d.Community {
		return // community mismatch: drop silently, no response sent
	}

	d.touchLastAccess()

	var vars []gosnmp.SnmpPDU
	switch req.PDUType {
	case gosnmp.GetNextRequest:
		vars = d.handleGetNext(req.Variables)
	case gosnmp.GetBulkRequest:
		vars = d.handleGetBulk(req)
	case gosnmp.SetRequest:
		d.respondGenErr(req, addr)
		return
	default:
		vars = d.handleGet(req.Variables)
	}

	resp, err := snmpcodec.EncodeResponse(req, vars, gosnmp.NoError, 0)
	if err != nil {
		log.Printf("device %s: encode response: %v", d.ID, err)
		if d.metrics != nil {
			d.metrics.EncodeErrors.Inc()
		}
		return
	}
	if _, err := d.conn.WriteToUDP(resp, addr); err != nil {
		log.Printf("device %s: write response: %v", d.ID, err)
	}
	if d.metrics != nil {
		d.metrics.RequestsHandled.Inc()
	}
}

func (d *Device) respondGenErr(req *gosnmp.SnmpPacket, addr *net.UDPAddr) {
	resp, err := snmpcodec.EncodeGenErr(req, 1)
	if err != nil {
		return
	}
	_, _ = d.conn.WriteToUDP(resp, addr)
}

func (d *Device) handleGet(vars []gosnmp.SnmpPDU) []gosnmp.SnmpPDU {
	out := make([]gosnmp.SnmpPDU, len(vars))
	for i, v := range vars {
		o, err := oid.Parse(v.Name)
		if err != nil {
			out[i] = snmptype.NewNoSuchObject().ToPDU(v.Name)
			continue
		}
		val, ok := d.resolveOne(o)
		if !ok {
			out[i] = snmptype.NewNoSuchObject().ToPDU(o.String())
			continue
		}
		out[i] = val.ToPDU(o.String())
	}
	return out
}

func (d *Device) handleGetNext(vars []gosnmp.SnmpPDU) []gosnmp.SnmpPDU {
	out := make([]gosnmp.SnmpPDU, len(vars))
	for i, v := range vars {
		o, err := oid.Parse(v.Name)
		if err != nil {
			out[i] = snmptype.NewEndOfMibView().ToPDU(v.Name)
			continue
		}
		next, val := d.resolveNext(o)
		out[i] = val.ToPDU(next.String())
	}
	return out
}

// nextOID resolves the successor OID via the profile store, falling back
// to the built-in table.
func (d *Device) nextOID(start oid.OID) (oid.OID, bool) {
	if d.store.HasProfile(d.Class) {
		e, err := d.store.GetNext(d.Class, start)
		if err == nil {
			return e.OID, true
		}
	}
	if next, ok := snmpcodec.FallbackSuccessor(start); ok {
		return next, true
	}
	return nil, false
}

// resolveNext returns the successor OID and its value in one pass, so
// callers never recompute the walk to report the varbind name.
func (d *Device) resolveNext(start oid.OID) (oid.OID, snmptype.Value) {
	next, ok := d.nextOID(start)
	if !ok {
		return start, snmptype.NewEndOfMibView()
	}
	if val, ok := d.resolveOne(next); ok {
		return next, val
	}
	return next, snmptype.NewEndOfMibView()
}

func (d *Device) handleGetBulk(req *gosnmp.SnmpPacket) []gosnmp.SnmpPDU {
	nonRepeaters := int(req.NonRepeaters)
	maxRepetitions := int(req.MaxRepetitions)
	vars := req.Variables
	if nonRepeaters > len(vars) {
		nonRepeaters = len(vars)
	}

	var out []gosnmp.SnmpPDU
	for _, v := range vars[:nonRepeaters] {
		o, err := oid.Parse(v.Name)
		if err != nil {
			out = append(out, snmptype.NewEndOfMibView().ToPDU(v.Name))
			continue
		}
		entries, _ := d.GetBulk(o, maxRepetitions, 1)
		out = append(out, entries[0].Value.ToPDU(entries[0].OID.String()))
	}

	for _, v := range vars[nonRepeaters:] {
		o, err := oid.Parse(v.Name)
		if err != nil {
			continue
		}
		entries, _ := d.GetBulk(o, maxRepetitions, 0)
		for _, e := range entries {
			out = append(out, e.Value.ToPDU(e.OID.String()))
		}
	}

	if len(out) == 0 && len(vars) > 0 {
		return []gosnmp.SnmpPDU{snmptype.NewEndOfMibView().ToPDU(vars[0].Name)}
	}
	return out
}

// resolveOne produces the live value for a single OID: profile store
// first (with the value simulator applied), then the built-in fallback
// table.
func (d *Device) resolveOne(o oid.OID) (snmptype.Value, bool) {
	if d.store.HasProfile(d.Class) {
		e, err := d.store.Get(d.Class, o)
		if err == nil {
			return d.simulate(e), true
		}
		if !errors.Is(err, profile.ErrNotFound) {
			return snmptype.Value{}, false
		}
	}
	return snmpcodec.FallbackGet(o, d.fallbackView())
}

func (d *Device) fallbackView() snmpcodec.FallbackView {
	return snmpcodec.FallbackView{
		ID:          d.ID,
		Port:        d.Port,
		Class:       d.Class,
		UptimeTicks: uint32(d.uptimeSeconds() * 100),
	}
}

func (d *Device) uptimeSeconds() float64 {
	return time.Since(d.uptimeEpoch).Seconds()
}

// simulate applies the value simulator to entry, persisting an advanced
// counter high-water mark back onto the device when applicable. This is
// the one place device-local counters are mutated, under d.mu per
// invariant 3.
func (d *Device) simulate(e profile.Entry) snmptype.Value {
	view := simvalue.DeviceView{
		ID:                   d.ID,
		Port:                 d.Port,
		UptimeSeconds:        d.uptimeSeconds(),
		InterfaceUtilization: d.stableFraction("if", 0.2, 0.6),
		SignalQuality:        d.stableFraction("sig", 0.7, 0.3),
		CPUUtilization:       d.stableFraction("cpu", 0.1, 0.5),
	}

	d.mu.Lock()
	view.PriorCounter = d.counters[e.OIDStr]
	d.mu.Unlock()

	res := simvalue.Simulate(e, view, time.Now())

	if res.IsCounterBehavior {
		d.mu.Lock()
		d.counters[e.OIDStr] = res.NewCounterHighWater
		d.mu.Unlock()
	}
	return res.Value
}

// stableFraction derives a device-stable pseudo-random fraction in
// [floor, floor+span) from the device id and a named axis, so derived
// quantities like signal_quality stay constant for the device's lifetime
// rather than re-rolling on every request.
func (d *Device) stableFraction(axis string, floor, span float64) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(d.ID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(axis))
	frac := float64(h.Sum64()%1_000_000) / 1_000_000
	return floor + frac*span
}

// Get implements the device's public get(oid) operation, independent of
// the UDP transport (used by tests and by Walk).
func (d *Device) Get(o oid.OID) (snmptype.Value, bool) {
	return d.resolveOne(o)
}

// GetNext implements get_next(oid).
func (d *Device) GetNext(o oid.OID) (oid.OID, snmptype.Value, bool) {
	next, ok := d.nextOID(o)
	if !ok {
		return nil, snmptype.Value{}, false
	}
	val, ok := d.resolveOne(next)
	if !ok {
		return next, snmptype.NewEndOfMibView(), true
	}
	return next, val, true
}

// WalkEntry is one (oid, value) pair produced by GetBulk or Walk.
type WalkEntry struct {
	OID   oid.OID
	Value snmptype.Value
}

// GetBulk implements get_bulk(oid, max_repetitions, non_repeaters). With
// nonRepeaters non-zero it takes a single get_next-style step from root,
// ignoring maxRepetitions, and always returns exactly one entry (an
// end_of_mib_view bound to root if there is no successor). With
// nonRepeaters zero it walks forward from root, collecting up to
// maxRepetitions successive (oid, value) pairs and stopping early if it
// runs out of OIDs; the returned slice may then be shorter than
// maxRepetitions, or empty.
func (d *Device) GetBulk(root oid.OID, maxRepetitions, nonRepeaters int) ([]WalkEntry, error) {
	if nonRepeaters > 0 {
		next, val, ok := d.GetNext(root)
		if !ok {
			return []WalkEntry{{OID: root, Value: snmptype.NewEndOfMibView()}}, nil
		}
		return []WalkEntry{{OID: next, Value: val}}, nil
	}

	if maxRepetitions <= 0 {
		maxRepetitions = 1
	}
	var out []WalkEntry
	cur := root
	for i := 0; i < maxRepetitions; i++ {
		next, val, ok := d.GetNext(cur)
		if !ok {
			break
		}
		out = append(out, WalkEntry{OID: next, Value: val})
		cur = next
	}
	return out, nil
}

// walkPageSize is the max_repetitions Walk uses per GETBULK page.
const walkPageSize = 10

// Walk enumerates every OID in root's subtree by repeatedly calling
// GetBulk the way a real client would, stopping at the first entry
// outside root's subtree or when a page comes back empty.
func (d *Device) Walk(ctx context.Context, root oid.OID) ([]WalkEntry, error) {
	var out []WalkEntry
	cur := root
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		page, err := d.GetBulk(cur, walkPageSize, 0)
		if err != nil {
			return out, err
		}
		if len(page) == 0 {
			return out, nil
		}
		for _, e := range page {
			if !oid.IsPrefixOf(root, e.OID) {
				return out, nil
			}
			out = append(out, e)
			cur = e.OID
		}
	}
}

// Info reports a device's identity and activity for observability.
type Info struct {
	ID          string
	Class       string
	Port        int
	MAC         string
	State       string
	UptimeSecs  float64
	LastAccess  time.Time
	HasProfile  bool
	CounterKeys int
}

func (d *Device) Info() Info {
	d.mu.Lock()
	lastAccess := d.lastAccess
	counterKeys := len(d.counters)
	d.mu.Unlock()

	return Info{
		ID:          d.ID,
		Class:       d.Class,
		Port:        d.Port,
		MAC:         d.MAC,
		State:       d.State().String(),
		UptimeSecs:  d.uptimeSeconds(),
		LastAccess:  lastAccess,
		HasProfile:  d.store.HasProfile(d.Class),
		CounterKeys: counterKeys,
	}
}
