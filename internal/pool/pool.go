// Package pool implements the lazy device pool (C6): port→class
// assignment, race-free lazy device creation, and idle-timeout
// reclamation.
package pool

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nimbuscomm/snmpdevsim/internal/device"
	"github.com/nimbuscomm/snmpdevsim/internal/metrics"
	"github.com/nimbuscomm/snmpdevsim/internal/profile"
)

// ErrPoolFull is returned by GetOrCreate when MaxDevices has been reached.
var ErrPoolFull = errors.New("pool: max_devices reached")

// ErrUnknownPortRange is returned when a port falls outside every
// registered PortRange.
var ErrUnknownPortRange = errors.New("pool: port not in any registered range")

// PortRange assigns a device class to a contiguous, non-overlapping span
// of UDP ports.
type PortRange struct {
	Class string
	Low   int
	High  int // inclusive
}

func (r PortRange) contains(port int) bool { return port >= r.Low && port <= r.High }

// DefaultPortRanges returns the standard class-to-port-range assignment
// for a cable-access deployment.
func DefaultPortRanges() []PortRange {
	return []PortRange{
		{Class: "cable_modem", Low: 30000, High: 37999},
		{Class: "mta", Low: 38000, High: 39499},
		{Class: "switch", Low: 39500, High: 39899},
		{Class: "router", Low: 39900, High: 39949},
		{Class: "cmts", Low: 39950, High: 39974},
		{Class: "server", Low: 39975, High: 39999},
	}
}

// Pool owns a set of running devices keyed by UDP port.
type Pool struct {
	ranges      []PortRange
	idleTimeout time.Duration
	maxDevices  int

	store   *profile.Store
	metrics *metrics.Registry

	mu     sync.Mutex
	active map[int]*device.Device

	cron *cron.Cron
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithPortRanges overrides DefaultPortRanges.
func WithPortRanges(ranges []PortRange) Option {
	return func(p *Pool) { p.ranges = ranges }
}

// WithIdleTimeout overrides the default 30 minute idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) { p.idleTimeout = d }
}

// WithMaxDevices sets a hard cap on concurrently active devices; zero
// means unlimited.
func WithMaxDevices(n int) Option {
	return func(p *Pool) { p.maxDevices = n }
}

// New creates a Pool backed by store, ready to accept GetOrCreate calls.
func New(store *profile.Store, reg *metrics.Registry, opts ...Option) *Pool {
	p := &Pool{
		ranges:      DefaultPortRanges(),
		idleTimeout: 30 * time.Minute,
		store:       store,
		metrics:     reg,
		active:      make(map[int]*device.Device),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) classForPort(port int) (string, bool) {
	for _, r := range p.ranges {
		if r.contains(port) {
			return r.Class, true
		}
	}
	return "", false
}

// GetOrCreate returns the device bound to port, creating and starting one
// if none exists. Race-free: concurrent calls for the same port observe
// exactly one bind and one Device.
func (p *Pool) GetOrCreate(id, community string, port int) (*device.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.active[port]; ok {
		return d, nil
	}

	if p.maxDevices > 0 && len(p.active) >= p.maxDevices {
		if p.metrics != nil {
			p.metrics.PoolFullErrors.Inc()
		}
		return nil, ErrPoolFull
	}

	class, ok := p.classForPort(port)
	if !ok {
		return nil, fmt.Errorf("%w: port %d", ErrUnknownPortRange, port)
	}

	if id == "" {
		id = fmt.Sprintf("%s_%d", class, port)
	}
	d := device.New(id, class, port, community, p.store, p.metrics)
	if err := d.Start(); err != nil {
		return nil, err
	}
	p.active[port] = d
	if p.metrics != nil {
		p.metrics.DevicesActive.Set(float64(len(p.active)))
	}
	return d, nil
}

// Stop removes and stops the device bound to port, if any.
func (p *Pool) Stop(port int) {
	p.mu.Lock()
	d, ok := p.active[port]
	if ok {
		delete(p.active, port)
	}
	if p.metrics != nil {
		p.metrics.DevicesActive.Set(float64(len(p.active)))
	}
	p.mu.Unlock()

	if ok {
		d.Stop()
	}
}

// Get returns the device bound to port without creating one.
func (p *Pool) Get(port int) (*device.Device, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.active[port]
	return d, ok
}

// Count reports the number of currently active devices.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// StartPopulation instantiates count devices across [portLow, portLow+count)
// for class, a convenience wrapper around repeated GetOrCreate calls.
func (p *Pool) StartPopulation(class, community string, portLow, count int) (int, error) {
	started := 0
	for i := 0; i < count; i++ {
		port := portLow + i
		if _, ok := p.classForPort(port); !ok {
			return started, fmt.Errorf("%w: port %d (class %s)", ErrUnknownPortRange, port, class)
		}
		id := fmt.Sprintf("%s_%d", class, port)
		if _, err := p.GetOrCreate(id, community, port); err != nil {
			return started, err
		}
		started++
	}
	return started, nil
}

// sweep stops every device whose last access exceeds idleTimeout.
func (p *Pool) sweep() {
	now := time.Now()
	var stale []int

	p.mu.Lock()
	for port, d := range p.active {
		if now.Sub(d.LastAccess()) > p.idleTimeout {
			stale = append(stale, port)
		}
	}
	p.mu.Unlock()

	for _, port := range stale {
		p.Stop(port)
		if p.metrics != nil {
			p.metrics.DevicesReclaimed.Inc()
		}
		log.Printf("pool: reclaimed idle device on port %d", port)
	}
}

// StartSweeper launches a periodic idle-reclamation sweep on the given
// cron schedule (e.g. "*/5 * * * *" for every five minutes), in the
// teacher's cron.New/AddFunc style.
func (p *Pool) StartSweeper(spec string) error {
	p.cron = cron.New()
	if _, err := p.cron.AddFunc(spec, p.sweep); err != nil {
		return fmt.Errorf("pool: invalid sweep schedule %q: %w", spec, err)
	}
	p.cron.Start()
	return nil
}

// StopSweeper halts the periodic sweep, if one was started.
func (p *Pool) StopSweeper() {
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}
}

// Shutdown stops every active device and the sweeper.
func (p *Pool) Shutdown() {
	p.StopSweeper()

	p.mu.Lock()
	ports := make([]int, 0, len(p.active))
	for port := range p.active {
		ports = append(ports, port)
	}
	p.mu.Unlock()

	for _, port := range ports {
		p.Stop(port)
	}
}
