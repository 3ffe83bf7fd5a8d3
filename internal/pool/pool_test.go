package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/nimbuscomm/snmpdevsim/internal/profile"
)

func testRanges() []PortRange {
	return []PortRange{{Class: "router", Low: 41000, High: 41099}}
}

func TestGetOrCreateAssignsClassByPortRange(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()))
	defer p.Shutdown()

	d, err := p.GetOrCreate("", "public", 41000)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if d.Class != "router" {
		t.Fatalf("expected class router, got %s", d.Class)
	}
}

func TestGetOrCreateUnknownPortRange(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()))
	defer p.Shutdown()

	if _, err := p.GetOrCreate("", "public", 1); err == nil {
		t.Fatal("expected ErrUnknownPortRange")
	}
}

func TestGetOrCreateRaceFreeForSamePort(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()))
	defer p.Shutdown()

	const n = 20
	results := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			d, err := p.GetOrCreate("", "public", 41001)
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			results[i] = d.ID
		}()
	}
	wg.Wait()

	first := results[0]
	for _, id := range results {
		if id != first {
			t.Fatalf("expected a single shared device id, got %v", results)
		}
	}
	if p.Count() != 1 {
		t.Fatalf("expected exactly one active device, got %d", p.Count())
	}
}

func TestMaxDevicesEnforced(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()), WithMaxDevices(1))
	defer p.Shutdown()

	if _, err := p.GetOrCreate("", "public", 41010); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := p.GetOrCreate("", "public", 41011); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
}

func TestStopRemovesDevice(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()))
	defer p.Shutdown()

	if _, err := p.GetOrCreate("", "public", 41020); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	p.Stop(41020)
	if p.Count() != 0 {
		t.Fatalf("expected device removed, got count %d", p.Count())
	}
	if _, ok := p.Get(41020); ok {
		t.Fatal("expected Get to miss after Stop")
	}
}

func TestSweepReclaimsIdleDevices(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()), WithIdleTimeout(10*time.Millisecond))
	defer p.Shutdown()

	if _, err := p.GetOrCreate("", "public", 41030); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	p.sweep()
	if p.Count() != 0 {
		t.Fatalf("expected idle device reclaimed, got count %d", p.Count())
	}
}

func TestStartPopulationCreatesContiguousRange(t *testing.T) {
	p := New(profile.NewStore(), nil, WithPortRanges(testRanges()))
	defer p.Shutdown()

	n, err := p.StartPopulation("router", "public", 41040, 5)
	if err != nil {
		t.Fatalf("StartPopulation: %v", err)
	}
	if n != 5 || p.Count() != 5 {
		t.Fatalf("expected 5 devices started, got n=%d count=%d", n, p.Count())
	}
}
