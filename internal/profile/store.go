package profile

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	radix "github.com/armon/go-radix"

	"github.com/nimbuscomm/snmpdevsim/internal/oid"
)

// ErrClassUnknown is returned when a device class has no loaded profile.
var ErrClassUnknown = errors.New("profile: class unknown")

// ErrNotFound is returned by Get when the class exists but the OID does not.
var ErrNotFound = errors.New("profile: oid not found")

// ErrEndOfMib is the internal signal that GetNext walked off the end of the
// profile; callers map it to end_of_mib_view (v2c) or noSuchName (v1).
// GetBulk reports the same condition as an empty slice instead.
var ErrEndOfMib = errors.New("profile: end of mib")

// Profile is the immutable, per-class snapshot: a sorted sequence of
// entries plus a radix index for O(log n) point lookup. Sequence and index
// are built together and never mutated in place — reloads build a new
// Profile and swap the pointer atomically (see Store).
type Profile struct {
	entries []Entry
	byOID   *radix.Tree // oid string -> index into entries
}

// NewProfile builds a Profile from an unordered set of entries, sorting and
// de-duplicating (last entry for a given OID wins) as it goes.
func NewProfile(entries []Entry) *Profile {
	byOIDStr := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.OIDStr == "" {
			e.OIDStr = e.OID.String()
		}
		byOIDStr[e.OIDStr] = e
	}

	sorted := make([]Entry, 0, len(byOIDStr))
	for _, e := range byOIDStr {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return oid.Less(sorted[i].OID, sorted[j].OID)
	})

	tree := radix.New()
	for i, e := range sorted {
		tree.Insert(e.OIDStr, i)
	}

	return &Profile{entries: sorted, byOID: tree}
}

// Len reports the number of entries in the profile.
func (p *Profile) Len() int { return len(p.entries) }

func (p *Profile) lookup(oidStr string) (Entry, bool) {
	idx, ok := p.byOID.Get(oidStr)
	if !ok {
		return Entry{}, false
	}
	return p.entries[idx.(int)], true
}

// next returns the first entry with OID strictly greater than target, or
// ErrEndOfMib if none exists. Entries are sorted, so binary search over the
// numeric Compare ordering suffices.
func (p *Profile) next(target oid.OID) (Entry, error) {
	i := sort.Search(len(p.entries), func(i int) bool {
		return oid.Compare(p.entries[i].OID, target) == oid.OrderGreater
	})
	if i == len(p.entries) {
		return Entry{}, ErrEndOfMib
	}
	return p.entries[i], nil
}

// bulk returns up to maxRepetitions entries strictly after target, in
// order, stopping at the end of the profile.
func (p *Profile) bulk(target oid.OID, maxRepetitions int) []Entry {
	i := sort.Search(len(p.entries), func(i int) bool {
		return oid.Compare(p.entries[i].OID, target) == oid.OrderGreater
	})
	end := i + maxRepetitions
	if end > len(p.entries) {
		end = len(p.entries)
	}
	if i >= end {
		return nil
	}
	out := make([]Entry, end-i)
	copy(out, p.entries[i:end])
	return out
}

// Store is the process-wide (or per-simulator-instance, per DESIGN.md's
// resolution of the "no global mutable state" redesign flag) profile store.
// Reads never block each other or a concurrent reload: each class holds an
// atomic pointer to its current Profile snapshot; store_profile builds a
// replacement snapshot and swaps the pointer, so any single lookup observes
// either the whole pre-reload or whole post-reload profile.
type Store struct {
	mu      sync.RWMutex // guards the classes map itself, not profile contents
	classes map[string]*atomic.Pointer[Profile]
}

// NewStore creates an empty profile store.
func NewStore() *Store {
	return &Store{classes: make(map[string]*atomic.Pointer[Profile])}
}

func (s *Store) classPointer(class string, createIfMissing bool) (*atomic.Pointer[Profile], bool) {
	s.mu.RLock()
	p, ok := s.classes[class]
	s.mu.RUnlock()
	if ok || !createIfMissing {
		return p, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.classes[class]; ok {
		return p, true
	}
	p = &atomic.Pointer[Profile]{}
	s.classes[class] = p
	return p, true
}

// StoreProfile replaces the whole profile for class atomically. Concurrent
// calls for the same class each build their own snapshot and swap it in
// without waiting for one another: whichever swap lands last wins, and
// readers never see a torn mix of old and new entries.
func (s *Store) StoreProfile(class string, entries []Entry) {
	ptr, _ := s.classPointer(class, true)
	ptr.Store(NewProfile(entries))
}

// LoadWalkProfile registers a profile for class from parsed walk triples,
// inferring each entry's Behavior from its OID pattern and declared type
// before handing off to StoreProfile.
func (s *Store) LoadWalkProfile(class string, triples []WalkTriple) {
	entries := make([]Entry, 0, len(triples))
	for _, t := range triples {
		o, err := oid.Parse(t.OID)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			OID:      o,
			OIDStr:   o.String(),
			Type:     t.Type,
			Static:   t.Value,
			Behavior: inferBehavior(o.String(), t.Type),
		})
	}
	s.StoreProfile(class, entries)
}

func (s *Store) snapshot(class string) (*Profile, error) {
	ptr, ok := s.classPointer(class, false)
	if !ok {
		return nil, ErrClassUnknown
	}
	p := ptr.Load()
	if p == nil {
		return nil, ErrClassUnknown
	}
	return p, nil
}

// Get resolves a single OID against class's profile, returning the stored
// entry (callers apply the value simulator themselves, since that needs
// the device's live state, which the store does not have).
func (s *Store) Get(class string, target oid.OID) (Entry, error) {
	snap, err := s.snapshot(class)
	if err != nil {
		return Entry{}, err
	}
	e, ok := snap.lookup(target.String())
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// GetNext returns the entry with the smallest OID strictly greater than
// target. It never returns target itself.
func (s *Store) GetNext(class string, target oid.OID) (Entry, error) {
	snap, err := s.snapshot(class)
	if err != nil {
		return Entry{}, err
	}
	return snap.next(target)
}

// GetBulk walks up to maxRepetitions entries strictly after startOID.
// Returns an empty slice (not an error) when startOID is at or past the
// last entry; callers convert that into a single end_of_mib_view varbind.
func (s *Store) GetBulk(class string, startOID oid.OID, maxRepetitions int) ([]Entry, error) {
	snap, err := s.snapshot(class)
	if err != nil {
		return nil, err
	}
	if maxRepetitions <= 0 {
		return nil, nil
	}
	return snap.bulk(startOID, maxRepetitions), nil
}

// HasProfile reports whether class has a loaded profile at all.
func (s *Store) HasProfile(class string) bool {
	_, err := s.snapshot(class)
	return err == nil
}

// ListClasses returns the set of classes with a registered profile.
func (s *Store) ListClasses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.classes))
	for class, ptr := range s.classes {
		if ptr.Load() != nil {
			out = append(out, class)
		}
	}
	return out
}

// ClassStats summarises one class's profile for MemoryStats.
type ClassStats struct {
	Class       string
	EntryCount  int
	ApproxBytes int
}

// MemoryStats reports entry counts and an approximate byte footprint per
// class.
func (s *Store) MemoryStats() []ClassStats {
	classes := s.ListClasses()
	out := make([]ClassStats, 0, len(classes))
	for _, class := range classes {
		snap, err := s.snapshot(class)
		if err != nil {
			continue
		}
		approx := 0
		for _, e := range snap.entries {
			approx += len(e.OIDStr) + 16 + len(e.Static.Str()) + len(e.Static.Raw())
		}
		out = append(out, ClassStats{Class: class, EntryCount: len(snap.entries), ApproxBytes: approx})
	}
	return out
}

// String implements fmt.Stringer for debug logging.
func (c ClassStats) String() string {
	return fmt.Sprintf("%s: %d entries, ~%d bytes", c.Class, c.EntryCount, c.ApproxBytes)
}
