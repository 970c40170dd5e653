// Package keyhealth tracks per-credential usage, errors and cool-down state.
package keyhealth

import (
	"sync"
	"time"

	"quiz-forge/internal/domain"
)

// DefaultCooldownWindow is how long a throttled credential is preferentially skipped.
const DefaultCooldownWindow = 60 * time.Second

// Failure classifies a failed attempt for health bookkeeping.
type Failure int

const (
	// FailureError is any non-throttling failure.
	FailureError Failure = iota
	// FailureThrottled is a rate limit or overload signal from the provider.
	FailureThrottled
)

type entry struct {
	mu     sync.Mutex
	record domain.KeyHealthRecord
}

// Registry holds one health record per distinct credential value. Records are
// created lazily and live for the lifetime of the registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ensure creates a record for the credential if absent. The origin of an
// existing record is never changed.
func (r *Registry) Ensure(cred domain.Credential) {
	r.entry(cred)
}

func (r *Registry) entry(cred domain.Credential) *entry {
	r.mu.RLock()
	e, ok := r.entries[cred.Value]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[cred.Value]; ok {
		return e
	}
	origin := cred.Origin
	if origin == "" {
		origin = domain.KeyOriginSystem
	}
	e = &entry{record: domain.KeyHealthRecord{
		MaskedID: cred.Mask(),
		Origin:   origin,
		Status:   domain.KeyStatusActive,
	}}
	r.entries[cred.Value] = e
	r.order = append(r.order, cred.Value)
	return e
}

// RecordSuccess marks the credential healthy and counts the use.
func (r *Registry) RecordSuccess(cred domain.Credential) {
	e := r.entry(cred)
	now := r.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.record.UsageCount++
	e.record.LastUsedAt = &now
	e.record.Status = domain.KeyStatusActive
	e.record.ErrorCount = 0
}

// RecordFailure counts a failed attempt. Throttling failures put the
// credential into cool-down; anything else marks it ERROR.
func (r *Registry) RecordFailure(cred domain.Credential, kind Failure) {
	e := r.entry(cred)
	now := r.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.record.ErrorCount++
	e.record.LastErrorAt = &now
	if kind == FailureThrottled {
		e.record.Status = domain.KeyStatusRateLimited
	} else {
		e.record.Status = domain.KeyStatusError
	}
}

// IsCoolingDown reports whether the credential was throttled less than
// window ago. Unknown credentials are never cooling down.
func (r *Registry) IsCoolingDown(cred domain.Credential, now time.Time, window time.Duration) bool {
	r.mu.RLock()
	e, ok := r.entries[cred.Value]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record.Status != domain.KeyStatusRateLimited || e.record.LastErrorAt == nil {
		return false
	}
	return now.Sub(*e.record.LastErrorAt) < window
}

// Get returns a copy of the record for one credential.
func (r *Registry) Get(cred domain.Credential) (domain.KeyHealthRecord, bool) {
	r.mu.RLock()
	e, ok := r.entries[cred.Value]
	r.mu.RUnlock()
	if !ok {
		return domain.KeyHealthRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyRecord(e.record), true
}

// Snapshot returns copies of all records in first-seen order. Only masked
// identifiers are included.
func (r *Registry) Snapshot() []domain.KeyHealthRecord {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, k := range r.order {
		entries = append(entries, r.entries[k])
	}
	r.mu.RUnlock()

	out := make([]domain.KeyHealthRecord, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, copyRecord(e.record))
		e.mu.Unlock()
	}
	return out
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

func copyRecord(rec domain.KeyHealthRecord) domain.KeyHealthRecord {
	if rec.LastUsedAt != nil {
		t := *rec.LastUsedAt
		rec.LastUsedAt = &t
	}
	if rec.LastErrorAt != nil {
		t := *rec.LastErrorAt
		rec.LastErrorAt = &t
	}
	return rec
}
