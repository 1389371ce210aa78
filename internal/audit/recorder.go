package audit

import (
	"context"
	"fmt"
	"sync"
)

// Store abstracts trail persistence.
type Store interface {
	ListEvents(ctx context.Context) ([]Event, error)
	InsertTrail(ctx context.Context, eventID, userID int64, details map[string]any) error
	ListTrail(ctx context.Context, filters TrailFilters) ([]Trail, error)
}

// TrailFilters narrows timeline reads.
type TrailFilters struct {
	EventName string
	UserID    int64
	Limit     int
	Offset    int
}

// Recorder appends lifecycle events to the audit trail. Callers treat
// failures as non-fatal: the primary operation never rolls back on a
// recording error.
type Recorder struct {
	store Store

	mu      sync.Mutex
	catalog map[string]int64
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record resolves the event name against the catalog and appends one row.
// Unrecognized events and actors without an id or role are rejected before
// any write.
func (r *Recorder) Record(ctx context.Context, eventName string, actor Actor, details map[string]any) error {
	if actor.ID == 0 || actor.Role == "" {
		return ErrInvalidActor
	}
	eventID, err := r.eventID(ctx, eventName)
	if err != nil {
		return err
	}
	enriched := make(map[string]any, len(details)+1)
	for k, v := range details {
		enriched[k] = v
	}
	enriched["user"] = actor
	return r.store.InsertTrail(ctx, eventID, actor.ID, enriched)
}

// Timeline returns trail rows for the read surface.
func (r *Recorder) Timeline(ctx context.Context, filters TrailFilters) ([]Trail, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return r.store.ListTrail(ctx, filters)
}

func (r *Recorder) eventID(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.catalog == nil {
		events, err := r.store.ListEvents(ctx)
		if err != nil {
			return 0, fmt.Errorf("audit: load catalog: %w", err)
		}
		r.catalog = make(map[string]int64, len(events))
		for _, ev := range events {
			r.catalog[ev.Name] = ev.ID
		}
	}
	id, ok := r.catalog[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return id, nil
}
