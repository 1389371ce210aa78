package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryTrailStore struct {
	events []Event
	trails []Trail
}

func newMemoryTrailStore() *memoryTrailStore {
	return &memoryTrailStore{
		events: []Event{
			{ID: 1, Name: EventRFPCreated},
			{ID: 2, Name: EventRFPUpdated},
			{ID: 3, Name: EventQuotationSubmitted},
			{ID: 4, Name: EventPOCreated},
			{ID: 5, Name: EventVendorStatusChanged},
			{ID: 6, Name: EventQueryRaised},
		},
	}
}

func (s *memoryTrailStore) ListEvents(ctx context.Context) ([]Event, error) {
	return s.events, nil
}

func (s *memoryTrailStore) InsertTrail(ctx context.Context, eventID, userID int64, details map[string]any) error {
	s.trails = append(s.trails, Trail{ID: int64(len(s.trails) + 1), EventID: eventID, UserID: userID, Details: details})
	return nil
}

func (s *memoryTrailStore) ListTrail(ctx context.Context, filters TrailFilters) ([]Trail, error) {
	if filters.Limit < len(s.trails) {
		return s.trails[:filters.Limit], nil
	}
	return s.trails, nil
}

func TestRecordAppendsEnrichedTrail(t *testing.T) {
	store := newMemoryTrailStore()
	recorder := NewRecorder(store)
	actor := Actor{ID: 7, Name: "Priya", Role: "PR_MANAGER"}

	err := recorder.Record(context.Background(), EventRFPCreated, actor, map[string]any{"rfpId": "RFP-2026-03-10-0000"})
	require.NoError(t, err)
	require.Len(t, store.trails, 1)

	trail := store.trails[0]
	require.Equal(t, int64(1), trail.EventID)
	require.Equal(t, int64(7), trail.UserID)
	require.Equal(t, "RFP-2026-03-10-0000", trail.Details["rfpId"])
	// The actor snapshot rides inside the details record.
	require.Equal(t, actor, trail.Details["user"])
}

func TestRecordRejectsUnknownEvent(t *testing.T) {
	store := newMemoryTrailStore()
	recorder := NewRecorder(store)
	actor := Actor{ID: 7, Role: "ADMIN"}

	err := recorder.Record(context.Background(), "RFP_DELETED", actor, nil)
	require.ErrorIs(t, err, ErrUnknownEvent)
	require.Empty(t, store.trails)
}

func TestRecordRejectsIncompleteActor(t *testing.T) {
	store := newMemoryTrailStore()
	recorder := NewRecorder(store)

	err := recorder.Record(context.Background(), EventRFPCreated, Actor{Role: "ADMIN"}, nil)
	require.ErrorIs(t, err, ErrInvalidActor)

	err = recorder.Record(context.Background(), EventRFPCreated, Actor{ID: 7}, nil)
	require.ErrorIs(t, err, ErrInvalidActor)
	require.Empty(t, store.trails)
}

func TestTimelineClampsPaging(t *testing.T) {
	store := newMemoryTrailStore()
	recorder := NewRecorder(store)
	actor := Actor{ID: 7, Role: "ADMIN"}
	for i := 0; i < 30; i++ {
		require.NoError(t, recorder.Record(context.Background(), EventQueryRaised, actor, nil))
	}

	trails, err := recorder.Timeline(context.Background(), TrailFilters{})
	require.NoError(t, err)
	require.Len(t, trails, 20)

	trails, err = recorder.Timeline(context.Background(), TrailFilters{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, trails, 30)
}
