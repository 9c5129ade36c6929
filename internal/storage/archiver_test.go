package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
	"github.com/Minpi-0/Health-Tracker/internal/store/storetest"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"

	"github.com/stretchr/testify/require"
)

type fakeObjectStorage struct {
	objects map[string][]byte
	failOn  string
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte)}
}

func (f *fakeObjectStorage) PutObject(_ context.Context, key string, body []byte, _ string) error {
	if key == f.failOn {
		return errors.New("put failed")
	}
	f.objects[key] = body
	return nil
}

func TestArchivePlan(t *testing.T) {
	objects := newFakeObjectStorage()
	a := NewArchiver(objects, storetest.NewMemoryStore(), logger.NewNop())

	plan := domain.Plan{
		ID:         "p-1",
		Title:      "Goal",
		TargetDate: "2026-09-01",
		WorkoutEntries: []domain.WorkoutEntry{
			{ID: 7, Date: "2026-03-01", Note: "kept"},
		},
	}
	require.NoError(t, a.ArchivePlan(context.Background(), "user-1", plan))

	body, ok := objects.objects["archive/user-1/plans/p-1.json"]
	require.True(t, ok)

	var restored domain.Plan
	require.NoError(t, json.Unmarshal(body, &restored))
	require.Equal(t, plan.ID, restored.ID)
	require.Equal(t, plan.Title, restored.Title)
	require.Len(t, restored.WorkoutEntries, 1)
	require.Equal(t, "kept", restored.WorkoutEntries[0].Note)
}

func TestSnapshotAllDumpsEveryDocument(t *testing.T) {
	st := storetest.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "artifacts/t/users/u/plans/p-1", domain.Plan{ID: "p-1"}))
	require.NoError(t, st.Set(ctx, "artifacts/t/users/u/settings/commonFoods", domain.DefaultFoodRegistry()))

	objects := newFakeObjectStorage()
	a := NewArchiver(objects, st, logger.NewNop())
	require.NoError(t, a.SnapshotAll(ctx))

	require.Len(t, objects.objects, 2)
	for key := range objects.objects {
		require.Contains(t, key, "backup/")
		require.Contains(t, key, ".json")
	}
}

func TestSnapshotAllReportsFirstFailureAfterSweep(t *testing.T) {
	st := storetest.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "artifacts/t/users/u/plans/p-1", domain.Plan{ID: "p-1"}))
	require.NoError(t, st.Set(ctx, "artifacts/t/users/u/plans/p-2", domain.Plan{ID: "p-2"}))

	objects := newFakeObjectStorage()
	a := NewArchiver(objects, st, logger.NewNop())

	// One document fails; the sweep still writes the other and reports the
	// failure afterwards.
	prefix := "backup/" + time.Now().UTC().Format(domain.DateLayout)
	objects.failOn = prefix + "/artifacts/t/users/u/plans/p-1.json"

	err := a.SnapshotAll(ctx)
	require.Error(t, err)
	require.Len(t, objects.objects, 1)
	require.Contains(t, objects.objects, prefix+"/artifacts/t/users/u/plans/p-2.json")
}
