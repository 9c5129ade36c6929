package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/auth"
	"github.com/Minpi-0/Health-Tracker/internal/domain"
	"github.com/Minpi-0/Health-Tracker/internal/store/storetest"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"

	"github.com/stretchr/testify/require"
)

const (
	testTenant = "test-tenant"
	testUser   = "user-1"
)

func newTestSession(t *testing.T, st *storetest.MemoryStore) *Session {
	t.Helper()
	s := NewSession(testUser, testTenant, st, nil, logger.NewNop())
	s.celebrateAfter = 10 * time.Millisecond
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestStartSeedsFoodRegistryOnce(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)

	// The seed write happened exactly once and its echo was adopted.
	require.Equal(t, 1, st.SetCalls)

	foods := s.Foods()
	require.Len(t, foods, len(domain.MealSlots))
	for _, slot := range domain.MealSlots {
		require.Len(t, foods[slot], 6)
	}

	// A second session over the same store must not reseed.
	s2 := NewSession(testUser, testTenant, st, nil, logger.NewNop())
	require.NoError(t, s2.Start(context.Background()))
	defer s2.Close()
	require.Equal(t, 1, st.SetCalls)
}

func TestStartAdoptsStoredRegistryVerbatim(t *testing.T) {
	st := storetest.NewMemoryStore()
	stored := domain.FoodRegistry{
		domain.MealBreakfast: {{Name: "Congee", Pinned: true}},
	}
	stored.Normalize()
	path := "artifacts/" + testTenant + "/users/" + testUser + "/settings/commonFoods"
	require.NoError(t, st.Set(context.Background(), path, stored))

	s := newTestSession(t, st)

	foods := s.Foods()
	require.Equal(t, []domain.FoodItem{{Name: "Congee", Pinned: true}}, foods[domain.MealBreakfast])
	require.Empty(t, foods[domain.MealLunch])
	// No reseed happened on top of the pre-populated write.
	require.Equal(t, 1, st.SetCalls)
}

func TestPlansLoadedAfterInitialSnapshot(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	require.True(t, s.PlansLoaded())
	require.Empty(t, s.Plans())
	require.Equal(t, "", s.ActivePlanID())
}

func TestSnapshotAutoPicksMostFuturePlan(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	ctx := context.Background()

	near, err := s.CreatePlan(ctx, "Near goal", "2026-04-01", 55)
	require.NoError(t, err)
	far, err := s.CreatePlan(ctx, "Far goal", "2026-09-01", 52)
	require.NoError(t, err)

	// Creation makes the new plan active; the snapshot keeps plans sorted
	// most-future first.
	require.Equal(t, far.ID, s.ActivePlanID())
	plans := s.Plans()
	require.Len(t, plans, 2)
	require.Equal(t, far.ID, plans[0].ID)
	require.Equal(t, near.ID, plans[1].ID)
}

func TestSnapshotNeverOverridesManualChoice(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	ctx := context.Background()

	near, err := s.CreatePlan(ctx, "Near goal", "2026-04-01", 55)
	require.NoError(t, err)
	require.NoError(t, s.SetActivePlan(near.ID))

	// A plan written from elsewhere arrives by snapshot. Even though it is
	// more future, the manual choice stands.
	other := domain.Plan{
		ID:             "p-remote",
		Title:          "Remote goal",
		TargetDate:     "2027-01-01",
		WorkoutEntries: []domain.WorkoutEntry{},
		DietEntries:    []domain.DietEntry{},
	}
	path := "artifacts/" + testTenant + "/users/" + testUser + "/plans/" + other.ID
	require.NoError(t, st.Set(ctx, path, other))

	require.Len(t, s.Plans(), 2)
	require.Equal(t, near.ID, s.ActivePlanID())
}

func TestSnapshotHealsDanglingActivePointer(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	ctx := context.Background()

	near, err := s.CreatePlan(ctx, "Near goal", "2026-04-01", 55)
	require.NoError(t, err)
	far, err := s.CreatePlan(ctx, "Far goal", "2026-09-01", 52)
	require.NoError(t, err)

	// Deleting the active plan leaves the pointer dangling until the echo
	// clears it and auto-picks the most future survivor.
	require.NoError(t, s.RemovePlan(ctx, far.ID))
	require.Equal(t, near.ID, s.ActivePlanID())

	// Deleting the last plan leaves no pointer at all.
	require.NoError(t, s.RemovePlan(ctx, near.ID))
	require.Equal(t, "", s.ActivePlanID())
	require.Empty(t, s.Plans())
}

func TestRemovePlanUnknownID(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	require.ErrorIs(t, s.RemovePlan(context.Background(), "p-missing"), ErrPlanNotFound)
}

func TestCreatePlanValidation(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	ctx := context.Background()

	_, err := s.CreatePlan(ctx, "   ", "2026-04-01", 55)
	require.ErrorIs(t, err, ErrInvalidPlan)
	_, err = s.CreatePlan(ctx, "Goal", "", 55)
	require.ErrorIs(t, err, ErrInvalidPlan)
	_, err = s.CreatePlan(ctx, "Goal", "04/01/2026", 55)
	require.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCreatePlanCarriesBaselineForward(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	ctx := context.Background()

	first, err := s.CreatePlan(ctx, "First", "2026-04-01", 55)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultWeight, first.BaselineWeight)

	// Log a weight on the first plan, then create a second plan: its
	// baseline is the latest weight of the plan active at creation time.
	s.OpenEditorForCreate(KindWorkout)
	require.NoError(t, s.ToggleBodyPart("Core"))
	w := 53.4
	require.NoError(t, s.ApplyWorkoutPatch(WorkoutDraftPatch{Weight: &w}))
	require.NoError(t, s.SaveEntry(ctx))

	second, err := s.CreatePlan(ctx, "Second", "2026-10-01", 50)
	require.NoError(t, err)
	require.Equal(t, 53.4, second.BaselineWeight)
}

func TestCloseReleasesStoreSubscriptions(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := NewSession(testUser, testTenant, st, nil, logger.NewNop())
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, 2, st.SubscriberCount())

	s.Close()
	require.Equal(t, 0, st.SubscriberCount())
}

func TestViewRouting(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)

	require.Equal(t, domain.ViewHome, s.View())
	s.SetView(domain.ViewDietHistory)
	require.Equal(t, domain.ViewDietHistory, s.View())

	// Activating a plan routes back home.
	plan, err := s.CreatePlan(context.Background(), "Goal", "2026-04-01", 55)
	require.NoError(t, err)
	s.SetView(domain.ViewPlanManage)
	require.NoError(t, s.SetActivePlan(plan.ID))
	require.Equal(t, domain.ViewHome, s.View())
}

func TestManagerReusesAndClosesSessions(t *testing.T) {
	st := storetest.NewMemoryStore()
	m := NewManager(testTenant, st, nil, logger.NewNop())
	ctx := context.Background()

	s1, err := m.Session(ctx, testUser)
	require.NoError(t, err)
	s2, err := m.Session(ctx, testUser)
	require.NoError(t, err)
	require.Same(t, s1, s2)
	require.Equal(t, 2, st.SubscriberCount())

	m.HandleAuthEvent(auth.Event{User: auth.User{ID: testUser}, SignedIn: false})
	require.Equal(t, 0, st.SubscriberCount())

	s3, err := m.Session(ctx, testUser)
	require.NoError(t, err)
	require.NotSame(t, s1, s3)
	m.CloseAll()
	require.Equal(t, 0, st.SubscriberCount())
}
