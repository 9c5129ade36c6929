package tracker

import (
	"context"
	"testing"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
	"github.com/Minpi-0/Health-Tracker/internal/store/storetest"

	"github.com/stretchr/testify/require"
)

func TestAddFoodPersistsAndEchoes(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := newTestSession(t, st)
	ctx := context.Background()

	setsBefore := st.SetCalls
	require.NoError(t, s.AddFood(ctx, domain.MealSnacks, "  Dried Mango  "))
	require.Equal(t, setsBefore+1, st.SetCalls)

	items := s.Foods()[domain.MealSnacks]
	require.Len(t, items, 7)
	// New items are unpinned, so they sort after the pinned seed items.
	last := items[len(items)-1]
	require.Equal(t, "Dried Mango", last.Name)
	require.False(t, last.Pinned)
}

func TestAddFoodRejectsBlankName(t *testing.T) {
	s := newTestSession(t, storetest.NewMemoryStore())
	require.ErrorIs(t, s.AddFood(context.Background(), domain.MealLunch, "   "), ErrBlankFoodName)
}

func TestRemoveFoodByStoredIndex(t *testing.T) {
	s := newTestSession(t, storetest.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, s.RemoveFood(ctx, domain.MealBreakfast, 0))
	require.Len(t, s.Foods()[domain.MealBreakfast], 5)

	require.ErrorIs(t, s.RemoveFood(ctx, domain.MealBreakfast, 5), ErrFoodIndexRange)
	require.ErrorIs(t, s.RemoveFood(ctx, domain.MealBreakfast, -1), ErrFoodIndexRange)
}

func TestTogglePin(t *testing.T) {
	s := newTestSession(t, storetest.NewMemoryStore())
	ctx := context.Background()

	// Snacks seed: only index 0 is pinned. Pin another and it joins the
	// front group in display order.
	require.NoError(t, s.TogglePin(ctx, domain.MealSnacks, 3))
	items := s.Foods()[domain.MealSnacks]
	require.Equal(t, "Mixed Nuts", items[0].Name)
	require.Equal(t, "Protein Bar", items[1].Name)
	require.True(t, items[1].Pinned)

	// Unpin it again.
	require.NoError(t, s.TogglePin(ctx, domain.MealSnacks, 3))
	for _, item := range s.Foods()[domain.MealSnacks][1:] {
		require.False(t, item.Pinned)
	}

	require.ErrorIs(t, s.TogglePin(ctx, domain.MealSnacks, 42), ErrFoodIndexRange)
}

func TestQuickInsertFood(t *testing.T) {
	s := newTestSession(t, storetest.NewMemoryStore())

	require.ErrorIs(t, s.QuickInsertFood(domain.MealLunch, "Brown Rice"), ErrEditorClosed)

	s.OpenEditorForCreate(KindDiet)
	require.NoError(t, s.QuickInsertFood(domain.MealLunch, "Brown Rice"))
	require.Equal(t, "Brown Rice", s.Editor().Diet.Lunch)

	require.NoError(t, s.QuickInsertFood(domain.MealLunch, "Steamed Fish"))
	require.Equal(t, "Brown Rice"+domain.QuickInsertSeparator+"Steamed Fish", s.Editor().Diet.Lunch)

	// Other meal fields stay untouched, and the registry itself too.
	require.Equal(t, "", s.Editor().Diet.Breakfast)
	require.Len(t, s.Foods()[domain.MealLunch], 6)
}
