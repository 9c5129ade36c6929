package tracker

import (
	"context"
	"errors"
	"strings"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
)

var (
	ErrBlankFoodName   = errors.New("food name cannot be blank")
	ErrFoodIndexRange  = errors.New("food index out of range")
	ErrRegistryMissing = errors.New("food registry not loaded yet")
)

// Foods returns the cached registry with each slot in display order:
// pinned items first, original relative order kept within each pin group.
func (s *Session) Foods() domain.FoodRegistry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.FoodRegistry, len(domain.MealSlots))
	for _, slot := range domain.MealSlots {
		out[slot] = s.foods.SortedPinnedFirst(slot)
	}
	return out
}

// AddFood appends an unpinned item to the slot and persists the whole
// registry document. Blank or whitespace-only names are rejected.
func (s *Session) AddFood(ctx context.Context, slot domain.MealSlot, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankFoodName
	}
	s.mu.Lock()
	updated := s.foods.Clone()
	updated[slot] = append(updated[slot], domain.FoodItem{Name: name})
	s.mu.Unlock()
	return s.persistFoods(ctx, updated)
}

// RemoveFood removes the item at the slot's positional index (stored
// order, not display order) and persists.
func (s *Session) RemoveFood(ctx context.Context, slot domain.MealSlot, index int) error {
	s.mu.Lock()
	items := s.foods[slot]
	if index < 0 || index >= len(items) {
		s.mu.Unlock()
		return ErrFoodIndexRange
	}
	updated := s.foods.Clone()
	updated[slot] = append(updated[slot][:index:index], updated[slot][index+1:]...)
	s.mu.Unlock()
	return s.persistFoods(ctx, updated)
}

// TogglePin flips the pinned flag at the slot's positional index and
// persists.
func (s *Session) TogglePin(ctx context.Context, slot domain.MealSlot, index int) error {
	s.mu.Lock()
	items := s.foods[slot]
	if index < 0 || index >= len(items) {
		s.mu.Unlock()
		return ErrFoodIndexRange
	}
	updated := s.foods.Clone()
	updated[slot][index].Pinned = !updated[slot][index].Pinned
	s.mu.Unlock()
	return s.persistFoods(ctx, updated)
}

// QuickInsertFood appends a food name into the diet draft's meal field for
// the slot, inserting a separator only when prior text is non-blank. The
// registry itself is untouched.
func (s *Session) QuickInsertFood(slot domain.MealSlot, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	switch slot {
	case domain.MealBreakfast:
		s.editor.diet.Breakfast = domain.QuickInsert(s.editor.diet.Breakfast, name)
	case domain.MealLunch:
		s.editor.diet.Lunch = domain.QuickInsert(s.editor.diet.Lunch, name)
	case domain.MealDinner:
		s.editor.diet.Dinner = domain.QuickInsert(s.editor.diet.Dinner, name)
	case domain.MealSnacks:
		s.editor.diet.Snacks = domain.QuickInsert(s.editor.diet.Snacks, name)
	}
	return nil
}

// persistFoods overwrites the whole registry document. The registry always
// keeps exactly the four meal-slot keys.
func (s *Session) persistFoods(ctx context.Context, foods domain.FoodRegistry) error {
	foods.Normalize()
	return s.st.Set(ctx, s.foodsPath(), foods)
}
