package domain

import (
	"fmt"
	"sort"
	"strings"
)

// MealSlot identifies one of the four fixed meal fields of a diet entry.
type MealSlot string

const (
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
	MealSnacks    MealSlot = "snacks"
)

// MealSlots lists the four slots in display order. A food registry document
// must always contain exactly these keys.
var MealSlots = []MealSlot{MealBreakfast, MealLunch, MealDinner, MealSnacks}

// ParseMealSlot validates a slot name coming in over the wire.
func ParseMealSlot(s string) (MealSlot, error) {
	slot := MealSlot(s)
	for _, known := range MealSlots {
		if slot == known {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// FoodItem is one entry of the per-user common-food picklist.
type FoodItem struct {
	Name   string `bson:"name" json:"name"`
	Pinned bool   `bson:"pinned" json:"pinned"`
}

// FoodRegistry maps each meal slot to its ordered picklist.
type FoodRegistry map[MealSlot][]FoodItem

// DefaultFoodRegistry returns a fresh copy of the fixed seed written for a
// user on first use. Later changes to the seed never retroactively affect
// registries already stored.
func DefaultFoodRegistry() FoodRegistry {
	seed := FoodRegistry{
		MealBreakfast: {
			{Name: "Soy Milk", Pinned: true}, {Name: "Boiled Eggs", Pinned: true}, {Name: "Whole Wheat Toast"},
			{Name: "Oatmeal"}, {Name: "Chicken Salad"}, {Name: "Greek Yogurt"},
		},
		MealLunch: {
			{Name: "Sous-vide Chicken Breast", Pinned: true}, {Name: "Brown Rice", Pinned: true}, {Name: "Healthy Meal Box", Pinned: true},
			{Name: "Blanched Greens"}, {Name: "Pan-seared Salmon"}, {Name: "Sweet Potato"},
		},
		MealDinner: {
			{Name: "Steamed Fish", Pinned: true}, {Name: "Stir-fried Greens", Pinned: true}, {Name: "Lean Salad"},
			{Name: "Tofu"}, {Name: "Seafood Soup"}, {Name: "Poached Pork Slices"},
		},
		MealSnacks: {
			{Name: "Mixed Nuts", Pinned: true}, {Name: "Apple"}, {Name: "Banana"},
			{Name: "Protein Bar"}, {Name: "Black Coffee"}, {Name: "Blueberries"},
		},
	}
	return seed.Clone()
}

// Clone deep-copies the registry so callers can mutate freely.
func (r FoodRegistry) Clone() FoodRegistry {
	out := make(FoodRegistry, len(r))
	for slot, items := range r {
		out[slot] = append([]FoodItem(nil), items...)
	}
	return out
}

// Normalize guarantees the root contract: all four meal-slot keys present,
// none nil.
func (r FoodRegistry) Normalize() {
	for _, slot := range MealSlots {
		if r[slot] == nil {
			r[slot] = []FoodItem{}
		}
	}
}

// SortedPinnedFirst returns the slot's items for display: pinned items
// first, original relative order preserved within each pin group.
func (r FoodRegistry) SortedPinnedFirst(slot MealSlot) []FoodItem {
	items := append([]FoodItem(nil), r[slot]...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Pinned && !items[j].Pinned
	})
	return items
}

// QuickInsertSeparator joins food names appended into a meal field.
const QuickInsertSeparator = "、"

// QuickInsert appends a food name to a meal field's current text, inserting
// the separator only when there is prior non-blank text. Pure text helper;
// it does not touch the registry.
func QuickInsert(currentText, name string) string {
	if strings.TrimSpace(currentText) == "" {
		return currentText + name
	}
	return currentText + QuickInsertSeparator + name
}
