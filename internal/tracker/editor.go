package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
)

// EntryKind selects which of the editor's two parallel sub-flows a draft
// belongs to. Both share one modal lifecycle and one editing id.
type EntryKind string

const (
	KindWorkout EntryKind = "workout"
	KindDiet    EntryKind = "diet"
)

// ParseEntryKind validates a kind coming in over the wire.
func ParseEntryKind(s string) (EntryKind, error) {
	switch k := EntryKind(s); k {
	case KindWorkout, KindDiet:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
}

var (
	ErrEditorClosed        = errors.New("editor is not open")
	ErrUnknownVocabulary   = errors.New("value is not in the fixed vocabulary")
	ErrExerciseNotSelected = errors.New("exercise is not selected in the draft")
)

// defaultWater is the draft's starting water volume (cc).
const defaultWater = 2000

// WorkoutDraft is the local draft state for one workout entry being
// created or edited.
type WorkoutDraft struct {
	Date      string               `json:"date"`
	Weight    float64              `json:"weight"`
	Note      string               `json:"note"`
	BodyParts []string             `json:"bodyParts"`
	Exercises []domain.ExerciseSet `json:"exercises"`
}

// DietDraft is the local draft state for one diet entry.
type DietDraft struct {
	Date      string   `json:"date"`
	Breakfast string   `json:"breakfast"`
	Lunch     string   `json:"lunch"`
	Dinner    string   `json:"dinner"`
	Snacks    string   `json:"snacks"`
	Water     int      `json:"water"`
	Tags      []string `json:"tags"`
}

// editorState is the modal's full state. A nil editingID means create; a
// non-nil one means the entry with that id is being edited.
type editorState struct {
	open      bool
	kind      EntryKind
	editingID *int64
	workout   WorkoutDraft
	diet      DietDraft
}

// reset clears every draft field to its default.
func (e *editorState) reset(now time.Time) {
	today := now.Format(domain.DateLayout)
	e.open = false
	e.kind = KindWorkout
	e.editingID = nil
	e.workout = WorkoutDraft{
		Date:      today,
		Weight:    domain.DefaultWeight,
		BodyParts: []string{},
		Exercises: []domain.ExerciseSet{},
	}
	e.diet = DietDraft{
		Date:  today,
		Water: defaultWater,
		Tags:  []string{},
	}
}

func (e *editorState) validWorkout() bool {
	return len(e.workout.BodyParts) > 0 || len(e.workout.Exercises) > 0
}

func (e *editorState) validDiet() bool {
	if e.diet.Water <= 0 {
		return false
	}
	for _, meal := range []string{e.diet.Breakfast, e.diet.Lunch, e.diet.Dinner, e.diet.Snacks} {
		if strings.TrimSpace(meal) != "" {
			return true
		}
	}
	return false
}

func (e *editorState) valid(kind EntryKind) bool {
	if kind == KindDiet {
		return e.validDiet()
	}
	return e.validWorkout()
}

// EditorSnapshot is the read-only projection of the editor.
type EditorSnapshot struct {
	Open      bool         `json:"open"`
	Kind      EntryKind    `json:"kind"`
	EditingID *int64       `json:"editingId,omitempty"`
	Workout   WorkoutDraft `json:"workout"`
	Diet      DietDraft    `json:"diet"`
	Valid     bool         `json:"valid"`
	CanSave   bool         `json:"canSave"`
	Hint      string       `json:"hint,omitempty"`
}

// Editor returns the current draft state plus derived validity. Save is
// allowed only when the draft is valid and a plan is active; without an
// active plan a passive hint explains why.
func (s *Session) Editor() EditorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := EditorSnapshot{
		Open:      s.editor.open,
		Kind:      s.editor.kind,
		EditingID: s.editor.editingID,
		Workout:   s.editor.workout,
		Diet:      s.editor.diet,
	}
	snap.Valid = s.editor.valid(s.editor.kind)
	hasPlan := s.findPlanLocked(s.activePlanID) != nil
	snap.CanSave = snap.Valid && hasPlan
	if !hasPlan {
		snap.Hint = ErrNoActivePlan.Error()
	}
	return snap
}

// OpenEditorForCreate clears all draft fields to defaults, sets the kind
// and opens the editor.
func (s *Session) OpenEditorForCreate(kind EntryKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.reset(time.Now())
	s.editor.kind = kind
	s.editor.open = true
}

// OpenEditorForEdit loads every field of the identified entry of the
// active plan into the draft and records the editing id.
func (s *Session) OpenEditorForEdit(kind EntryKind, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan := s.findPlanLocked(s.activePlanID)
	if plan == nil {
		return ErrNoActivePlan
	}

	s.editor.reset(time.Now())
	s.editor.kind = kind
	s.editor.open = true
	id := entryID
	s.editor.editingID = &id

	switch kind {
	case KindDiet:
		entry, ok := plan.DietEntryByID(entryID)
		if !ok {
			s.editor.reset(time.Now())
			return ErrEntryNotFound
		}
		s.editor.diet = DietDraft{
			Date:      entry.Date,
			Breakfast: entry.Breakfast,
			Lunch:     entry.Lunch,
			Dinner:    entry.Dinner,
			Snacks:    entry.Snacks,
			Water:     entry.Water,
			Tags:      append([]string{}, entry.Tags...),
		}
	default:
		entry, ok := plan.WorkoutEntryByID(entryID)
		if !ok {
			s.editor.reset(time.Now())
			return ErrEntryNotFound
		}
		s.editor.workout = WorkoutDraft{
			Date:      entry.Date,
			Weight:    entry.Weight,
			Note:      entry.Note,
			BodyParts: append([]string{}, entry.BodyParts...),
			Exercises: append([]domain.ExerciseSet{}, entry.Exercises...),
		}
	}
	return nil
}

// CloseEditor dismisses the modal and resets every draft field.
func (s *Session) CloseEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.reset(time.Now())
}

// WorkoutDraftPatch carries partial field updates; nil fields are left
// untouched.
type WorkoutDraftPatch struct {
	Date   *string  `json:"date"`
	Weight *float64 `json:"weight"`
	Note   *string  `json:"note"`
}

// DietDraftPatch carries partial field updates; nil fields are left
// untouched.
type DietDraftPatch struct {
	Date      *string `json:"date"`
	Breakfast *string `json:"breakfast"`
	Lunch     *string `json:"lunch"`
	Dinner    *string `json:"dinner"`
	Snacks    *string `json:"snacks"`
	Water     *int    `json:"water"`
}

// ApplyWorkoutPatch updates workout draft fields.
func (s *Session) ApplyWorkoutPatch(patch WorkoutDraftPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	if patch.Date != nil {
		if _, err := time.Parse(domain.DateLayout, *patch.Date); err != nil {
			return fmt.Errorf("invalid date %q", *patch.Date)
		}
		s.editor.workout.Date = *patch.Date
	}
	if patch.Weight != nil {
		s.editor.workout.Weight = *patch.Weight
	}
	if patch.Note != nil {
		s.editor.workout.Note = *patch.Note
	}
	return nil
}

// ApplyDietPatch updates diet draft fields.
func (s *Session) ApplyDietPatch(patch DietDraftPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	if patch.Date != nil {
		if _, err := time.Parse(domain.DateLayout, *patch.Date); err != nil {
			return fmt.Errorf("invalid date %q", *patch.Date)
		}
		s.editor.diet.Date = *patch.Date
	}
	if patch.Breakfast != nil {
		s.editor.diet.Breakfast = *patch.Breakfast
	}
	if patch.Lunch != nil {
		s.editor.diet.Lunch = *patch.Lunch
	}
	if patch.Dinner != nil {
		s.editor.diet.Dinner = *patch.Dinner
	}
	if patch.Snacks != nil {
		s.editor.diet.Snacks = *patch.Snacks
	}
	if patch.Water != nil {
		s.editor.diet.Water = *patch.Water
	}
	return nil
}

// ToggleBodyPart adds or removes a body-part tag from the workout draft.
func (s *Session) ToggleBodyPart(part string) error {
	if !contains(domain.BodyParts, part) {
		return ErrUnknownVocabulary
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	s.editor.workout.BodyParts = toggleString(s.editor.workout.BodyParts, part)
	return nil
}

// ToggleDietTag adds or removes a diet-tag label from the diet draft.
func (s *Session) ToggleDietTag(tag string) error {
	if !contains(domain.DietTags, tag) {
		return ErrUnknownVocabulary
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	s.editor.diet.Tags = toggleString(s.editor.diet.Tags, tag)
	return nil
}

// ToggleExercise adds or removes an exercise from the workout draft by its
// (name, category) identity. A newly added exercise starts with empty sets
// text, editable via SetExerciseSets.
func (s *Session) ToggleExercise(name, category string) error {
	if !libraryHas(category, name) {
		return ErrUnknownVocabulary
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	exercises := s.editor.workout.Exercises
	for i, ex := range exercises {
		if ex.Name == name && ex.Category == category {
			s.editor.workout.Exercises = append(exercises[:i:i], exercises[i+1:]...)
			return nil
		}
	}
	s.editor.workout.Exercises = append(exercises, domain.ExerciseSet{Name: name, Category: category})
	return nil
}

// SetExerciseSets updates the free-text sets field of a selected exercise.
func (s *Session) SetExerciseSets(name, category, sets string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editor.open {
		return ErrEditorClosed
	}
	for i, ex := range s.editor.workout.Exercises {
		if ex.Name == name && ex.Category == category {
			s.editor.workout.Exercises[i].Sets = sets
			return nil
		}
	}
	return ErrExerciseNotSelected
}

// SaveEntry finalizes the draft into an entry and writes the whole plan
// back. Editing replaces the entry in place by id; creating prepends a
// fresh one (id from the current time) and triggers the celebratory pulse.
// Either way the entry list is re-sorted newest-first before the write.
func (s *Session) SaveEntry(ctx context.Context) error {
	s.mu.Lock()
	plan := s.activePlanLocked()
	if plan == nil {
		s.mu.Unlock()
		return ErrNoActivePlan
	}
	if !s.editor.open {
		s.mu.Unlock()
		return ErrEditorClosed
	}
	kind := s.editor.kind
	if !s.editor.valid(kind) {
		s.mu.Unlock()
		return ErrInvalidDraft
	}

	creating := s.editor.editingID == nil
	var id int64
	if creating {
		id = time.Now().UnixMilli()
	} else {
		id = *s.editor.editingID
	}

	if kind == KindDiet {
		d := s.editor.diet
		entry := domain.DietEntry{
			ID:          id,
			Date:        d.Date,
			DisplayDate: domain.DisplayDate(d.Date),
			Breakfast:   d.Breakfast,
			Lunch:       d.Lunch,
			Dinner:      d.Dinner,
			Snacks:      d.Snacks,
			Water:       d.Water,
			Tags:        append([]string{}, d.Tags...),
		}
		plan.DietEntries = mergeDietEntry(plan.DietEntries, entry, creating)
	} else {
		w := s.editor.workout
		entry := domain.WorkoutEntry{
			ID:          id,
			Date:        w.Date,
			DisplayDate: domain.DisplayDate(w.Date),
			Note:        w.Note,
			BodyParts:   append([]string{}, w.BodyParts...),
			Apparatus:   distinctCategories(w.Exercises),
			Exercises:   append([]domain.ExerciseSet{}, w.Exercises...),
			Weight:      w.Weight,
		}
		plan.WorkoutEntries = mergeWorkoutEntry(plan.WorkoutEntries, entry, creating)
	}
	s.mu.Unlock()

	if err := s.PersistPlan(ctx, *plan); err != nil {
		return err
	}

	s.mu.Lock()
	s.editor.reset(time.Now())
	if creating {
		s.celebrateLocked()
	}
	s.mu.Unlock()
	return nil
}

// DeleteEntry removes the entry being edited from the active plan and
// persists the whole plan.
func (s *Session) DeleteEntry(ctx context.Context) error {
	s.mu.Lock()
	plan := s.activePlanLocked()
	if plan == nil {
		s.mu.Unlock()
		return ErrNoActivePlan
	}
	if !s.editor.open || s.editor.editingID == nil {
		s.mu.Unlock()
		return ErrNotEditing
	}
	id := *s.editor.editingID
	if s.editor.kind == KindDiet {
		entries := make([]domain.DietEntry, 0, len(plan.DietEntries))
		for _, e := range plan.DietEntries {
			if e.ID != id {
				entries = append(entries, e)
			}
		}
		plan.DietEntries = entries
	} else {
		entries := make([]domain.WorkoutEntry, 0, len(plan.WorkoutEntries))
		for _, e := range plan.WorkoutEntries {
			if e.ID != id {
				entries = append(entries, e)
			}
		}
		plan.WorkoutEntries = entries
	}
	s.mu.Unlock()

	if err := s.PersistPlan(ctx, *plan); err != nil {
		return err
	}

	s.mu.Lock()
	s.editor.reset(time.Now())
	s.mu.Unlock()
	return nil
}

// QuickComplete logs today's reinforcement as a fixed-shape workout entry,
// bypassing manual draft entry, through the same prepend+resort+persist
// path. The pick is deterministic for the calendar day, so it repeats on a
// cycle as long as the reinforcement library.
func (s *Session) QuickComplete(ctx context.Context) error {
	s.mu.Lock()
	plan := s.activePlanLocked()
	if plan == nil {
		s.mu.Unlock()
		return ErrNoActivePlan
	}
	now := time.Now()
	move := domain.TodaysReinforcement(now)
	today := now.Format(domain.DateLayout)
	entry := domain.WorkoutEntry{
		ID:          now.UnixMilli(),
		Date:        today,
		DisplayDate: domain.DisplayDate(today),
		Note:        fmt.Sprintf("Auto-logged: completed today's reinforcement %q", move.Name),
		BodyParts:   []string{"Core"},
		Apparatus:   []string{"Mat"},
		Exercises:   []domain.ExerciseSet{{Name: move.Name, Sets: "15x3", Category: "Mat"}},
		Weight:      plan.LatestWeight(),
	}
	plan.WorkoutEntries = mergeWorkoutEntry(plan.WorkoutEntries, entry, true)
	s.mu.Unlock()

	if err := s.PersistPlan(ctx, *plan); err != nil {
		return err
	}

	s.mu.Lock()
	s.celebrateLocked()
	s.mu.Unlock()
	return nil
}

// mergeWorkoutEntry replaces in place by id when editing, prepends when
// creating, and re-sorts newest-first either way.
func mergeWorkoutEntry(entries []domain.WorkoutEntry, entry domain.WorkoutEntry, creating bool) []domain.WorkoutEntry {
	var merged []domain.WorkoutEntry
	if creating {
		merged = append([]domain.WorkoutEntry{entry}, entries...)
	} else {
		merged = append([]domain.WorkoutEntry{}, entries...)
		for i := range merged {
			if merged[i].ID == entry.ID {
				merged[i] = entry
			}
		}
	}
	domain.SortWorkoutEntries(merged)
	return merged
}

func mergeDietEntry(entries []domain.DietEntry, entry domain.DietEntry, creating bool) []domain.DietEntry {
	var merged []domain.DietEntry
	if creating {
		merged = append([]domain.DietEntry{entry}, entries...)
	} else {
		merged = append([]domain.DietEntry{}, entries...)
		for i := range merged {
			if merged[i].ID == entry.ID {
				merged[i] = entry
			}
		}
	}
	domain.SortDietEntries(merged)
	return merged
}

// distinctCategories derives the apparatus set as the distinct categories
// of the draft's exercises, in first-appearance order.
func distinctCategories(exercises []domain.ExerciseSet) []string {
	seen := make(map[string]struct{}, len(exercises))
	out := []string{}
	for _, ex := range exercises {
		if _, ok := seen[ex.Category]; ok {
			continue
		}
		seen[ex.Category] = struct{}{}
		out = append(out, ex.Category)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func toggleString(list []string, v string) []string {
	for i, item := range list {
		if item == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, v)
}

func libraryHas(category, name string) bool {
	for _, ex := range domain.ExerciseLibrary[category] {
		if ex.Name == name {
			return true
		}
	}
	return false
}
