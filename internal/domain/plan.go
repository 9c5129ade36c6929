package domain

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the ISO calendar-date form used for entry and plan dates.
const DateLayout = "2006-01-02"

// DefaultWeight is the fallback body weight (kg) used when a plan has
// neither workout entries nor a baseline snapshot.
const DefaultWeight = 57.1

// Plan is a user-defined fitness/diet goal. All entries logged against the
// plan live embedded in the plan document itself; there is no independent
// entry lifecycle, and every mutation is a whole-document overwrite.
type Plan struct {
	ID             string         `bson:"id" json:"id"`
	Title          string         `bson:"title" json:"title"`
	TargetDate     string         `bson:"targetDate" json:"targetDate"`
	TargetWeight   float64        `bson:"targetWeight" json:"targetWeight"`
	BaselineWeight float64        `bson:"baselineWeight" json:"baselineWeight"`
	WorkoutEntries []WorkoutEntry `bson:"workoutEntries" json:"workoutEntries"`
	DietEntries    []DietEntry    `bson:"dietEntries" json:"dietEntries"`
}

// ExerciseSet is one exercise performed within a workout entry. Sets is
// free text ("15x3"); Category is the apparatus the exercise belongs to.
type ExerciseSet struct {
	Name     string `bson:"name" json:"name"`
	Sets     string `bson:"sets" json:"sets"`
	Category string `bson:"category" json:"category"`
}

// WorkoutEntry is one dated workout record.
type WorkoutEntry struct {
	ID          int64         `bson:"id" json:"id"`
	Date        string        `bson:"date" json:"date"`
	DisplayDate string        `bson:"displayDate" json:"displayDate"`
	Note        string        `bson:"note" json:"note"`
	BodyParts   []string      `bson:"bodyParts" json:"bodyParts"`
	Apparatus   []string      `bson:"apparatus" json:"apparatus"`
	Exercises   []ExerciseSet `bson:"exercises" json:"exercises"`
	Weight      float64       `bson:"weight" json:"weight"`
}

// DietEntry is one dated diet record. Meal fields hold separator-joined
// food names; Water is in cc.
type DietEntry struct {
	ID          int64    `bson:"id" json:"id"`
	Date        string   `bson:"date" json:"date"`
	DisplayDate string   `bson:"displayDate" json:"displayDate"`
	Breakfast   string   `bson:"breakfast" json:"breakfast"`
	Lunch       string   `bson:"lunch" json:"lunch"`
	Dinner      string   `bson:"dinner" json:"dinner"`
	Snacks      string   `bson:"snacks" json:"snacks"`
	Water       int      `bson:"water" json:"water"`
	Tags        []string `bson:"tags" json:"tags"`
}

// DisplayDate derives the human month/day label from an ISO date. It is
// computed once at save time and stored; it is never re-derived later.
func DisplayDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.Format("Jan 2")
}

// SortWorkoutEntries orders entries newest-first by date. The sort is
// stable so same-day entries keep their insertion order.
func SortWorkoutEntries(entries []WorkoutEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
}

// SortDietEntries orders entries newest-first by date, stable.
func SortDietEntries(entries []DietEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
}

// WorkoutEntryByID returns the workout entry with the given id, if present.
func (p *Plan) WorkoutEntryByID(id int64) (WorkoutEntry, bool) {
	for _, e := range p.WorkoutEntries {
		if e.ID == id {
			return e, true
		}
	}
	return WorkoutEntry{}, false
}

// DietEntryByID returns the diet entry with the given id, if present.
func (p *Plan) DietEntryByID(id int64) (DietEntry, bool) {
	for _, e := range p.DietEntries {
		if e.ID == id {
			return e, true
		}
	}
	return DietEntry{}, false
}

// DaysLeft counts the days from now until the plan's target date, rounding
// partial days up. Targets in the past come out negative.
func (p *Plan) DaysLeft(now time.Time) int {
	target, err := time.Parse(DateLayout, p.TargetDate)
	if err != nil {
		return 0
	}
	return int(math.Ceil(target.Sub(now).Hours() / 24))
}

// LatestWeight is the body weight snapshot of the most recent workout
// entry, falling back to the plan's baseline, then to DefaultWeight.
// Entries are kept sorted newest-first, so index 0 is the latest.
func (p *Plan) LatestWeight() float64 {
	if len(p.WorkoutEntries) > 0 && p.WorkoutEntries[0].Weight > 0 {
		return p.WorkoutEntries[0].Weight
	}
	if p.BaselineWeight > 0 {
		return p.BaselineWeight
	}
	return DefaultWeight
}

// ProgressPercent maps the distance travelled from baseline weight toward
// target weight onto [10,100]. A zero denominator (baseline == target) is
// substituted with 1 so the expression stays defined.
func (p *Plan) ProgressPercent() float64 {
	denom := p.BaselineWeight - p.TargetWeight
	if denom == 0 {
		denom = 1
	}
	percent := (1 - (p.LatestWeight()-p.TargetWeight)/denom) * 100
	if percent < 10 {
		return 10
	}
	if percent > 100 {
		return 100
	}
	return percent
}
