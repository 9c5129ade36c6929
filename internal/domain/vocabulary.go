package domain

import "time"

// The fixed vocabularies below are static configuration data. Core logic
// never branches on individual values, so extending a list is a data edit.

// BodyParts is the fixed body-part tag vocabulary for workout entries.
var BodyParts = []string{"Core", "Upper Body", "Lower Body", "Full Body Flow"}

// DietTags is the fixed tag vocabulary for diet entries.
var DietTags = []string{
	"Protein Goal Met",
	"Low Carb",
	"Light Meals",
	"Eating Out Controlled",
	"Reward Meal",
}

// LibraryExercise is one catalogue move, grouped by apparatus.
type LibraryExercise struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// ApparatusTypes lists equipment categories in display order. Every key of
// ExerciseLibrary appears here.
var ApparatusTypes = []string{"Reformer", "Cadillac", "Chair", "Barrel", "Mat"}

// ExerciseLibrary is the fixed pilates exercise catalogue per apparatus.
var ExerciseLibrary = map[string][]LibraryExercise{
	"Reformer": {
		{Name: "Footwork", Desc: "Foundational foot strength and alignment"},
		{Name: "Elephant", Desc: "Core stability with posterior spine stretch"},
		{Name: "Crunches", Desc: "Carriage-assisted deep core contraction"},
		{Name: "Stomach Massage", Desc: "Spinal mobility and deep abdominals"},
	},
	"Cadillac": {
		{Name: "Roll Down", Desc: "Segmental spinal articulation for stiffness"},
		{Name: "Chest Expansion", Desc: "Opens the chest, counters rounded shoulders"},
	},
	"Chair": {
		{Name: "Swan", Desc: "Upper-back strength against forward head posture"},
		{Name: "Push Down", Desc: "Scapular stability and core balance control"},
	},
	"Barrel": {
		{Name: "Short Box", Desc: "Lateral stability and trunk stretch"},
		{Name: "Side Sit-ups", Desc: "Oblique line and neutral pelvis training"},
	},
	"Mat": {
		{Name: "The Hundred", Desc: "The classic pilates core warm-up"},
		{Name: "Dead Bug", Desc: "The best restorative move for lateral curvature"},
	},
}

// Reinforcement is a daily-rotating suggested corrective exercise, shown
// independent of any plan.
type Reinforcement struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// DailyReinforcements is the fixed rotation library. The pick cycles on a
// len(DailyReinforcements)-day period.
var DailyReinforcements = []Reinforcement{
	{Name: "Dead Bug", Desc: "Stabilizes the core against lateral curvature. Keep the lower back on the floor."},
	{Name: "Cat-Cow", Desc: "Improves spinal mobility and eases back tightness."},
	{Name: "Bird-Dog", Desc: "Builds contralateral balance and deep core stability."},
	{Name: "Glute Bridge", Desc: "Activates the glutes, stabilizing pelvis and lower spine."},
	{Name: "Swan", Desc: "Lengthens the anterior core, strengthens upper back and thoracic spine."},
	{Name: "Side Plank", Desc: "Strengthens the lateral core and improves side alignment."},
	{Name: "Child's Pose", Desc: "Deeply releases the posterior spine and calms the body."},
}

// TodaysReinforcement picks the move for the given day deterministically:
// the same value for every call within one calendar day, for all users.
func TodaysReinforcement(now time.Time) Reinforcement {
	return DailyReinforcements[now.Day()%len(DailyReinforcements)]
}
