package domain

import "fmt"

// View selects which read-only projection of the session state is rendered.
type View string

const (
	ViewHome           View = "home"
	ViewWorkoutHistory View = "workout_history"
	ViewDietHistory    View = "diet_history"
	ViewPlanManage     View = "plan_manage"
)

// ParseView validates a view name coming in over the wire.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewHome, ViewWorkoutHistory, ViewDietHistory, ViewPlanManage:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}
