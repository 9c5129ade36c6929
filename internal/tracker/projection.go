package tracker

import (
	"math"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
)

// HomeProjection is the dashboard: goal countdown, weight progress and
// entry counts for the active plan, plus today's reinforcement.
type HomeProjection struct {
	HasPlan         bool                 `json:"hasPlan"`
	PlanID          string               `json:"planId,omitempty"`
	Title           string               `json:"title,omitempty"`
	DaysLeft        int                  `json:"daysLeft"`
	LatestWeight    float64              `json:"latestWeight"`
	RemainingKg     float64              `json:"remainingKg"`
	ProgressPercent float64              `json:"progressPercent"`
	WorkoutCount    int                  `json:"workoutCount"`
	DietCount       int                  `json:"dietCount"`
	Reinforcement   domain.Reinforcement `json:"reinforcement"`
	Celebrating     bool                 `json:"celebrating"`
}

// HistoryProjection is the timeline for one entry kind of the active plan.
type HistoryProjection struct {
	HasPlan        bool                  `json:"hasPlan"`
	WorkoutEntries []domain.WorkoutEntry `json:"workoutEntries,omitempty"`
	DietEntries    []domain.DietEntry    `json:"dietEntries,omitempty"`
}

// PlanSummary is one row of the plan-manage projection.
type PlanSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	TargetDate   string  `json:"targetDate"`
	TargetWeight float64 `json:"targetWeight"`
	WorkoutCount int     `json:"workoutCount"`
	DietCount    int     `json:"dietCount"`
	Active       bool    `json:"active"`
}

// PlanManageProjection lists all plans, most-future target date first.
type PlanManageProjection struct {
	Plans []PlanSummary `json:"plans"`
}

// Projection is the rendering of the currently routed view.
type Projection struct {
	View       domain.View           `json:"view"`
	Home       *HomeProjection       `json:"home,omitempty"`
	History    *HistoryProjection    `json:"history,omitempty"`
	PlanManage *PlanManageProjection `json:"planManage,omitempty"`
}

// Projection renders the read-only projection for the current view from
// cached state.
func (s *Session) Projection() Projection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Projection{View: s.view}
	switch s.view {
	case domain.ViewWorkoutHistory:
		h := &HistoryProjection{}
		if plan := s.activePlanLocked(); plan != nil {
			h.HasPlan = true
			h.WorkoutEntries = append([]domain.WorkoutEntry{}, plan.WorkoutEntries...)
		}
		out.History = h
	case domain.ViewDietHistory:
		h := &HistoryProjection{}
		if plan := s.activePlanLocked(); plan != nil {
			h.HasPlan = true
			h.DietEntries = append([]domain.DietEntry{}, plan.DietEntries...)
		}
		out.History = h
	case domain.ViewPlanManage:
		pm := &PlanManageProjection{Plans: []PlanSummary{}}
		for _, plan := range s.plans {
			pm.Plans = append(pm.Plans, PlanSummary{
				ID:           plan.ID,
				Title:        plan.Title,
				TargetDate:   plan.TargetDate,
				TargetWeight: plan.TargetWeight,
				WorkoutCount: len(plan.WorkoutEntries),
				DietCount:    len(plan.DietEntries),
				Active:       plan.ID == s.activePlanID,
			})
		}
		out.PlanManage = pm
	default:
		out.Home = s.homeProjectionLocked(time.Now())
	}
	return out
}

func (s *Session) homeProjectionLocked(now time.Time) *HomeProjection {
	home := &HomeProjection{
		Reinforcement: domain.TodaysReinforcement(now),
		Celebrating:   s.celebrating,
	}
	plan := s.activePlanLocked()
	if plan == nil {
		return home
	}
	latest := plan.LatestWeight()
	home.HasPlan = true
	home.PlanID = plan.ID
	home.Title = plan.Title
	home.DaysLeft = plan.DaysLeft(now)
	home.LatestWeight = latest
	home.RemainingKg = roundTenth(latest - plan.TargetWeight)
	home.ProgressPercent = plan.ProgressPercent()
	home.WorkoutCount = len(plan.WorkoutEntries)
	home.DietCount = len(plan.DietEntries)
	return home
}

// roundTenth keeps the "kg to go" readout to one decimal, like the UI.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// Celebrating reports whether the celebratory pulse is currently up.
func (s *Session) Celebrating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.celebrating
}
