package tracker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/domain"

	"github.com/google/uuid"
)

func sortPlansByTargetDateDesc(plans []domain.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].TargetDate > plans[j].TargetDate
	})
}

// Plans returns the cached plan set, most-future target date first.
func (s *Session) Plans() []domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Plan(nil), s.plans...)
}

// PlansLoaded reports whether the initial plans snapshot has arrived.
func (s *Session) PlansLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plansLoaded
}

// ActivePlan returns a copy of the active plan, or nil when none is chosen.
func (s *Session) ActivePlan() *domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePlanLocked()
}

func (s *Session) activePlanLocked() *domain.Plan {
	p := s.findPlanLocked(s.activePlanID)
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ActivePlanID returns the active-plan pointer ("" when none is chosen).
func (s *Session) ActivePlanID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePlanID
}

// SetActivePlan is a pure local pointer change; it also routes the view
// back to the home projection, matching plan activation in the UI.
func (s *Session) SetActivePlan(planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findPlanLocked(planID) == nil {
		return ErrPlanNotFound
	}
	s.activePlanID = planID
	s.view = domain.ViewHome
	return nil
}

// CreatePlan writes a fresh plan document with a baseline weight snapshot,
// sets it active and switches to the home view. The cached plan list itself
// is refreshed by the store echo, not here.
func (s *Session) CreatePlan(ctx context.Context, title, targetDate string, targetWeight float64) (domain.Plan, error) {
	if strings.TrimSpace(title) == "" || targetDate == "" {
		return domain.Plan{}, ErrInvalidPlan
	}
	if _, err := time.Parse(domain.DateLayout, targetDate); err != nil {
		return domain.Plan{}, ErrInvalidPlan
	}

	s.mu.Lock()
	baseline := domain.DefaultWeight
	if active := s.activePlanLocked(); active != nil {
		baseline = active.LatestWeight()
	}
	s.mu.Unlock()

	plan := domain.Plan{
		ID:             "p-" + uuid.NewString(),
		Title:          title,
		TargetDate:     targetDate,
		TargetWeight:   targetWeight,
		BaselineWeight: baseline,
		WorkoutEntries: []domain.WorkoutEntry{},
		DietEntries:    []domain.DietEntry{},
	}
	if err := s.PersistPlan(ctx, plan); err != nil {
		return domain.Plan{}, err
	}

	s.mu.Lock()
	s.activePlanID = plan.ID
	s.view = domain.ViewHome
	s.mu.Unlock()
	return plan, nil
}

// RemovePlan deletes the plan document, cascading its embedded entries. A
// JSON snapshot goes to the archive first; archive failure is logged, not
// propagated. If the deleted plan was active, the pointer heals on the next
// snapshot.
func (s *Session) RemovePlan(ctx context.Context, planID string) error {
	s.mu.Lock()
	plan := s.findPlanLocked(planID)
	var cp domain.Plan
	if plan != nil {
		cp = *plan
	}
	s.mu.Unlock()
	if plan == nil {
		return ErrPlanNotFound
	}

	if s.archiver != nil {
		if err := s.archiver.ArchivePlan(ctx, s.userID, cp); err != nil {
			s.log.Errorw("archive plan before delete", "plan", planID, "error", err)
		}
	}
	return s.st.Delete(ctx, s.planPath(planID))
}

// PersistPlan is an idempotent whole-document overwrite and the only
// mutation path for entries. Callers pass the complete desired plan state;
// there are no partial or merge semantics.
func (s *Session) PersistPlan(ctx context.Context, plan domain.Plan) error {
	if plan.ID == "" {
		return ErrPlanNotFound
	}
	return s.st.Set(ctx, s.planPath(plan.ID), plan)
}
