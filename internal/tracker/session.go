package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
	"github.com/Minpi-0/Health-Tracker/internal/store"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"
)

// --- Error Definitions ---
var (
	ErrNoActivePlan  = errors.New("create a plan first")
	ErrPlanNotFound  = errors.New("plan not found")
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidDraft  = errors.New("draft entry is not valid")
	ErrNotEditing    = errors.New("no entry is being edited")
	ErrInvalidPlan   = errors.New("plan requires a title and a target date")
)

// celebrationDelay is how long the celebratory pulse stays up after a
// successful create.
const celebrationDelay = 2200 * time.Millisecond

// PlanArchiver snapshots a plan document to out-of-band storage before it
// is deleted. Archive failure never blocks the deletion itself.
type PlanArchiver interface {
	ArchivePlan(ctx context.Context, userID string, plan domain.Plan) error
}

// Session owns the cached remote state for one signed-in user. It is the
// single writer of that state: local user intents and remote snapshot
// callbacks both funnel through its lock, and remote snapshots always win
// over stale local state. Writes never patch local state directly; the
// store's own echo refreshes the cache (stale for at most one round trip).
type Session struct {
	userID   string
	tenantID string
	st       store.DocumentStore
	archiver PlanArchiver
	log      *logger.Logger

	mu           sync.Mutex
	plans        []domain.Plan
	activePlanID string
	foods        domain.FoodRegistry
	view         domain.View
	celebrating  bool
	plansLoaded  bool
	editor       editorState

	subs           []store.Subscription
	celebrateTimer *time.Timer
	celebrateAfter time.Duration
}

// NewSession builds an idle session; Start attaches it to the store.
func NewSession(userID, tenantID string, st store.DocumentStore, archiver PlanArchiver, log *logger.Logger) *Session {
	s := &Session{
		userID:         userID,
		tenantID:       tenantID,
		st:             st,
		archiver:       archiver,
		log:            log,
		foods:          domain.DefaultFoodRegistry(),
		view:           domain.ViewHome,
		celebrateAfter: celebrationDelay,
	}
	s.editor.reset(time.Now())
	return s
}

// Start subscribes to the user's plans collection and common-food registry
// document. Each remote change replaces the cached state wholesale.
func (s *Session) Start(ctx context.Context) error {
	plansSub, err := s.st.SubscribeCollection(ctx, s.plansPath(), s.onPlansSnapshot)
	if err != nil {
		return fmt.Errorf("subscribe plans: %w", err)
	}
	foodsSub, err := s.st.SubscribeDocument(ctx, s.foodsPath(), s.onFoodsSnapshot)
	if err != nil {
		plansSub.Unsubscribe()
		return fmt.Errorf("subscribe common foods: %w", err)
	}
	s.mu.Lock()
	s.subs = append(s.subs, plansSub, foodsSub)
	s.mu.Unlock()
	return nil
}

// Close tears down every store listener. Called when the owning identity
// session ends, so no listener outlives its scope.
func (s *Session) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	if s.celebrateTimer != nil {
		s.celebrateTimer.Stop()
		s.celebrateTimer = nil
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// UserID returns the identity this session caches state for.
func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) plansPath() string {
	return fmt.Sprintf("artifacts/%s/users/%s/plans", s.tenantID, s.userID)
}

func (s *Session) planPath(planID string) string {
	return s.plansPath() + "/" + planID
}

func (s *Session) foodsPath() string {
	return fmt.Sprintf("artifacts/%s/users/%s/settings/commonFoods", s.tenantID, s.userID)
}

// onPlansSnapshot replaces the cached plan set with the remote snapshot,
// sorted most-future target date first. The active-plan pointer is
// auto-picked only while none is chosen; a manual choice is never
// overridden. A pointer left dangling by a deletion is cleared first, so
// the auto-pick rule then heals it.
func (s *Session) onPlansSnapshot(docs []store.Document) {
	plans := make([]domain.Plan, 0, len(docs))
	for _, doc := range docs {
		var plan domain.Plan
		if err := doc.Decode(&plan); err != nil {
			s.log.Warnw("skipping undecodable plan document", "path", doc.Path, "error", err)
			continue
		}
		plans = append(plans, plan)
	}
	sortPlansByTargetDateDesc(plans)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = plans
	s.plansLoaded = true
	if s.activePlanID != "" && s.findPlanLocked(s.activePlanID) == nil {
		s.activePlanID = ""
	}
	if s.activePlanID == "" && len(plans) > 0 {
		s.activePlanID = plans[0].ID
	}
}

// onFoodsSnapshot adopts the stored registry verbatim. When no registry
// document exists yet, the fixed default seed is written once; the write's
// own echo then delivers the adopted state.
func (s *Session) onFoodsSnapshot(doc *store.Document) {
	if doc == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.st.Set(ctx, s.foodsPath(), domain.DefaultFoodRegistry()); err != nil {
			s.log.Errorw("seed common-food registry", "user", s.userID, "error", err)
		}
		return
	}
	var foods domain.FoodRegistry
	if err := doc.Decode(&foods); err != nil {
		s.log.Warnw("skipping undecodable food registry", "path", doc.Path, "error", err)
		return
	}
	foods.Normalize()
	s.mu.Lock()
	s.foods = foods
	s.mu.Unlock()
}

// findPlanLocked returns a pointer into s.plans; callers hold s.mu.
func (s *Session) findPlanLocked(planID string) *domain.Plan {
	for i := range s.plans {
		if s.plans[i].ID == planID {
			return &s.plans[i]
		}
	}
	return nil
}

// celebrate raises the celebratory pulse and schedules its auto-dismissal.
// Callers hold s.mu.
func (s *Session) celebrateLocked() {
	s.celebrating = true
	if s.celebrateTimer != nil {
		s.celebrateTimer.Stop()
	}
	s.celebrateTimer = time.AfterFunc(s.celebrateAfter, func() {
		s.mu.Lock()
		s.celebrating = false
		s.mu.Unlock()
	})
}

// View returns the currently selected projection.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView routes the UI to another read-only projection.
func (s *Session) SetView(view domain.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
}
