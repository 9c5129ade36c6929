package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/auth"
	"github.com/Minpi-0/Health-Tracker/internal/store/storetest"
	"github.com/Minpi-0/Health-Tracker/internal/tracker"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	store   *storetest.MemoryStore
	manager *tracker.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := storetest.NewMemoryStore()
	authService := auth.NewService("test-secret", time.Hour)
	manager := tracker.NewManager("test-tenant", st, nil, logger.NewNop())
	sub := authService.OnAuthChange(manager.HandleAuthEvent)
	t.Cleanup(sub.Unsubscribe)
	t.Cleanup(manager.CloseAll)

	router := gin.New()
	SetupRoutes(router, authService, manager, "")
	return &testServer{router: router, store: st, manager: manager}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// signIn establishes an anonymous session and returns its bearer token.
func (ts *testServer) signIn(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/anonymous", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SignInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.True(t, resp.Anonymous)
	return resp.Token
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/view", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/view", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenSignInFallsBackToAnonymous(t *testing.T) {
	ts := newTestServer(t)

	// No token in the body and no bootstrap token configured.
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SignInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Anonymous)

	// A malformed custom token is rejected, not silently downgraded.
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"token": "junk"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetViewDefaultsToHome(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/view", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var proj tracker.Projection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proj))
	require.Equal(t, "home", string(proj.View))
	require.NotNil(t, proj.Home)
	require.False(t, proj.Home.HasPlan)
	require.NotEmpty(t, proj.Home.Reinforcement.Name)
}

func TestSetViewValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/view", token, map[string]string{"view": "plan_manage"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/view", token, map[string]string{"view": "settings"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/plans", token, CreatePlanRequest{
		Title: "Summer goal", TargetDate: "2026-09-01", TargetWeight: 52,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.True(t, created.Active)
	require.NotZero(t, created.BaselineWeight)

	rec = ts.do(t, http.MethodGet, "/api/v1/plans", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans []PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 1)

	rec = ts.do(t, http.MethodPost, "/api/v1/plans/"+created.ID+"/activate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/plans/p-missing/activate", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/plans/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/plans", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Empty(t, plans)
}

func TestCreatePlanValidationOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/plans", token, map[string]any{"title": "No date"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/plans", token, CreatePlanRequest{
		Title: "Bad date", TargetDate: "09/01/2026",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditorFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/plans", token, CreatePlanRequest{
		Title: "Goal", TargetDate: "2026-09-01", TargetWeight: 52,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/editor/open", token, OpenEditorRequest{Kind: "workout"})
	require.Equal(t, http.StatusOK, rec.Code)
	var snap tracker.EditorSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.True(t, snap.Open)
	require.False(t, snap.CanSave)

	rec = ts.do(t, http.MethodPost, "/api/v1/editor/workout/body-parts/toggle", token, ToggleRequest{Value: "Core"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.True(t, snap.CanSave)

	rec = ts.do(t, http.MethodPost, "/api/v1/editor/workout/body-parts/toggle", token, ToggleRequest{Value: "Neck"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/editor/save", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var proj tracker.Projection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proj))
	require.NotNil(t, proj.Home)
	require.Equal(t, 1, proj.Home.WorkoutCount)
	require.True(t, proj.Home.Celebrating)
}

func TestSaveWithoutPlanConflicts(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/editor/open", token, OpenEditorRequest{Kind: "diet"})
	require.Equal(t, http.StatusOK, rec.Code)

	water := 1500
	rec = ts.do(t, http.MethodPatch, "/api/v1/editor/diet", token, tracker.DietDraftPatch{
		Breakfast: strPtr("Oatmeal"), Water: &water,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/editor/save", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "create a plan first")
}

func TestFoodRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/foods", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var foods map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &foods))
	require.Len(t, foods["breakfast"], 6)

	rec = ts.do(t, http.MethodPost, "/api/v1/foods/snacks", token, AddFoodRequest{Name: "Dried Mango"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/foods/brunch", token, AddFoodRequest{Name: "Pancakes"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/foods/snacks/0/pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/foods/snacks/42", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/foods/snacks/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Quick insert needs an open editor.
	rec = ts.do(t, http.MethodPost, "/api/v1/editor/diet/insert/lunch", token, QuickInsertRequest{Name: "Brown Rice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/editor/open", token, OpenEditorRequest{Kind: "diet"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/editor/diet/insert/lunch", token, QuickInsertRequest{Name: "Brown Rice"})
	require.Equal(t, http.StatusOK, rec.Code)
	var snap tracker.EditorSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, "Brown Rice", snap.Diet.Lunch)
}

func TestSignOutReleasesSession(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t)

	// Touching a protected route materializes the tracker session.
	rec := ts.do(t, http.MethodGet, "/api/v1/view", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, ts.store.SubscriberCount())

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 0, ts.store.SubscriberCount())
}

func strPtr(s string) *string { return &s }
