package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrtpod/wrtpod/internal/boundaries/in"
	"github.com/wrtpod/wrtpod/internal/domain"
)

type fakeOrchestrator struct {
	candidates    []domain.AutoUpdateCandidate
	candidatesErr error
	checkResults  []domain.UpdateCheckResult
	batch         domain.BatchResult
	checked       []domain.AutoUpdateCandidate
	updated       []domain.AutoUpdateCandidate
}

func (f *fakeOrchestrator) Candidates(ctx context.Context) ([]domain.AutoUpdateCandidate, error) {
	return f.candidates, f.candidatesErr
}

func (f *fakeOrchestrator) CheckForUpdates(ctx context.Context, candidates []domain.AutoUpdateCandidate, progress in.CheckProgress) []domain.UpdateCheckResult {
	f.checked = candidates
	return f.checkResults
}

func (f *fakeOrchestrator) UpdateContainer(ctx context.Context, c domain.AutoUpdateCandidate, step in.StepFunc) domain.UpdateResult {
	return domain.UpdateResult{Success: true, Name: c.Name}
}

func (f *fakeOrchestrator) UpdateContainers(ctx context.Context, candidates []domain.AutoUpdateCandidate, hooks in.BatchHooks) domain.BatchResult {
	f.updated = candidates
	return f.batch
}

type fakeIntegrator struct {
	has         bool
	state       domain.IntegrationState
	integration *domain.NetworkIntegration
	validation  domain.ValidationResult
	createErr   error
	created     []string
	removed     []string
}

func (f *fakeIntegrator) CreateIntegration(ctx context.Context, networkName string, opts domain.IntegrationOptions) error {
	f.created = append(f.created, networkName+"/"+opts.BridgeName)
	return f.createErr
}

func (f *fakeIntegrator) RemoveIntegration(ctx context.Context, networkName, bridgeName string) error {
	f.removed = append(f.removed, networkName+"/"+bridgeName)
	return nil
}

func (f *fakeIntegrator) HasIntegration(ctx context.Context, networkName string) bool {
	return f.has
}

func (f *fakeIntegrator) IsIntegrationComplete(ctx context.Context, networkName string) domain.IntegrationState {
	return f.state
}

func (f *fakeIntegrator) GetIntegration(ctx context.Context, networkName string) *domain.NetworkIntegration {
	return f.integration
}

func (f *fakeIntegrator) ValidateIntegration(ctx context.Context, networkName string, opts domain.IntegrationOptions) domain.ValidationResult {
	return f.validation
}

// fakePodman stubs the podman port surface the handlers touch.
type fakePodman struct {
	pingErr    error
	version    string
	sessionID  string
	pullErr    error
	status     *domain.PullStatus
	statusErr  error
	stopErr    error
	stopped    []string
	pulledRefs []string
}

func (f *fakePodman) ListContainers(ctx context.Context, all bool) ([]domain.Container, error) {
	return nil, nil
}
func (f *fakePodman) InspectContainer(ctx context.Context, nameOrID string) (*domain.ContainerDetail, error) {
	return nil, nil
}
func (f *fakePodman) StopContainer(ctx context.Context, nameOrID string) error  { return nil }
func (f *fakePodman) StartContainer(ctx context.Context, nameOrID string) error { return nil }
func (f *fakePodman) RemoveContainer(ctx context.Context, nameOrID string, force bool) error {
	return nil
}
func (f *fakePodman) CreateContainer(ctx context.Context, createCommand []string) error { return nil }
func (f *fakePodman) InspectImage(ctx context.Context, ref string) (*domain.ImageInfo, error) {
	return nil, nil
}
func (f *fakePodman) InspectManifest(ctx context.Context, ref string) (*domain.Manifest, error) {
	return nil, nil
}
func (f *fakePodman) RemoveImage(ctx context.Context, id string, force bool) error { return nil }

func (f *fakePodman) PullStream(ctx context.Context, ref string) (string, error) {
	f.pulledRefs = append(f.pulledRefs, ref)
	return f.sessionID, f.pullErr
}

func (f *fakePodman) PullStatus(ctx context.Context, sessionID string, offset int) (*domain.PullStatus, error) {
	return f.status, f.statusErr
}

func (f *fakePodman) PullStop(ctx context.Context, sessionID string) error {
	f.stopped = append(f.stopped, sessionID)
	return f.stopErr
}

func (f *fakePodman) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakePodman) Version(ctx context.Context) (string, error) {
	return f.version, nil
}

func newTestServer(updates *fakeOrchestrator, networks *fakeIntegrator, podman *fakePodman) *echo.Echo {
	e := echo.New()
	NewHandler(updates, networks, podman).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	e := newTestServer(&fakeOrchestrator{}, &fakeIntegrator{}, &fakePodman{version: "4.9.3"})

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "4.9.3")
}

func TestHandler_Health_Degraded(t *testing.T) {
	e := newTestServer(&fakeOrchestrator{}, &fakeIntegrator{}, &fakePodman{pingErr: errors.New("socket gone")})

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_Candidates(t *testing.T) {
	updates := &fakeOrchestrator{candidates: []domain.AutoUpdateCandidate{
		{Name: "web", Image: "nginx:latest", Policy: "registry"},
	}}
	e := newTestServer(updates, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodGet, "/api/updates/candidates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"web"`)
}

func TestHandler_CheckUpdates_SelectsNamed(t *testing.T) {
	updates := &fakeOrchestrator{
		candidates: []domain.AutoUpdateCandidate{{Name: "web"}, {Name: "db"}},
		checkResults: []domain.UpdateCheckResult{
			{Name: "db", HasUpdate: true},
		},
	}
	e := newTestServer(updates, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodPost, "/api/updates/check", `{"containers":["db"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, updates.checked, 1)
	assert.Equal(t, "db", updates.checked[0].Name)
}

func TestHandler_CheckUpdates_UnknownContainer(t *testing.T) {
	updates := &fakeOrchestrator{candidates: []domain.AutoUpdateCandidate{{Name: "web"}}}
	e := newTestServer(updates, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodPost, "/api/updates/check", `{"containers":["ghost"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ApplyUpdates_AllCandidatesByDefault(t *testing.T) {
	updates := &fakeOrchestrator{
		candidates: []domain.AutoUpdateCandidate{{Name: "web"}, {Name: "db"}},
		batch: domain.BatchResult{
			Successes: []domain.UpdateResult{{Success: true, Name: "web"}, {Success: true, Name: "db"}},
			Total:     2,
		},
	}
	e := newTestServer(updates, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodPost, "/api/updates/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, updates.updated, 2)
}

func TestHandler_ApplyUpdates_PartialFailureIsMultiStatus(t *testing.T) {
	updates := &fakeOrchestrator{
		candidates: []domain.AutoUpdateCandidate{{Name: "web"}},
		batch: domain.BatchResult{
			Failures: []domain.UpdateResult{{Name: "web", Error: "pull failed"}},
			Total:    1,
		},
	}
	e := newTestServer(updates, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodPost, "/api/updates/apply", "")
	assert.Equal(t, http.StatusMultiStatus, rec.Code)
}

func TestHandler_PullLifecycle(t *testing.T) {
	podman := &fakePodman{
		sessionID: "abc-123",
		status:    &domain.PullStatus{Output: "layer: done\n", Complete: true, Success: true},
	}
	e := newTestServer(&fakeOrchestrator{}, &fakeIntegrator{}, podman)

	rec := doJSON(e, http.MethodPost, "/api/pull", `{"image":"nginx:latest"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.Equal(t, "abc-123", started["sessionId"])
	assert.Equal(t, []string{"nginx:latest"}, podman.pulledRefs)

	rec = doJSON(e, http.MethodGet, "/api/pull/abc-123?offset=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "layer: done")

	rec = doJSON(e, http.MethodDelete, "/api/pull/abc-123", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"abc-123"}, podman.stopped)
}

func TestHandler_Pull_Validation(t *testing.T) {
	e := newTestServer(&fakeOrchestrator{}, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodPost, "/api/pull", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/pull/abc?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Pull_UnknownSession(t *testing.T) {
	e := newTestServer(&fakeOrchestrator{}, &fakeIntegrator{}, &fakePodman{
		statusErr: errors.New("unknown pull session abc"),
		stopErr:   errors.New("unknown pull session abc"),
	})

	rec := doJSON(e, http.MethodGet, "/api/pull/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/pull/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreateIntegration(t *testing.T) {
	networks := &fakeIntegrator{validation: domain.ValidationResult{Valid: true}}
	e := newTestServer(&fakeOrchestrator{}, networks, &fakePodman{})

	body := `{"bridgeName":"podman1","subnet":"10.129.0.0/24","gateway":"10.129.0.1"}`
	rec := doJSON(e, http.MethodPost, "/api/networks/net1/integration", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"net1/podman1"}, networks.created)
}

func TestHandler_CreateIntegration_ValidationFailure(t *testing.T) {
	networks := &fakeIntegrator{validation: domain.ValidationResult{
		Valid:  false,
		Errors: []string{"gateway is required"},
	}}
	e := newTestServer(&fakeOrchestrator{}, networks, &fakePodman{})

	rec := doJSON(e, http.MethodPost, "/api/networks/net1/integration", `{"bridgeName":"podman1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway is required")
	assert.Empty(t, networks.created)
}

func TestHandler_GetIntegration(t *testing.T) {
	networks := &fakeIntegrator{
		has:   true,
		state: domain.IntegrationState{Complete: false, Missing: []string{domain.MissingZoneMembership}},
		integration: &domain.NetworkIntegration{
			NetworkName: "net1",
			BridgeName:  "podman1",
			Gateway:     "10.129.0.1",
		},
	}
	e := newTestServer(&fakeOrchestrator{}, networks, &fakePodman{})

	rec := doJSON(e, http.MethodGet, "/api/networks/net1/integration", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zone_membership")
	assert.Contains(t, rec.Body.String(), "podman1")
}

func TestHandler_GetIntegration_NotFound(t *testing.T) {
	e := newTestServer(&fakeOrchestrator{}, &fakeIntegrator{}, &fakePodman{})

	rec := doJSON(e, http.MethodGet, "/api/networks/ghost/integration", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RemoveIntegration(t *testing.T) {
	networks := &fakeIntegrator{}
	e := newTestServer(&fakeOrchestrator{}, networks, &fakePodman{})

	rec := doJSON(e, http.MethodDelete, "/api/networks/net1/integration?bridge=podman1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"net1/podman1"}, networks.removed)

	rec = doJSON(e, http.MethodDelete, "/api/networks/net1/integration", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
