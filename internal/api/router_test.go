package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/samples"
	"github.com/joeschweitzer/bayesian/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memNetworkStore struct {
	mu       sync.Mutex
	networks map[uuid.UUID]domain.Network
}

func (m *memNetworkStore) Create(ctx context.Context, n *domain.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.networks {
		if existing.Name == n.Name {
			return store.ErrConflict
		}
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	m.networks[n.ID] = *n
	return nil
}

func (m *memNetworkStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.networks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (m *memNetworkStore) GetByName(ctx context.Context, name string) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.networks {
		if n.Name == name {
			return &n, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memNetworkStore) List(ctx context.Context, limit int) ([]domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Network, 0, len(m.networks))
	for _, n := range m.networks {
		out = append(out, n)
	}
	return out, nil
}

func (m *memNetworkStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.networks[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.networks, id)
	return nil
}

func testOptions() Options {
	return Options{RateLimitRPS: 1000, RateLimitBurst: 1000}
}

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	ping := func(context.Context) error { return nil }
	return newApp(&memNetworkStore{networks: map[uuid.UUID]domain.Network{}}, ping, opts, zap.NewNop())
}

func do(t *testing.T, app *App, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type beliefJSON struct {
	Variable string `json:"variable"`
	Beliefs  []struct {
		State       string  `json:"state"`
		Probability float64 `json:"probability"`
	} `json:"beliefs"`
}

func (b beliefJSON) p(state string) float64 {
	for _, sb := range b.Beliefs {
		if sb.State == state {
			return sb.Probability
		}
	}
	return -1
}

func createDog(t *testing.T, app *App) string {
	t.Helper()
	rec := do(t, app, http.MethodPost, "/v1/networks", map[string]any{
		"name":       samples.DogProblemName,
		"definition": samples.DogProblem(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		ID               string   `json:"id"`
		EliminationOrder []string `json:"elimination_order"`
	}](t, rec)
	assert.Len(t, created.EliminationOrder, 5)
	return created.ID
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, testOptions())

	rec := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "dev", health["version"])

	rec = do(t, app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	metrics := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, metrics["request_count"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	ping := func(context.Context) error { return errors.New("connection refused") }
	app := newApp(&memNetworkStore{networks: map[uuid.UUID]domain.Network{}}, ping, testOptions(), zap.NewNop())

	rec := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", decode[map[string]string](t, rec)["status"])
}

func TestNetworkLifecycle(t *testing.T) {
	app := newTestApp(t, testOptions())
	id := createDog(t, app)

	rec := do(t, app, http.MethodPost, "/v1/networks", map[string]any{
		"name":       samples.DogProblemName,
		"definition": samples.DogProblem(),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/networks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)

	rec = do(t, app, http.MethodGet, "/v1/networks/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/networks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodDelete, "/v1/networks/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, app, http.MethodGet, "/v1/networks/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNetwork_InvalidDefinition(t *testing.T) {
	app := newTestApp(t, testOptions())

	def := samples.DogProblem()
	def.Arcs = append(def.Arcs, domain.ArcDefinition{Parent: "hearBark", Child: "familyOut"})
	rec := do(t, app, http.MethodPost, "/v1/networks", map[string]any{"name": "cyclic", "definition": def})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cycle")

	rec = do(t, app, http.MethodPost, "/v1/networks", map[string]any{"definition": samples.DogProblem()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateNetwork_UnknownFields(t *testing.T) {
	app := newTestApp(t, testOptions())

	tests := []struct {
		name, contentType, body string
	}{
		{
			name:        "json",
			contentType: "application/json",
			body: `{"name": "rain", "definition": {
				"variables": [{"name": "rain", "states": ["rain", "dry"]}],
				"tables": [{"variable": "rain", "givne": {}, "distribution": [0.2, 0.8]}]}}`,
		},
		{
			name:        "yaml",
			contentType: "application/yaml",
			body: `
name: rain
definition:
  variables:
    - {name: rain, states: [rain, dry]}
  tables:
    - {variable: rain, givne: {}, distribution: [0.2, 0.8]}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/networks", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "givne")
		})
	}
}

func TestCreateNetwork_TableTooLarge(t *testing.T) {
	app := newTestApp(t, testOptions())

	def := domain.NetworkDefinition{
		Variables: []domain.VariableDefinition{{Name: "child", States: []string{"yes", "no"}}},
	}
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("p%d", i)
		def.Variables = append(def.Variables, domain.VariableDefinition{Name: name, States: []string{"on", "off"}})
		def.Arcs = append(def.Arcs, domain.ArcDefinition{Parent: name, Child: "child"})
	}

	rec := do(t, app, http.MethodPost, "/v1/networks", map[string]any{"name": "wide", "definition": def})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestQuery(t *testing.T) {
	app := newTestApp(t, testOptions())
	id := createDog(t, app)

	rec := do(t, app, http.MethodPost, "/v1/networks/"+id+"/query", map[string]any{
		"variables": []string{"lightOn"},
		"evidence":  samples.DogProblemEvidence(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[struct {
		EvidenceProbability float64      `json:"evidence_probability"`
		Beliefs             []beliefJSON `json:"beliefs"`
	}](t, rec)
	require.Len(t, result.Beliefs, 1)
	assert.InDelta(t, 0.23651916875671805, result.Beliefs[0].p("lightOn"), 1e-9)
	assert.InDelta(t, 0.276309, result.EvidenceProbability, 1e-9)

	rec = do(t, app, http.MethodPost, "/v1/networks/"+id+"/query", map[string]any{
		"evidence": map[string]string{"catOut": "yes"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	app := newTestApp(t, testOptions())
	id := createDog(t, app)

	rec := do(t, app, http.MethodPost, "/v1/networks/"+id+"/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[domain.Session](t, rec)
	base := "/v1/sessions/" + sess.ID.String()

	rec = do(t, app, http.MethodGet, base+"/beliefs/lightOn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, .1325, decode[beliefJSON](t, rec).p("lightOn"), 1e-12)

	rec = do(t, app, http.MethodPut, base+"/evidence/hearBark", map[string]string{"state": "hearBark"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, app, http.MethodPut, base+"/evidence/bowelProblem", map[string]string{"state": "noBowelProblem"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, samples.DogProblemEvidence(), decode[domain.Session](t, rec).Evidence)

	rec = do(t, app, http.MethodGet, base+"/beliefs/lightOn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.23651916875671805, decode[beliefJSON](t, rec).p("lightOn"), 1e-9)

	rec = do(t, app, http.MethodGet, base+"/beliefs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[struct {
		Beliefs []beliefJSON `json:"beliefs"`
	}](t, rec)
	assert.Len(t, all.Beliefs, 5)

	rec = do(t, app, http.MethodPut, base+"/evidence/hearBark", map[string]string{"state": "howl"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, app, http.MethodPut, base+"/evidence/hearBark", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodDelete, base+"/evidence/hearBark", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"bowelProblem": "noBowelProblem"}, decode[domain.Session](t, rec).Evidence)

	rec = do(t, app, http.MethodDelete, base+"/evidence", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.Session](t, rec).Evidence)

	rec = do(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, app, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_ZeroProbabilityEvidence(t *testing.T) {
	app := newTestApp(t, testOptions())

	rec := do(t, app, http.MethodPost, "/v1/networks", map[string]any{
		"name": "certain",
		"definition": domain.NetworkDefinition{
			Variables: []domain.VariableDefinition{
				{Name: "a", States: []string{"t", "f"}},
				{Name: "b", States: []string{"t", "f"}},
			},
			Arcs: []domain.ArcDefinition{{Parent: "a", Child: "b"}},
			Tables: []domain.TableDefinition{
				{Variable: "a", Distribution: []float64{1, 0}},
				{Variable: "b", Given: map[string]string{"a": "t"}, Distribution: []float64{1, 0}},
				{Variable: "b", Given: map[string]string{"a": "f"}, Distribution: []float64{.5, .5}},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	networkID := decode[domain.Network](t, rec).ID.String()

	rec = do(t, app, http.MethodPost, "/v1/networks/"+networkID+"/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/v1/sessions/" + decode[domain.Session](t, rec).ID.String()

	rec = do(t, app, http.MethodPut, base+"/evidence/b", map[string]string{"state": "f"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app, http.MethodGet, base+"/beliefs/a", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteNetworkClosesSessions(t *testing.T) {
	app := newTestApp(t, testOptions())
	id := createDog(t, app)

	do(t, app, http.MethodPost, "/v1/networks/"+id+"/sessions", nil)
	require.Equal(t, 1, app.Sessions.Count())

	rec := do(t, app, http.MethodDelete, "/v1/networks/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, app.Sessions.Count())
}

func TestAPIKeyRequired(t *testing.T) {
	opts := testOptions()
	opts.APIKey = "secret"
	app := newTestApp(t, opts)

	rec := do(t, app, http.MethodGet, "/v1/networks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/networks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateNetwork_YAML(t *testing.T) {
	app := newTestApp(t, testOptions())

	body := `
name: rain
definition:
  variables:
    - {name: rain, states: [rain, dry]}
    - {name: grassWet, states: [wet, dry]}
  arcs:
    - {parent: rain, child: grassWet}
  tables:
    - {variable: rain, distribution: [0.2, 0.8]}
    - {variable: grassWet, given: {rain: rain}, distribution: [0.9, 0.1]}
    - {variable: grassWet, given: {rain: dry}, distribution: [0.1, 0.9]}
`
	req := httptest.NewRequest(http.MethodPost, "/v1/networks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[domain.Network](t, rec).ID.String()

	rec = do(t, app, http.MethodPost, "/v1/networks/"+id+"/query", map[string]any{
		"variables": []string{"rain"},
		"evidence":  map[string]string{"grassWet": "wet"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[struct {
		Beliefs []beliefJSON `json:"beliefs"`
	}](t, rec)
	// .2*.9 / (.2*.9 + .8*.1)
	assert.InDelta(t, 0.18/0.26, result.Beliefs[0].p("rain"), 1e-9)
}

func TestPrometheusMetrics(t *testing.T) {
	app := newTestApp(t, testOptions())
	id := createDog(t, app)

	rec := do(t, app, http.MethodPost, "/v1/networks/"+id+"/query", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app, http.MethodGet, "/metrics/prometheus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bayes_inference_duration_seconds_count{op="query"}`)
	assert.Contains(t, rec.Body.String(), "bayes_networks_compiled_total")
}

func TestApp_SQLiteStore(t *testing.T) {
	s, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	app := newApp(s, s.Ping, testOptions(), zap.NewNop())
	id := createDog(t, app)

	rec := do(t, app, http.MethodGet, "/v1/networks/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, samples.DogProblem(), decode[domain.Network](t, rec).Definition)

	rec = do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
