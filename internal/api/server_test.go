package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/pollsight/internal/cache"
	"github.com/rewired-gh/pollsight/internal/metrics"
	"github.com/rewired-gh/pollsight/internal/models"
	"github.com/rewired-gh/pollsight/internal/service"
	"github.com/rewired-gh/pollsight/internal/storage"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store, err := storage.New(storage.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New()
	c := cache.New(filepath.Join(t.TempDir(), "responses.json"))
	svc := service.New(store, c, nil, m, service.Options{})
	return NewServer(svc, m, Options{CORSOrigins: []string{"https://polls.example.com"}}).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createBooleanPoll(t *testing.T, h http.Handler) models.Poll {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/polls", map[string]interface{}{
		"creator_id": "creator",
		"question":   "Is remote work here to stay?",
		"type":       "boolean",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Poll](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateAndGetPoll(t *testing.T) {
	h := newTestServer(t)
	p := createBooleanPoll(t, h)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsActive)

	rec := do(t, h, http.MethodGet, "/polls/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Poll](t, rec)
	assert.Equal(t, p.Question, got.Question)

	rec = do(t, h, http.MethodGet, "/polls/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePoll_BadRequests(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/polls", `{"question": "x", "type": "ranking"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/polls", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/polls", `{"question": "x", "type": "boolean", "bogus": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponseAndInsights(t *testing.T) {
	h := newTestServer(t)
	p := createBooleanPoll(t, h)

	for i := 0; i < 12; i++ {
		rec := do(t, h, http.MethodPost, "/polls/"+p.ID+"/responses", submitRequest{
			UserID: fmt.Sprintf("user-%d", i),
			Value:  models.BoolValue(i < 8),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "user-", "user IDs must not leak")
	}

	rec := do(t, h, http.MethodPost, "/polls/"+p.ID+"/responses", `{"user_id": "user-0", "value": false}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/polls/"+p.ID+"/responses", `{"user_id": "late", "value": "perhaps"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/polls/"+p.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sb := decode[statsBody](t, rec)
	assert.Equal(t, 12, sb.Stats.Count)
	assert.Equal(t, []int{8, 4}, sb.Stats.Distribution.Values)
	assert.Equal(t, 12, sb.Poll.ResponseCount)

	rec = do(t, h, http.MethodGet, "/polls/"+p.ID+"/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ib := decode[insightsBody](t, rec)
	require.Len(t, ib.Insights, 2)
	assert.Equal(t, `67% of all respondents said "Yes".`, ib.Insights[0].Text)

	rec = do(t, h, http.MethodGet, "/polls/"+p.ID+"/insights/personal?user_id=user-11", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ib = decode[insightsBody](t, rec)
	require.NotEmpty(t, ib.Insights)
	assert.Equal(t, `You answered "No". So did 33% of respondents.`, ib.Insights[0].Text)

	rec = do(t, h, http.MethodGet, "/polls/"+p.ID+"/insights/personal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponse_UnknownPoll(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/polls/missing/responses", `{"user_id": "u", "value": true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPolls(t *testing.T) {
	h := newTestServer(t)
	a := createBooleanPoll(t, h)
	b := createBooleanPoll(t, h)

	rec := do(t, h, http.MethodPost, "/polls/"+b.ID+"/responses", `{"user_id": "erin", "value": true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/polls?sort=trending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Polls []models.Poll `json:"polls"`
	}](t, rec)
	require.Len(t, body.Polls, 2)
	assert.Equal(t, b.ID, body.Polls[0].ID)

	rec = do(t, h, http.MethodGet, "/polls?unanswered_by=erin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[struct {
		Polls []models.Poll `json:"polls"`
	}](t, rec)
	require.Len(t, body.Polls, 1)
	assert.Equal(t, a.ID, body.Polls[0].ID)

	rec = do(t, h, http.MethodGet, "/polls?sort=oldest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/polls?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpvote(t *testing.T) {
	h := newTestServer(t)
	p := createBooleanPoll(t, h)

	rec := do(t, h, http.MethodPost, "/polls/"+p.ID+"/upvote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.Poll](t, rec).Upvotes)

	rec = do(t, h, http.MethodPost, "/polls/missing/upvote", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDemographicsAndFilteredStats(t *testing.T) {
	h := newTestServer(t)
	p := createBooleanPoll(t, h)

	rec := do(t, h, http.MethodGet, "/users/frank/demographics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/users/frank/demographics", `{"age_range": "25-34", "gender": "male", "region": "Europe"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/users/grace/demographics", `{"gender": "robot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/users/frank/demographics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Europe", decode[models.Demographics](t, rec).Region)

	rec = do(t, h, http.MethodPost, "/polls/"+p.ID+"/responses", `{"user_id": "frank", "value": true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/polls/"+p.ID+"/responses", `{"user_id": "heidi", "value": false}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/polls/"+p.ID+"/stats?gender=male", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sb := decode[statsBody](t, rec)
	assert.Equal(t, 1, sb.Stats.Count)
	assert.Equal(t, []int{1, 0}, sb.Stats.Distribution.Values)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/polls/missing", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(),
		`pollsight_http_requests_total{route="/polls/{id}",status="404"} 1`), rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://polls.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://polls.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodDelete, "/polls", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
