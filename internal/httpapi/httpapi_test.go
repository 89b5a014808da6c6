package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/pipeline"
	"jobwatch-engine/internal/secrets"
	"jobwatch-engine/internal/watch"
)

type fakeRunner struct {
	last    *pipeline.ScrapeResult
	running atomic.Bool
	runs    atomic.Int32
}

func (f *fakeRunner) RunOnce(context.Context) (*pipeline.ScrapeResult, error) {
	f.runs.Add(1)
	return f.last, nil
}
func (f *fakeRunner) Status() watch.Status          { return watch.Status{State: "done", LastNew: 1} }
func (f *fakeRunner) Last() *pipeline.ScrapeResult { return f.last }
func (f *fakeRunner) Running() bool                { return f.running.Load() }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sampleResult() *pipeline.ScrapeResult {
	remote := domain.JobRecord{
		Company:        "Acme Corp",
		Role:           "Backend Engineer",
		Location:       "Remote",
		ApplicationRef: `<a href="https://acme.example/apply?utm_source=x">Apply</a>`,
		AgeToken:       "1d",
		AgeInDays:      1,
	}
	onsite := domain.JobRecord{
		Company: "Globex", Role: "SRE", Location: "NYC",
		ApplicationRef: "https://globex.example", AgeToken: "0d",
	}
	return &pipeline.ScrapeResult{
		RunID:      "run-1",
		All:        []domain.JobRecord{remote, onsite},
		Filtered:   []domain.JobRecord{remote},
		New:        []domain.JobRecord{remote},
		FinishedAt: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func newDeps(t *testing.T, r Runner) Deps {
	t.Helper()
	cfg := config.Default()
	cfg.Notify.Email.Password = "hunter2"
	cfg.Notify.Email.SMTPHost = "smtp.example.com"
	cfg.Notify.Email.Username = "me@example.com"
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	path := filepath.Join(t.TempDir(), "config.yml")
	return Deps{
		Runner:      r,
		Hub:         events.NewHub(),
		Logger:      quiet(),
		CfgVal:      &cfgVal,
		UserCfgPath: path,
		LoadCfg:     func() (config.Config, error) { return config.Load(path) },
	}
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))
	return rec
}

func TestHealth(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{}))
	rec := do(t, mux, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"running":false,"subscribers":0}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{}))
	rec := do(t, mux, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "method_not_allowed")
}

func TestJobs_Sets(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{last: sampleResult()}))

	cases := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?set=new", 1},
		{"?set=filtered", 1},
		{"?set=ALL", 2},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := do(t, mux, http.MethodGet, "/jobs"+tc.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			var resp JobsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "run-1", resp.RunID)
			assert.Equal(t, tc.want, resp.Count)
			assert.Len(t, resp.Jobs, tc.want)
		})
	}
}

func TestJobs_View(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{last: sampleResult()}))
	rec := do(t, mux, http.MethodGet, "/jobs?set=new", "")

	var resp JobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "https://acme.example/apply", resp.Jobs[0].ApplyURL)
	assert.Equal(t, "acme corp|backend engineer|remote", resp.Jobs[0].Identity)
	assert.Equal(t, "1d", resp.Jobs[0].AgeToken)
	assert.Equal(t, "2026-01-02T09:00:00Z", resp.FinishedAt)
}

func TestJobs_BeforeFirstRun(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{}))
	rec := do(t, mux, http.MethodGet, "/jobs?set=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"jobs":[]`)
}

func TestJobs_BadSet(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{}))
	rec := do(t, mux, http.MethodGet, "/jobs?set=old", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeInvalidSet)
}

func TestScrapeRun(t *testing.T) {
	r := &fakeRunner{}
	mux := NewMux(newDeps(t, r))

	rec := do(t, mux, http.MethodPost, "/scrape/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return r.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	r.running.Store(true)
	rec = do(t, mux, http.MethodPost, "/scrape/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already running")
}

func TestScrapeStatus(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{}))
	rec := do(t, mux, http.MethodGet, "/scrape/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st watch.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "done", st.State)
	assert.Equal(t, 1, st.LastNew)
}

func TestConfigGetRedactsSecrets(t *testing.T) {
	mux := NewMux(newDeps(t, &fakeRunner{}))
	rec := do(t, mux, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.Contains(t, rec.Body.String(), redacted)
}

func TestConfigPut(t *testing.T) {
	d := newDeps(t, &fakeRunner{})
	mux := NewMux(d)

	cfg := redact(d.CfgVal.Load().(config.Config))
	cfg.Filters.MaxAgeDays = 5
	b, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := do(t, mux, http.MethodPut, "/config", string(b))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := config.Load(d.UserCfgPath)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Filters.MaxAgeDays)
	assert.Equal(t, "hunter2", saved.Notify.Email.Password, "masked secret keeps the stored value")
}

func TestConfigPutRejectsInvalid(t *testing.T) {
	d := newDeps(t, &fakeRunner{})
	mux := NewMux(d)

	cfg := d.CfgVal.Load().(config.Config)
	cfg.Schedule.Cron = "every tuesday"
	b, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := do(t, mux, http.MethodPut, "/config", string(b))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "schedule.cron")
	assert.NoFileExists(t, d.UserCfgPath)
}

func TestSecretsSetSMTPPassword(t *testing.T) {
	keyring.MockInit()
	d := newDeps(t, &fakeRunner{})
	mux := NewMux(d)

	rec := do(t, mux, http.MethodPost, "/api/secrets/smtp", `{"password":"s3cret"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	em := d.CfgVal.Load().(config.Config).Notify.Email
	em.Password = ""
	pw, err := secrets.GetSMTPPassword(em)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	rec = do(t, mux, http.MethodDelete, "/api/secrets/smtp", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_RequestIDAndLocalOnly(t *testing.T) {
	srv := httptest.NewServer(Handler(newDeps(t, &fakeRunner{})))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	Handler(newDeps(t, &fakeRunner{})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), RequestID, Recover(quiet()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var e APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "internal_error", e.Error.Code)
	assert.NotEmpty(t, e.Error.RequestID)
}

func TestEventsStream(t *testing.T) {
	d := newDeps(t, &fakeRunner{})
	srv := httptest.NewServer(NewMux(d))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return d.Hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	d.Hub.Publish(events.MakeEvent("run-9", events.TypeRunFinished, 1, nil))

	buf := make([]byte, 0, 1024)
	chunk := make([]byte, 256)
	for !strings.Contains(string(buf), "run-9") {
		n, err := res.Body.Read(chunk)
		require.NoError(t, err)
		buf = append(buf, chunk[:n]...)
	}
	assert.Contains(t, string(buf), `"type":"ping"`)
}
