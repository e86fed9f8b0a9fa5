package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/page-audit/internal/audit"
	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/scrape"
	"github.com/sells-group/page-audit/internal/store"
)

const page = `<html><head><title>Acme Plumbing</title></head><body>
<a href="tel:+15551234567">Call</a>
<footer>Acme Plumbing, (555) 123-4567</footer>
</body></html>`

type fakeLoader struct {
	html string
	err  error
}

func (f *fakeLoader) Scrape(_ context.Context, url string) (*scrape.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &scrape.Result{URL: url, HTML: f.html, StatusCode: http.StatusOK, FetchedAt: time.Now().UTC()}, nil
}

type failingAuditor struct{ err error }

func (f failingAuditor) Run(context.Context, model.AuditTarget) (*audit.Outcome, error) {
	return nil, f.err
}

func newTestServer(t *testing.T, loader audit.Loader) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := New(audit.New(loader, st, audit.Options{}), st, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func postAudit(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/audits", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateAudit_URL(t *testing.T) {
	ts, st := newTestServer(t, &fakeLoader{html: page})

	resp := postAudit(t, ts, `{"url":"https://acme.com","inputs":{"expected_phone":"555-123-4567","business_name":"Acme Plumbing"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out auditResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.RunID)
	require.NotNil(t, out.Report)
	assert.Equal(t, "https://acme.com", out.Report.URL)
	assert.Equal(t, "Acme Plumbing", out.Report.Title)
	require.Len(t, out.Report.Phones, 1)
	assert.Equal(t, "5551234567", out.Report.Phones[0].Digits)
	assert.Equal(t, model.True, out.Report.Reconciliation.FoundExpected)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
}

func TestCreateAudit_InlineHTML(t *testing.T) {
	loader := &fakeLoader{err: errors.New("must not be called")}
	ts, _ := newTestServer(t, loader)

	body, err := json.Marshal(auditRequest{HTML: page})
	require.NoError(t, err)
	resp := postAudit(t, ts, string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out auditResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, model.Unknown, out.Report.Reconciliation.FoundExpected)
}

func TestCreateAudit_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"url":`, "invalid request body"},
		{"no source", `{"inputs":{"business_name":"Acme"}}`, "url or html is required"},
		{"blank url", `{"url":"   "}`, "url or html is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postAudit(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decodeError(t, resp))
		})
	}
}

func TestCreateAudit_RejectsNonWebURLs(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("DB_PASSWORD=hunter2"), 0o600))

	loader := &fakeLoader{err: errors.New("must not be called")}
	ts, st := newTestServer(t, loader)

	for _, u := range []string{secret, "/nonexistent/x", "file://" + secret, "ftp://acme.com/page", "acme.com"} {
		t.Run(u, func(t *testing.T) {
			body, err := json.Marshal(auditRequest{URL: u})
			require.NoError(t, err)
			resp := postAudit(t, ts, string(body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			msg := decodeError(t, resp)
			assert.Equal(t, "url must be an absolute http or https URL", msg)
			assert.NotContains(t, msg, "hunter2")
		})
	}

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs, "rejected requests never reach the auditor")
}

func TestCreateAudit_LoadFailureIsBadGateway(t *testing.T) {
	ts, st := newTestServer(t, &fakeLoader{err: errors.New("connection refused")})

	resp := postAudit(t, ts, `{"url":"https://down.example"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "failed to load page", decodeError(t, resp), "loader errors stay in the logs")

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCreateAudit_InternalError(t *testing.T) {
	srv := New(failingAuditor{err: errors.New("disk full")}, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postAudit(t, ts, `{"url":"https://acme.com"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "audit failed", decodeError(t, resp))
}

func TestListAudits(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{html: page})

	for _, u := range []string{"https://a.example", "https://b.example", "https://a.example"} {
		resp := postAudit(t, ts, `{"url":"`+u+`"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/audits?url=https://a.example")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Runs, 2)
	assert.Equal(t, store.DefaultListLimit, out.Limit)
	for _, r := range out.Runs {
		assert.Equal(t, "https://a.example", r.Target.URL)
	}

	resp2, err := http.Get(ts.URL + "/audits?limit=1&offset=1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var page2 listResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&page2))
	assert.Len(t, page2.Runs, 1)
	assert.Equal(t, 1, page2.Offset)
}

func TestListAudits_Empty(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{})

	resp, err := http.Get(ts.URL + "/audits")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw["runs"]))
}

func TestListAudits_InvalidPaging(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{})

	for _, q := range []string{"limit=abc", "limit=-1", "offset=x"} {
		resp, err := http.Get(ts.URL + "/audits?" + q)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		resp.Body.Close()
	}
}

func TestGetAudit(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{html: page})

	created := postAudit(t, ts, `{"url":"https://acme.com"}`)
	var out auditResponse
	require.NoError(t, json.NewDecoder(created.Body).Decode(&out))

	resp, err := http.Get(ts.URL + "/audits/" + out.RunID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run model.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, out.RunID, run.ID)
	require.NotNil(t, run.Report)
	assert.Len(t, run.Report.Phones, 1)
}

func TestGetAudit_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, &fakeLoader{})

	resp, err := http.Get(ts.URL + "/audits/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "run not found", decodeError(t, resp))
}

func TestCORS(t *testing.T) {
	srv := New(failingAuditor{}, nil, []string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/audits", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
