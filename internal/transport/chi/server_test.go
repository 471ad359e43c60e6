package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/videoseek/internal/domain"
	healthuc "github.com/kailas-cloud/videoseek/internal/usecase/health"
	playbackuc "github.com/kailas-cloud/videoseek/internal/usecase/playback"
	searchuc "github.com/kailas-cloud/videoseek/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/videoseek/internal/usecase/session"
)

type fakeIndexer struct {
	matches []domain.Match
	err     error
	got     domain.Query
}

func (f *fakeIndexer) QueryByText(_ context.Context, q domain.Query) ([]domain.Match, error) {
	f.got = q
	return f.matches, f.err
}

type fakeResolver struct {
	url string
	err error
}

func (f *fakeResolver) ResolveURL(_ context.Context, _ string) (string, error) {
	return f.url, f.err
}

type fakeSigner struct {
	token string
	err   error
}

func (f *fakeSigner) SignContainer(_ time.Duration) (string, error) {
	return f.token, f.err
}

type fakeChecker struct{ err error }

func (f *fakeChecker) HealthCheck(_ context.Context) error { return f.err }

type testEnv struct {
	indexer  *fakeIndexer
	resolver *fakeResolver
	signer   *fakeSigner
	session  *sessionuc.Service
	router   chirouter.Router
}

func newTestEnv() *testEnv {
	env := &testEnv{
		indexer:  &fakeIndexer{},
		resolver: &fakeResolver{url: "https://store.example/videos/doc1"},
		signer:   &fakeSigner{token: "sv=2020-12-06&sig=abc"},
		session:  sessionuc.New(domain.ModeVision),
	}

	srv := NewServer(
		searchuc.New(env.indexer),
		playbackuc.New(env.resolver, env.signer, time.Hour),
		env.session,
		healthuc.New(nil, &fakeChecker{}),
		zap.NewNop(),
	)

	env.router = chirouter.NewRouter()
	srv.Routes(env.router)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func sampleMatches() []domain.Match {
	return []domain.Match{
		{DocumentID: "doc1", DocumentKind: "video", Relevance: 0.91, Start: "00:00:01", End: "00:00:20", Best: "00:00:05"},
		{DocumentID: "doc2", DocumentKind: "video", Relevance: 0.85, Start: "00:01:00", End: "00:01:30", Best: "00:01:11"},
		{DocumentID: "doc3", DocumentKind: "video", Relevance: 0.60, Start: "00:02:00", End: "00:02:10", Best: "00:02:03"},
		{DocumentID: "doc4", DocumentKind: "video", Relevance: 0.44, Start: "00:03:00", End: "00:03:40", Best: "00:03:21"},
		{DocumentID: "doc5", DocumentKind: "video", Relevance: 0.12, Start: "00:04:00", End: "00:04:05", Best: "00:04:02"},
	}
}

func TestHandleSearch_Success(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()

	rr := env.do(t, "POST", "/search", `{"query":"red car","mode":"vision"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 5 || len(resp.Results) != 5 {
		t.Errorf("total = %d, results = %d, want 5", resp.Total, len(resp.Results))
	}
	if env.indexer.got.Text != "red car" || env.indexer.got.Mode != domain.ModeVision {
		t.Errorf("forwarded query = %+v", env.indexer.got)
	}
	if got := env.session.Results(); len(got) != 5 {
		t.Errorf("session results = %d, want 5", len(got))
	}
}

func TestHandleSearch_UnknownMode_400(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, "POST", "/search", `{"query":"x","mode":"audio"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestHandleSearch_InvalidBody_400(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, "POST", "/search", `{not json`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_IndexerFailure_502_ClearsResults(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)

	env.indexer.matches = nil
	env.indexer.err = domain.ErrIndexerUnavailable
	rr := env.do(t, "POST", "/search", `{"query":"b","mode":"vision"}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeIndexUnavailable {
		t.Errorf("code = %s, want %s", errResp.Code, CodeIndexUnavailable)
	}
	if got := env.session.Results(); len(got) != 0 {
		t.Errorf("session results after failure = %d, want 0", len(got))
	}
}

func TestHandleSearch_EmptyResults_200(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = []domain.Match{}

	rr := env.do(t, "POST", "/search", `{"query":"nothing here","mode":"speech"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("total = %d, want 0", resp.Total)
	}
	if resp.Results == nil {
		t.Error("results must be an empty list, not null")
	}
}

func TestHandleSelect_Success(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)

	rr := env.do(t, "POST", "/select", `{"documentId":"doc2"}`)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	sel, ok := env.session.Selected()
	if !ok || sel.DocumentID != "doc2" {
		t.Errorf("selected = %+v, ok = %v", sel, ok)
	}
}

func TestHandleSelect_NotInResults_404(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)

	rr := env.do(t, "POST", "/select", `{"documentId":"ghost"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeNotInResults {
		t.Errorf("code = %s, want %s", errResp.Code, CodeNotInResults)
	}
}

func TestHandleSelect_MissingID_400(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, "POST", "/select", `{}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestModeSwitch_ClearsResultsAndSelection(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)
	env.do(t, "POST", "/select", `{"documentId":"doc3"}`)

	rr := env.do(t, "POST", "/mode", `{"mode":"speech"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("mode switch status = %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = env.do(t, "GET", "/results", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("results status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp resultsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Mode != domain.ModeSpeech {
		t.Errorf("mode = %q, want %q", resp.Mode, domain.ModeSpeech)
	}
	if resp.Total != 0 || len(resp.Results) != 0 {
		t.Errorf("results after mode switch = %d, want 0", len(resp.Results))
	}
	if resp.Selected != nil {
		t.Errorf("selection after mode switch = %+v, want nil", resp.Selected)
	}
}

func TestHandleMode_SameMode_KeepsState(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)
	env.do(t, "POST", "/select", `{"documentId":"doc1"}`)

	env.do(t, "POST", "/mode", `{"mode":"vision"}`)

	if got := env.session.Results(); len(got) != 5 {
		t.Errorf("results after same-mode set = %d, want 5", len(got))
	}
	if _, ok := env.session.Selected(); !ok {
		t.Error("selection must survive a same-mode set")
	}
}

func TestHandleMode_Unknown_400(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, "POST", "/mode", `{"mode":"thermal"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleResults_IncludesSelection(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)
	env.do(t, "POST", "/select", `{"documentId":"doc4"}`)

	rr := env.do(t, "GET", "/results", "")

	var resp resultsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Selected == nil || resp.Selected.DocumentID != "doc4" {
		t.Errorf("selected = %+v, want doc4", resp.Selected)
	}
}

func TestHandlePlayback_Success(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)
	env.do(t, "POST", "/select", `{"documentId":"doc1"}`)

	rr := env.do(t, "POST", "/playback", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp playbackResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantURL := "https://store.example/videos/doc1?start=00:00:05&sv=2020-12-06&sig=abc"
	if resp.URL != wantURL {
		t.Errorf("url = %q, want %q", resp.URL, wantURL)
	}
	if resp.StartSeconds != 5 {
		t.Errorf("startSeconds = %v, want 5", resp.StartSeconds)
	}
	if resp.DocumentID != "doc1" {
		t.Errorf("documentId = %q, want doc1", resp.DocumentID)
	}
}

func TestHandlePlayback_NoSelection_409(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, "POST", "/playback", "")

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeNoSelection {
		t.Errorf("code = %s, want %s", errResp.Code, CodeNoSelection)
	}
}

func TestHandlePlayback_DocumentGone_404(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)
	env.do(t, "POST", "/select", `{"documentId":"doc1"}`)
	env.resolver.err = domain.ErrDocumentNotFound

	rr := env.do(t, "POST", "/playback", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHandlePlayback_SigningFailure_500(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()
	env.do(t, "POST", "/search", `{"query":"a","mode":"vision"}`)
	env.do(t, "POST", "/select", `{"documentId":"doc1"}`)
	env.signer.err = domain.ErrSigning

	rr := env.do(t, "POST", "/playback", "")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeSigningFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeSigningFailed)
	}
}

func TestHealthCheck_OK(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, "GET", "/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestHealthCheck_Degraded_503(t *testing.T) {
	srv := NewServer(
		searchuc.New(&fakeIndexer{}),
		playbackuc.New(&fakeResolver{}, &fakeSigner{}, time.Hour),
		sessionuc.New(domain.ModeVision),
		healthuc.New(nil, &fakeChecker{err: errors.New("unreachable")}),
		zap.NewNop(),
	)
	r := chirouter.NewRouter()
	srv.Routes(r)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

// Full session lifecycle: search in vision, select, switch to speech,
// state is gone and playback refuses.
func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv()
	env.indexer.matches = sampleMatches()

	if rr := env.do(t, "POST", "/search", `{"query":"sunset","mode":"vision"}`); rr.Code != http.StatusOK {
		t.Fatalf("search: %d", rr.Code)
	}
	if rr := env.do(t, "POST", "/select", `{"documentId":"doc5"}`); rr.Code != http.StatusNoContent {
		t.Fatalf("select: %d", rr.Code)
	}
	if rr := env.do(t, "POST", "/mode", `{"mode":"speech"}`); rr.Code != http.StatusNoContent {
		t.Fatalf("mode: %d", rr.Code)
	}

	rr := env.do(t, "POST", "/playback", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("playback after mode switch = %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = env.do(t, "GET", "/results", "")
	var resp resultsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 0 || resp.Selected != nil {
		t.Errorf("state after mode switch: results=%d selected=%+v", len(resp.Results), resp.Selected)
	}
}
