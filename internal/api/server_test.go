package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/copyedit/internal/catalog"
	"github.com/dgallion1/copyedit/internal/config"
	"github.com/dgallion1/copyedit/internal/editor"
	"github.com/dgallion1/copyedit/internal/metrics"
	"github.com/dgallion1/copyedit/internal/session"
)

const testKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	shared := catalog.NewShared(catalog.Static{Catalog: catalog.Builtin()}, nil)
	_, err := shared.Get(context.Background())
	require.NoError(t, err)

	latency := metrics.NewLatency(time.Hour)
	store := session.NewStore(session.Options{Catalog: shared, Debounce: time.Hour, Recorder: latency})
	t.Cleanup(store.Stop)

	cfg := config.Config{CopyeditAPIKey: testKey, MaxUploadBytes: 1 << 20}
	return NewServer(store, shared, nil, latency, nil, cfg)
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, srv http.Handler, markup string) sessionResponse {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", map[string]string{"markup": markup})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[sessionResponse](t, rec)
}

func content(t *testing.T, srv http.Handler, id string) string {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[map[string]string](t, rec)["content"]
}

func sel(start, end int) map[string]int {
	return map[string]int{"start": start, "end": end}
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody[map[string]any](t, rec)["status"])
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid api key", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCreateSessionReportsTerms(t *testing.T) {
	srv := newTestServer(t)
	resp := createSession(t, srv, `<p>This cures nothing</p>`)

	require.NotEmpty(t, resp.ID)
	require.Equal(t, editor.ModeRendered, resp.State.Mode)
	require.Len(t, resp.State.Report.Terms, 1)
	require.Equal(t, "cures", resp.State.Report.Terms[0].Match)
	require.Contains(t, resp.State.Markup, `<span class="hl-violation">cures</span>`)
	require.Equal(t, `<p>This cures nothing</p>`, resp.State.Content)

	rec := do(t, srv, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]session.Snapshot](t, rec)["sessions"]
	require.Len(t, list, 1)
	require.Equal(t, resp.ID, list[0].ID)
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/sessions/nope/undo", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormatAndUndo(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>hello world</p>`).ID

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/format", map[string]any{
		"command":   "bold",
		"selection": sel(0, 5),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, `<p><strong>hello</strong> world</p>`, content(t, srv, id))

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody[map[string]any](t, rec)["applied"])
	require.Equal(t, `<p>hello world</p>`, content(t, srv, id))

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `<p><strong>hello</strong> world</p>`, content(t, srv, id))

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/format", map[string]any{"command": "underline"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInput(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>hello world</p>`).ID

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/input", map[string]any{
		"type":      "insert_text",
		"text":      "!",
		"selection": sel(5, 5),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[sessionResponse](t, rec)
	require.Equal(t, `<p>hello! world</p>`, resp.State.Content)
	require.True(t, resp.State.Pending)
	require.Equal(t, 6, resp.State.Selection.Start)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/input", map[string]any{"type": "shout"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeBody[ErrorResponse](t, rec)
	require.Len(t, errResp.Fields, 1)
	require.Equal(t, "type", errResp.Fields[0].Field)
	require.Equal(t, "oneof", errResp.Fields[0].Rule)
}

func TestSelectionValidation(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>abc</p>`).ID

	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/selection", map[string]any{
		"selection": map[string]int{"start": 1},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "end", decodeBody[ErrorResponse](t, rec).Fields[0].Field)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+id+"/selection", map[string]any{"selection": sel(1, 2)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/copy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clip := decodeBody[editor.Clipboard](t, rec)
	require.Equal(t, `<p>b</p>`, clip.Markup)
	require.Equal(t, "b", clip.Text)
}

func TestPasteDropsScripts(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, "").ID

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/paste", map[string]string{
		"plain":  "x ok",
		"markup": `<script>x</script><p>ok</p>`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, `<p>ok</p>`, content(t, srv, id))
}

func TestFindReplace(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>foo and foo</p><p>foo</p>`).ID

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/find-replace", map[string]string{"find": "foo", "replace": "bar"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Result editor.FindReplaceResult `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 3, resp.Result.Count)
	require.Equal(t, `<p>bar and bar</p><p>bar</p>`, content(t, srv, id))

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/find-replace", map[string]string{"find": "zzz"})
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, editor.OutcomeNotFound, resp.Result.Outcome)
	require.Zero(t, resp.Result.Count)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/find-replace", map[string]string{"replace": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "find", decodeBody[ErrorResponse](t, rec).Fields[0].Field)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/find-replace", map[string]string{"find": "bar", "mode": "raw"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestModeSwitchBlocksFormatting(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>abc</p>`).ID

	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/mode", map[string]string{"mode": "raw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/format", map[string]any{"command": "bold"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+id+"/mode", map[string]string{"mode": "sideways"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+id+"/mode", map[string]string{"mode": "rendered"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `<p>abc</p>`, content(t, srv, id))
}

func TestNavigate(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>cure one</p><p>cure two</p>`).ID

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]string{"key": "cure"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Location editor.Location `json:"location"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 0, resp.Location.SpanStart)
	require.Equal(t, 2, resp.Location.Total)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]string{"key": "cure"})
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 8, resp.Location.SpanStart)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]string{"key": "detox"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportText(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "../notes.txt")
	require.NoError(t, err)
	fw.Write([]byte("Guaranteed results.\n\nSecond paragraph."))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/import", &body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[sessionResponse](t, rec)
	require.Equal(t, "notes", resp.Title)
	require.Equal(t, `<p>Guaranteed results.</p><p>Second paragraph.</p>`, resp.State.Content)
	require.Len(t, resp.State.Report.Terms, 1)
}

func TestImportRejectsUnsupported(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "tool.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/import", &body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogRefreshAndStats(t *testing.T) {
	srv := newTestServer(t)
	createSession(t, srv, `<p>a miracle</p>`)

	rec := do(t, srv, http.MethodPost, "/api/catalog/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 1, decodeBody[map[string]any](t, rec)["sessions"])

	rec = do(t, srv, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, decodeBody[map[string]any](t, rec)["forms"], "miracle")

	rec = do(t, srv, http.MethodGet, "/api/stats/validation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Stats metrics.Snapshot `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.GreaterOrEqual(t, stats.Stats.Total, int64(2))
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv, `<p>x</p>`).ID

	rec := do(t, srv, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
