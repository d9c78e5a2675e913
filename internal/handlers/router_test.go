package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DF-PROPOSAL/internal"
	"DF-PROPOSAL/internal/config"
	"DF-PROPOSAL/internal/render"
	"DF-PROPOSAL/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const apiKey = "test-key"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := internal.Open(sqlite.Open(fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name)), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, internal.AutoMigrate(db))

	agency := services.NewStaticAgency(config.AgencyConfig{Name: "Acme Studio"})
	access := services.NewAccessService(db, agency, "https://proposals.example.com", nil)
	return NewRouter(Deps{
		Templates: services.NewTemplateService(db),
		Documents: services.NewDocumentService(db),
		Clients:   services.NewClientService(db),
		Access:    access,
		Responses: services.NewResponseService(db, access, nil, nil),
		Exports:   services.NewExportService(render.NewFPDFRenderer(), t.TempDir()),
		APIKeys:   map[string]string{apiKey: "owner-1"},
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// sendDraft creates a document with one section, sends it and returns its id and token.
func sendDraft(t *testing.T, r http.Handler, validUntil string) (string, string) {
	t.Helper()
	create := map[string]any{"title": "Website Redesign"}
	if validUntil != "" {
		create["validUntil"] = validUntil
	}
	w := do(t, r, http.MethodPost, "/api/v1/documents", create, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/v1/documents/"+id+"/sections", map[string]any{
		"sectionType": "introduction",
		"content":     "<p>Thanks for the call.</p>",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/v1/documents/"+id+"/send", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sent := decode(t, w)
	return id, sent["token"].(string)
}

func TestHealthAndAuth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/documents", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/placeholders", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["placeholders"])
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/documents", "{not json", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/documents", map[string]any{}, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Contains(t, body["details"], "title")

	w = do(t, r, http.MethodPost, "/api/v1/documents", map[string]any{"title": "X", "validUntil": "next week"}, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["details"], "validUntil")

	w = do(t, r, http.MethodGet, "/api/v1/documents/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/public/proposal/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendViewAndAccept(t *testing.T) {
	r := newTestRouter(t)
	id, token := sendDraft(t, r, "")

	w := do(t, r, http.MethodGet, "/public/proposal/"+token, nil, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	view := decode(t, w)
	assert.Equal(t, "actionable", view["display"])
	assert.Equal(t, "PRO-0001", view["number"])
	assert.NotContains(t, view, "id")

	w = do(t, r, http.MethodPost, "/api/v1/documents/"+id+"/sections", map[string]any{"sectionType": "timeline"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "immutable_document", decode(t, w)["error"])

	accept := map[string]any{
		"signerName":    "Jane Client",
		"signerEmail":   "jane@client.test",
		"signatureType": "typed",
	}
	w = do(t, r, http.MethodPost, "/public/proposal/"+token+"/accept", accept, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "accepted", decode(t, w)["display"])

	w = do(t, r, http.MethodPost, "/public/proposal/"+token+"/accept", accept, false)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_responded", decode(t, w)["error"])

	w = do(t, r, http.MethodPost, "/public/proposal/"+token+"/reject", nil, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/public/proposal/"+token+"/comment", map[string]any{"content": "Looking forward to it"}, false)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestExpiredDocumentRefusesAcceptance(t *testing.T) {
	r := newTestRouter(t)
	_, token := sendDraft(t, r, "2020-01-01")

	w := do(t, r, http.MethodGet, "/public/proposal/"+token, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "expired", decode(t, w)["display"])

	w = do(t, r, http.MethodPost, "/public/proposal/"+token+"/accept", map[string]any{
		"signerName":    "Jane Client",
		"signerEmail":   "jane@client.test",
		"signatureType": "typed",
	}, false)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "expired", decode(t, w)["error"])
}

func TestPublicPDF(t *testing.T) {
	r := newTestRouter(t)
	_, token := sendDraft(t, r, "")

	w := do(t, r, http.MethodGet, "/public/proposal/"+token+"/pdf", nil, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "PRO-0001.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestParseValidUntil(t *testing.T) {
	got, err := parseValidUntil("2026-11-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 30, 23, 59, 59, 0, time.UTC), *got)

	got, err = parseValidUntil("2026-11-30T12:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 30, 10, 0, 0, 0, time.UTC), *got)
	assert.Equal(t, time.UTC, got.Location())

	got, err = parseValidUntil("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseValidUntil("30/11/2026")
	assert.Error(t, err)
}
