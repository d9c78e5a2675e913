package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"DF-PROPOSAL/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGotenbergStub(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/convert/html"), r.URL.Path)
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			_, _, err := r.FormFile("files")
			assert.NoError(t, err)
		}

		if n <= failures {
			http.Error(w, "chromium busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 stub"))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newStubbedPDFService(t *testing.T, url string) *PDFService {
	t.Helper()
	svc, err := NewPDFService(url, "5s", render.NewHTMLRenderer())
	require.NoError(t, err)
	svc.backoff = time.Millisecond
	return svc
}

func TestPDFServiceRetriesUntilGotenbergAnswers(t *testing.T) {
	f := newFixture(t)
	doc := f.draftWithContent(t)
	v, err := f.access.Preview(t.Context(), owner, doc.ID)
	require.NoError(t, err)

	srv, calls := newGotenbergStub(t, 2)
	out, err := newStubbedPDFService(t, srv.URL).RenderPDF(t.Context(), v)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 stub", string(out))
	assert.EqualValues(t, 3, calls.Load())
}

func TestPDFServiceGivesUpAfterThreeAttempts(t *testing.T) {
	f := newFixture(t)
	doc := f.draftWithContent(t)
	v, err := f.access.Preview(t.Context(), owner, doc.ID)
	require.NoError(t, err)

	srv, calls := newGotenbergStub(t, 10)
	_, err = newStubbedPDFService(t, srv.URL).RenderPDF(t.Context(), v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.EqualValues(t, conversionAttempts, calls.Load())
}

func TestPDFServiceInvalidTimeoutFallsBack(t *testing.T) {
	svc, err := NewPDFService("http://localhost:3000", "soon", render.NewHTMLRenderer())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, svc.timeout)
}
