package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"DF-PROPOSAL/internal"
	"DF-PROPOSAL/internal/config"
	"DF-PROPOSAL/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const owner = "owner-1"

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := internal.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, internal.AutoMigrate(db))
	return db
}

// useClock pins the service clock for the duration of the test.
func useClock(t *testing.T, at time.Time) {
	t.Helper()
	nowFn = func() time.Time { return at }
	t.Cleanup(func() { nowFn = time.Now })
}

type fixture struct {
	db        *gorm.DB
	templates *TemplateService
	documents *DocumentService
	clients   *ClientService
	access    *AccessService
	responses *ResponseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	useClock(t, testNow)
	db := newTestDB(t)
	agency := NewStaticAgency(config.AgencyConfig{Name: "Acme Studio", Email: "hello@acme.test"})
	access := NewAccessService(db, agency, "https://proposals.example.com/", nil)
	return &fixture{
		db:        db,
		templates: NewTemplateService(db),
		documents: NewDocumentService(db),
		clients:   NewClientService(db),
		access:    access,
		responses: NewResponseService(db, access, nil, nil),
	}
}

// draftWithContent creates a draft with one filled section, ready to send.
func (f *fixture) draftWithContent(t *testing.T) *models.Document {
	t.Helper()
	doc, err := f.documents.CreateBlank(t.Context(), owner, CreateDocumentInput{Title: "Website Redesign"})
	require.NoError(t, err)
	_, err = f.documents.AddSection(t.Context(), owner, doc.ID, SectionInput{
		SectionType: models.SectionIntroduction,
		Content:     "<p>Hello {{client.name}}</p>",
	})
	require.NoError(t, err)
	return doc
}

// sent creates and sends a document, returning it and its token.
func (f *fixture) sent(t *testing.T) (*models.Document, string) {
	t.Helper()
	doc := f.draftWithContent(t)
	res, err := f.responses.Send(t.Context(), owner, doc.ID)
	require.NoError(t, err)
	return res.Document, res.Token
}

func ptr[T any](v T) *T {
	return &v
}
