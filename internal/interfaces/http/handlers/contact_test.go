package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/domain/contact"
	"github.com/ves-sport/commerce-backend/internal/domain/upload"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingUploader struct {
	names []string
}

func (u *recordingUploader) SaveImage(_ context.Context, header *multipart.FileHeader, category string) (*upload.UploadedFile, error) {
	u.names = append(u.names, header.Filename)
	return &upload.UploadedFile{URL: "https://cdn.example.com/" + category + "/" + header.Filename}, nil
}

func newContactRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *recordingUploader) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	uploader := &recordingUploader{}
	h := NewContactHandler(contact.NewService(db, uploader, nil, 2, log), log)

	r := gin.New()
	r.POST("/contact", h.Submit)
	r.GET("/admin/contact-messages", h.AdminGetMessages)
	return r, mock, uploader
}

// postForm sends a multipart contact form with the given files keyed by field
func postForm(t *testing.T, r http.Handler, fields map[string]string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/contact", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var validContact = map[string]string{
	"name":    "Ana",
	"email":   "ana@club.es",
	"team":    "CD Leganés",
	"service": "equipaciones",
	"message": "Queremos 20 camisetas",
}

func TestContactHandler_Submit(t *testing.T) {
	r, mock, uploader := newContactRouter(t)
	mock.ExpectQuery(`INSERT INTO "contact_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	w := postForm(t, r, validContact, map[string]string{
		"image_1":    "back.png",
		"image_0":    "front.png",
		"attachment": "ignored.png",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(9), data["id"])
	assert.Equal(t, float64(2), data["images"])
	assert.Equal(t, []string{"front.png", "back.png"}, uploader.names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactHandler_Submit_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
	}{
		{"missing message", map[string]string{"name": "Ana", "email": "ana@club.es"}, nil},
		{"bad email", map[string]string{"name": "Ana", "email": "ana", "message": "hola"}, nil},
		{"too many images", validContact, map[string]string{"image_0": "a.png", "image_1": "b.png", "image_2": "c.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock, uploader := newContactRouter(t)

			w := postForm(t, r, tt.fields, tt.files)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Empty(t, uploader.names)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContactHandler_Submit_DatabaseFailure(t *testing.T) {
	r, mock, _ := newContactRouter(t)
	mock.ExpectQuery(`INSERT INTO "contact_messages"`).WillReturnError(assert.AnError)

	w := postForm(t, r, validContact, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error saving message", decode(t, w)["error"])
}

func TestContactHandler_Submit_URLEncoded(t *testing.T) {
	r, mock, _ := newContactRouter(t)
	mock.ExpectQuery(`INSERT INTO "contact_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	req := httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader("name=Ana&email=ana%40club.es&message=hola"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactHandler_AdminGetMessages(t *testing.T) {
	r, mock, _ := newContactRouter(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "contact_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "contact_messages" ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "message"}).AddRow(1, "Ana", "ana@club.es", "hola"))

	w := doJSON(r, http.MethodGet, "/admin/contact-messages?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	assert.Len(t, data["messages"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
