package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-intake/internal/domain/submission"
	"resume-intake/internal/services"
	"resume-intake/internal/storage"
	"resume-intake/internal/transport/httpdto"
	intake_errors "resume-intake/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryRepository struct {
	mu        sync.Mutex
	records   []submission.Record
	insertErr error
	listErr   error
}

func (r *memoryRepository) Insert(ctx context.Context, rec *submission.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.records = append([]submission.Record{*rec}, r.records...)
	return nil
}

func (r *memoryRepository) ListAll(ctx context.Context) ([]submission.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]submission.Record(nil), r.records...), nil
}

type brokenStore struct{}

func (brokenStore) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) error {
	return errors.New("bucket not found")
}

func (brokenStore) PublicURL(key string) string { return "https://cdn.test/" + key }

func (brokenStore) HealthCheck(ctx context.Context) error { return errors.New("bucket not found") }

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(store storage.BlobStore, repo *memoryRepository) *gin.Engine {
	optCfg := services.DefaultOptimizerConfig()
	optCfg.BackoffUnit = time.Millisecond
	optimizer := services.NewUploadOptimizer(store, optCfg, nil, nil)
	svc := services.NewSubmissionService(repo, store, optimizer, nil, nil, services.SubmissionConfig{
		MaxBytes: 5 << 20,
		Timeout:  5 * time.Second,
	})
	h := NewSubmissionHandler(svc)

	r := gin.New()
	r.POST("/api/upload", h.Upload)
	r.GET("/api/submissions", h.List)
	return r
}

type part struct {
	field    string
	filename string
	isFile   bool
	content  []byte
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.isFile {
			fw, err := mw.CreateFormFile(p.field, p.filename)
			require.NoError(t, err)
			_, err = fw.Write(p.content)
			require.NoError(t, err)
			continue
		}
		require.NoError(t, mw.WriteField(p.field, string(p.content)))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func field(name, value string) part {
	return part{field: name, content: []byte(value)}
}

func resumeFile(filename string, content []byte) part {
	return part{field: "resume", filename: filename, isFile: true, content: content}
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func pdf(size int) []byte {
	head := []byte("%PDF-1.4\n")
	return append(head, bytes.Repeat([]byte{'a'}, size-len(head))...)
}

func TestUploadSuccess(t *testing.T) {
	store := storage.NewMemoryStore("https://cdn.test/resumes")
	repo := &memoryRepository{}
	r := newRouter(store, repo)

	w, resp := serve(r, multipartRequest(t,
		field("name", "Jane Doe"),
		field("mobile_number", "5551234567"),
		resumeFile("jane.pdf", pdf(10*1024)),
	))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, services.MsgUploadSuccessful, resp.Message)

	var data httpdto.UploadResultDTO
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "Jane Doe", data.Name)
	assert.Equal(t, "5551234567", data.MobileNumber)
	assert.Equal(t, "jane.pdf", data.ResumeFilename)
	assert.True(t, strings.HasPrefix(data.ResumePath, "resumes/"))
	assert.Equal(t, "https://cdn.test/resumes/"+data.ResumePath, data.ResumeURL)
	_, err := time.Parse(time.RFC3339, data.CreatedAt)
	assert.NoError(t, err)

	obj, ok := store.Get(data.ResumePath)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.Options.ContentType)
	assert.Len(t, repo.records, 1)
}

func TestUploadValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		parts   []part
		message string
	}{
		{
			name:    "missing name",
			parts:   []part{field("mobile_number", "5551234567"), resumeFile("cv.pdf", pdf(64))},
			message: services.MsgMissingFields,
		},
		{
			name:    "blank mobile",
			parts:   []part{field("name", "Jane Doe"), field("mobile_number", "  "), resumeFile("cv.pdf", pdf(64))},
			message: services.MsgMissingFields,
		},
		{
			name:    "no file part",
			parts:   []part{field("name", "Jane Doe"), field("mobile_number", "5551234567")},
			message: services.MsgMissingFile,
		},
		{
			name:    "empty filename",
			parts:   []part{field("name", "Jane Doe"), field("mobile_number", "5551234567"), resumeFile("", nil)},
			message: services.MsgEmptyFilename,
		},
		{
			name:    "wrong type",
			parts:   []part{field("name", "Jane Doe"), field("mobile_number", "5551234567"), resumeFile("cv.exe", []byte("MZ"))},
			message: services.MsgInvalidType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemoryStore("https://cdn.test/resumes")
			repo := &memoryRepository{}
			w, resp := serve(newRouter(store, repo), multipartRequest(t, tc.parts...))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, CodeValidation, resp.Code)
			assert.Equal(t, tc.message, resp.Error)
			assert.Zero(t, store.Len())
			assert.Empty(t, repo.records)
		})
	}
}

func TestUploadWithoutMultipartBody(t *testing.T) {
	form := url.Values{"name": {"Jane Doe"}, "mobile_number": {"5551234567"}}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w, resp := serve(newRouter(storage.NewMemoryStore("https://cdn.test"), &memoryRepository{}), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.MsgMissingFile, resp.Error)
}

func TestUploadTooLargeForService(t *testing.T) {
	w, resp := serve(newRouter(storage.NewMemoryStore("https://cdn.test"), &memoryRepository{}), multipartRequest(t,
		field("name", "Jane Doe"),
		field("mobile_number", "5551234567"),
		resumeFile("cv.pdf", pdf(5<<20+1)),
	))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, CodeTooLarge, resp.Code)
	assert.Equal(t, "File size must be less than 5MB!", resp.Error)
}

func TestUploadStorageFailure(t *testing.T) {
	repo := &memoryRepository{}
	w, resp := serve(newRouter(brokenStore{}, repo), multipartRequest(t,
		field("name", "Jane Doe"),
		field("mobile_number", "5551234567"),
		resumeFile("cv.pdf", pdf(64)),
	))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeStorage, resp.Code)
	assert.Equal(t, services.MsgStorageFailed, resp.Error)
	assert.NotContains(t, w.Body.String(), "bucket not found")
	assert.Empty(t, repo.records)
}

func TestUploadDatabaseFailure(t *testing.T) {
	repo := &memoryRepository{insertErr: errors.New("pq: relation \"user_resumes\" does not exist")}
	w, resp := serve(newRouter(storage.NewMemoryStore("https://cdn.test"), repo), multipartRequest(t,
		field("name", "Jane Doe"),
		field("mobile_number", "5551234567"),
		resumeFile("cv.pdf", pdf(64)),
	))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeDatabase, resp.Code)
	assert.Equal(t, services.MsgDatabaseFailed, resp.Error)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestListSubmissions(t *testing.T) {
	repo := &memoryRepository{}
	r := newRouter(storage.NewMemoryStore("https://cdn.test"), repo)

	w, resp := serve(r, httptest.NewRequest(http.MethodGet, "/api/submissions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `[]`, string(resp.Data))

	for _, name := range []string{"Ada", "Grace"} {
		w, _ := serve(r, multipartRequest(t,
			field("name", name),
			field("mobile_number", "5551234567"),
			resumeFile("cv.docx", []byte("PK\x03\x04")),
		))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, resp = serve(r, httptest.NewRequest(http.MethodGet, "/api/submissions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var items []httpdto.SubmissionDTO
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Grace", items[0].Name)
	assert.Equal(t, "Ada", items[1].Name)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "cv.docx", items[0].ResumeFilename)
}

func TestListSubmissionsFailure(t *testing.T) {
	repo := &memoryRepository{listErr: errors.New("connection reset")}
	w, resp := serve(newRouter(storage.NewMemoryStore("https://cdn.test"), repo), httptest.NewRequest(http.MethodGet, "/api/submissions", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, CodeListing, resp.Code)
	assert.Equal(t, services.MsgListingFailed, resp.Error)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestResumeReadFailureIsUnexpected(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/upload", nil)

	writeError(c, fmt.Errorf("read resume part: %w", io.ErrUnexpectedEOF))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, CodeUnexpected, resp.Code)
	assert.Equal(t, intake_errors.MsgUnexpected, resp.Error)
	assert.NotContains(t, w.Body.String(), "unexpected EOF")
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, io.ErrUnexpectedEOF)
}
