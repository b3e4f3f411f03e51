package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldocs/internal/audit"
	"legaldocs/internal/compliance"
	doctypestore "legaldocs/internal/document/store/doctype"
	documentstore "legaldocs/internal/document/store/document"
	"legaldocs/internal/document/service"
	"legaldocs/internal/filestore"
	"legaldocs/internal/notify"
	"legaldocs/internal/owner"
	"legaldocs/internal/ownerkind"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/tx"
)

func newDocumentRouter(t *testing.T, workflow bool) chi.Router {
	t.Helper()

	registry, err := ownerkind.NewRegistry(
		ownerkind.Kind{Name: "member"},
		ownerkind.Kind{Name: "company"},
	)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewPublisher(audit.NewMemoryStore(), log)
	documents := documentstore.NewMemory()
	types := doctypestore.NewMemory()
	states := owner.NewMemoryStateStore()
	directory := owner.NewInMemoryDirectory()
	directory.SetContact(id.OwnerRef{Kind: "member", ID: 1}, "m1@example.com")

	agg := compliance.NewAggregator(documents, types, states, registry, auditor, nil, log, true)
	svc := service.NewService(
		documents, types, agg, filestore.NewMemory(), notify.LogDispatcher{Logger: log},
		directory, registry, auditor, nil, tx.NoopRunner{}, log,
		service.Config{AllowedExtensions: []string{"pdf", "jpg", "png"}, ThresholdDays: 35, ValidationWorkflow: workflow},
	)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	New(svc, log, Config{ThresholdDays: 35, ValidationWorkflow: workflow}).Register(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createType(t *testing.T, router chi.Router, payload map[string]any) TypeResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/document-types", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp TypeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func createDocument(t *testing.T, router chi.Router, payload map[string]any) DocumentResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/documents", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestDocumentLifecycleViaHandlers(t *testing.T) {
	router := newDocumentRouter(t, true)

	dt := createType(t, router, map[string]any{"title": "Liability insurance", "mandatory": true})
	doc := createDocument(t, router, map[string]any{
		"type_id":         dt.ID,
		"owner_kind":      "member",
		"owner_id":        1,
		"expiration_date": "2027-06-30",
	})
	assert.Equal(t, "Waiting", doc.Status)
	assert.Equal(t, "2027-06-30", doc.ExpirationDate)

	rec := doJSON(t, router, http.MethodGet, "/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Liability insurance", got.TypeTitle)

	req := httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID+"/valid", nil)
	req.Header.Set(reviewerHeader, uuid.New().String())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Valid", got.Status)
	require.NotNil(t, got.Review)
	assert.NotNil(t, got.Review.ReviewedAt)

	rec = doJSON(t, router, http.MethodGet, "/owners/member/1/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodPost, "/owners/member/1/state/recompute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state StateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, "Valid", state.LegalState)
}

func TestListNeverExpiresCannotExpireTypes(t *testing.T) {
	router := newDocumentRouter(t, true)

	dt := createType(t, router, map[string]any{"title": "Identity proof", "cannot_expire": true})
	createDocument(t, router, map[string]any{
		"type_id":         dt.ID,
		"owner_kind":      "member",
		"owner_id":        1,
		"expiration_date": "2024-01-01",
	})

	rec := doJSON(t, router, http.MethodGet, "/owners/member/1/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list []DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)

	// The stored date is ignored for a type that cannot expire: the document
	// waits for review (amber) instead of counting as expired (red).
	assert.Equal(t, "Identity proof", list[0].TypeTitle)
	assert.Equal(t, "amber", list[0].Urgency)
	assert.Equal(t, "no expiration date", list[0].ExpiresIn)

	rec = doJSON(t, router, http.MethodGet, "/owners/member/1/documents/expiring", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var expiring []DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&expiring))
	assert.Empty(t, expiring)
}

func TestListDocumentsCarriesTypeTitles(t *testing.T) {
	router := newDocumentRouter(t, true)

	dt := createType(t, router, map[string]any{"title": "Liability insurance"})
	createDocument(t, router, map[string]any{
		"type_id":         dt.ID,
		"owner_kind":      "member",
		"owner_id":        1,
		"expiration_date": "2027-06-30",
	})

	rec := doJSON(t, router, http.MethodGet, "/owners/member/1/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Liability insurance", list[0].TypeTitle)
}

func TestOwnerKindsEndpoint(t *testing.T) {
	router := newDocumentRouter(t, true)

	rec := doJSON(t, router, http.MethodGet, "/owner-kinds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp OwnerKindsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"company", "member"}, resp.OwnerKinds)
}

func TestUploadReplacesDocumentFile(t *testing.T) {
	router := newDocumentRouter(t, true)
	dt := createType(t, router, map[string]any{"title": "Identity proof"})

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "passport.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7 test"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/owners/member/1/documents/"+dt.ID+"/file", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	assert.True(t, doc.HasFile)
	assert.Equal(t, "Waiting", doc.Status)
}

func TestForceStateEndpoint(t *testing.T) {
	router := newDocumentRouter(t, true)
	dt := createType(t, router, map[string]any{"title": "Liability insurance"})
	createDocument(t, router, map[string]any{"type_id": dt.ID, "owner_kind": "member", "owner_id": 1})

	rec := doJSON(t, router, http.MethodPut, "/owners/member/1/state", map[string]any{"state": "Valid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state StateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, "Valid", state.LegalState)

	rec = doJSON(t, router, http.MethodPut, "/owners/member/1/state", map[string]any{"state": "Suspended"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerErrorMapping(t *testing.T) {
	router := newDocumentRouter(t, true)

	t.Run("unknown document returns 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/documents/"+uuid.New().String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown owner kind returns 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/owners/vessel/1/documents", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric owner id returns 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/owners/member/abc/documents", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed reviewer header returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/owners/member/1/documents", nil)
		req.Header.Set(reviewerHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing owner_kind on type listing returns 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/document-types", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWorkflowDisabledHidesReviewSurface(t *testing.T) {
	router := newDocumentRouter(t, false)
	dt := createType(t, router, map[string]any{"title": "Liability insurance"})
	doc := createDocument(t, router, map[string]any{"type_id": dt.ID, "owner_kind": "member", "owner_id": 1})

	rec := doJSON(t, router, http.MethodPost, "/documents/"+doc.ID+"/valid", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Nil(t, got.Review)
}
