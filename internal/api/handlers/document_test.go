package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanport.io/portal/internal/api/middleware"
	apperrors "loanport.io/portal/internal/pkg/errors"
)

func newDocumentTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router, srv := newTestRouter(t, "user-1", middleware.KindBorrower)
	router.GET("/applications/:id/checklist", srv.GetChecklist)
	router.POST("/applications/:id/documents", srv.AttachDocument)
	router.DELETE("/applications/:id/documents/:name", srv.RemoveDocument)
	router.POST("/applications/:id/documents/:name/verify", srv.VerifyDocument)
	return router
}

func TestGetChecklist(t *testing.T) {
	router := newDocumentTestRouter(t)
	id := createTestApplication(t, router)

	w := doJSON(t, router, http.MethodGet, "/applications/"+id+"/checklist", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeApp(t, w)
	items := body["items"].([]interface{})
	require.NotEmpty(t, items)
	for _, raw := range items {
		item := raw.(map[string]interface{})
		assert.Equal(t, "missing", item["status"])
	}
}

func TestAttachDocument(t *testing.T) {
	router := newDocumentTestRouter(t)
	id := createTestApplication(t, router)

	w := doJSON(t, router, http.MethodPost, "/applications/"+id+"/documents", gin.H{
		"name":    "Credit Report",
		"fileUrl": "s3://docs/credit-report.pdf",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeApp(t, w)
	docs := body["documents"].([]interface{})
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]interface{})
	assert.Equal(t, "Credit Report", doc["name"])
	assert.Equal(t, false, doc["verified"])

	// The checklist reflects the upload.
	w = doJSON(t, router, http.MethodGet, "/applications/"+id+"/checklist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeApp(t, w)
	statuses := map[string]string{}
	for _, raw := range body["items"].([]interface{}) {
		item := raw.(map[string]interface{})
		statuses[item["name"].(string)] = item["status"].(string)
	}
	assert.Equal(t, "uploaded", statuses["Credit Report"])
}

func TestAttachDocument_MissingFileURL(t *testing.T) {
	router := newDocumentTestRouter(t)
	id := createTestApplication(t, router)

	w := doJSON(t, router, http.MethodPost, "/applications/"+id+"/documents", gin.H{
		"name": "Credit Report",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeApp(t, w)
	assert.Equal(t, apperrors.CodeValidationFailed, body["code"])
}

func TestVerifyAndRemoveDocument(t *testing.T) {
	router := newDocumentTestRouter(t)
	id := createTestApplication(t, router)

	w := doJSON(t, router, http.MethodPost, "/applications/"+id+"/documents", gin.H{
		"name":    "Bank Statements",
		"fileUrl": "s3://docs/bank.pdf",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/applications/"+id+"/documents/Bank%20Statements/verify", gin.H{
		"verified": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeApp(t, w)
	doc := body["documents"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, doc["verified"])

	w = doJSON(t, router, http.MethodDelete, "/applications/"+id+"/documents/Bank%20Statements", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeApp(t, w)
	assert.Empty(t, body["documents"])

	// Removing again reports the document as gone.
	w = doJSON(t, router, http.MethodDelete, "/applications/"+id+"/documents/Bank%20Statements", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body = decodeApp(t, w)
	assert.Equal(t, apperrors.CodeDocumentNotFound, body["code"])
}
