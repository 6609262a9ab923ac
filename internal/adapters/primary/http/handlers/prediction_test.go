package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-audit-platform/internal/core/domain"
	"ml-audit-platform/internal/core/services"
	"ml-audit-platform/internal/testutil"
)

const validPassenger = `{"pclass":1,"sex":1,"age":30,"sibsp":0,"parch":0,"fare":100,"embarked":0}`

func setupRouter(clf *testutil.StubClassifier, maxBatch int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	var svc *services.PredictionService
	if clf == nil {
		svc = services.NewPredictionService(nil, maxBatch)
	} else {
		svc = services.NewPredictionService(testutil.NewStubBundle(clf), maxBatch)
	}

	h := New(svc)
	r := gin.New()
	h.RegisterRoutes(r.Group("/"))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ============================================================================
// Predict Tests
// ============================================================================

func TestPredict(t *testing.T) {
	clf := &testutil.StubClassifier{Label: 1, Probability: 0.91}
	r := setupRouter(clf, 10)

	w := doRequest(r, http.MethodPost, "/predict", validPassenger)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, clf.Received, 1)
	assert.Equal(t, []float64{1, 1, 30, 0, 0, 100, 0}, clf.Received[0])

	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["prediction"])
	assert.Equal(t, 0.91, resp["probability"])
	assert.Equal(t, "model", resp["probability_source"])
	assert.Equal(t, "Survived", resp["prediction_text"])
	assert.Equal(t, "Survived with survival probability 0.91", resp["message"])
	assert.Equal(t, float64(100), resp["input"].(map[string]interface{})["fare"])
}

func TestPredict_ProbabilityFallback(t *testing.T) {
	r := setupRouter(&testutil.StubClassifier{Label: 0, NoProba: true}, 10)

	w := doRequest(r, http.MethodPost, "/predict", validPassenger)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(0), resp["probability"])
	assert.Equal(t, "prediction", resp["probability_source"])
	assert.Equal(t, "Did not survive", resp["prediction_text"])
}

func TestPredict_ModelUnavailable(t *testing.T) {
	r := setupRouter(nil, 10)

	for _, body := range []string{validPassenger, `{"pclass":`} {
		w := doRequest(r, http.MethodPost, "/predict", body)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, domain.ErrModelUnavailable.Error(), decode(t, w)["error"])
	}
}

func TestPredict_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing field", `{"pclass":1,"sex":1,"age":30,"sibsp":0,"parch":0,"fare":100}`, "embarked is required"},
		{"wrong type", `{"pclass":1,"sex":1,"age":"thirty","sibsp":0,"parch":0,"fare":100,"embarked":0}`, "age must be a number"},
		{"fractional integer", `{"pclass":1.5,"sex":1,"age":30,"sibsp":0,"parch":0,"fare":100,"embarked":0}`, "pclass must be an integer"},
		{"out of range", `{"pclass":5,"sex":1,"age":30,"sibsp":0,"parch":0,"fare":100,"embarked":0}`, "pclass must be 1, 2 or 3"},
		{"negative fare", `{"pclass":1,"sex":1,"age":30,"sibsp":0,"parch":0,"fare":-1,"embarked":0}`, "fare"},
		{"malformed", `{"pclass":1,`, "malformed JSON body"},
		{"empty body", ``, "request body is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := &testutil.StubClassifier{Label: 1, Probability: 0.5}
			r := setupRouter(clf, 10)

			w := doRequest(r, http.MethodPost, "/predict", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			msg, _ := decode(t, w)["error"].(string)
			assert.True(t, strings.HasPrefix(msg, "invalid input"), msg)
			assert.Contains(t, msg, tt.wantMsg)
			assert.Empty(t, clf.Received, "model must not be invoked")
		})
	}
}

func TestPredict_InferenceFailure(t *testing.T) {
	r := setupRouter(&testutil.StubClassifier{Err: errors.New("feature index 9 out of range")}, 10)

	w := doRequest(r, http.MethodPost, "/predict", validPassenger)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "inference failed", decode(t, w)["error"])
}

// ============================================================================
// BatchPredict Tests
// ============================================================================

func TestBatchPredict_IndependentItems(t *testing.T) {
	clf := &testutil.StubClassifier{Label: 1, Probability: 0.8}
	r := setupRouter(clf, 10)

	body := `[` + validPassenger + `,{"pclass":2},` + strings.Replace(validPassenger, `"sex":1`, `"sex":0`, 1) + `]`
	w := doRequest(r, http.MethodPost, "/batch-predict", body)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(3), resp["total"])
	assert.Equal(t, float64(2), resp["succeeded"])
	assert.Equal(t, float64(1), resp["failed"])

	results := resp["results"].([]interface{})
	require.Len(t, results, 3)
	for i, raw := range results {
		assert.Equal(t, float64(i), raw.(map[string]interface{})["index"])
	}
	assert.Equal(t, float64(1), results[0].(map[string]interface{})["prediction"])
	assert.Contains(t, results[1].(map[string]interface{})["error"], "sex is required")
	assert.Nil(t, results[1].(map[string]interface{})["prediction"])
	assert.Equal(t, float64(0), results[2].(map[string]interface{})["input"].(map[string]interface{})["sex"])

	require.Len(t, clf.Received, 2)
	assert.Equal(t, float64(0), clf.Received[1][1])
}

func TestBatchPredict_RequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		clf      *testutil.StubClassifier
		body     string
		wantCode int
	}{
		{"object instead of array", &testutil.StubClassifier{}, validPassenger, http.StatusBadRequest},
		{"null body", &testutil.StubClassifier{}, `null`, http.StatusBadRequest},
		{"too large", &testutil.StubClassifier{}, `[` + validPassenger + `,` + validPassenger + `,` + validPassenger + `]`, http.StatusBadRequest},
		{"model unavailable", nil, `[` + validPassenger + `]`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(tt.clf, 2)

			w := doRequest(r, http.MethodPost, "/batch-predict", tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestBatchPredict_Empty(t *testing.T) {
	r := setupRouter(&testutil.StubClassifier{}, 10)

	w := doRequest(r, http.MethodPost, "/batch-predict", `[]`)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(0), resp["total"])
	assert.Empty(t, resp["results"])
}
