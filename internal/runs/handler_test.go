package runs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestAnalyzeReviewAccepted(t *testing.T) {
	q := &captureQueue{}
	svc := &Service{
		Reviews:  seededReviews(t, "r1"),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
		Queue:    q,
	}
	r := testRouter(t, svc)

	body := bytes.NewBufferString(`{"runType": "default"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/r1/analyze", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["reviewId"] != "r1" || resp["queued"] != true {
		t.Fatalf("response = %v", resp)
	}
	if len(q.sent) != 1 {
		t.Fatalf("sent = %d messages", len(q.sent))
	}
}

func TestAnalyzeReviewNotFound(t *testing.T) {
	svc := &Service{
		Reviews:  seededReviews(t),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
		Queue:    &captureQueue{},
	}
	r := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/missing/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestEnqueueBatch(t *testing.T) {
	q := &captureQueue{}
	svc := &Service{
		Reviews:  seededReviews(t, "r1", "r2"),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
		Queue:    q,
	}
	r := testRouter(t, svc)

	body := bytes.NewBufferString(`{"reviewIds": ["r1", "r2"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["queued"] != float64(2) {
		t.Fatalf("response = %v", resp)
	}
}

func TestEnqueueBatchValidation(t *testing.T) {
	svc := &Service{
		Reviews:  seededReviews(t),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
	}
	r := testRouter(t, svc)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestEnqueueBatchUnanalyzed(t *testing.T) {
	q := &captureQueue{}
	repo := seededReviews(t, "r1", "r2")
	repo.Analyzed = func(reviewID string) bool { return reviewID == "r1" }
	svc := &Service{
		Reviews:  repo,
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
		Queue:    q,
	}
	r := testRouter(t, svc)

	body := bytes.NewBufferString(`{"unanalyzed": true, "app": "game"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(q.sent) != 1 || q.sent[0].ReviewID != "r2" {
		t.Fatalf("sent = %+v", q.sent)
	}
}
