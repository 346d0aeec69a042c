package tickets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(repo Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestListTicketsWithFilters(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	_ = repo.Insert(context.Background(), Ticket{ID: "t1", ReviewID: "r1", Rule: RuleProblem, Status: StatusOpen, Priority: 7, CreatedAt: now})
	_ = repo.Insert(context.Background(), Ticket{ID: "t2", ReviewID: "r2", Rule: RuleComplexity, Status: StatusClosed, Priority: 3, CreatedAt: now})
	r := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets?status=open&minPriority=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Tickets []Ticket `json:"tickets"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Tickets[0].ID != "t1" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestListTicketsRejectsBadPriority(t *testing.T) {
	r := newTestRouter(NewMemoryRepo())

	for _, q := range []string{"minPriority=eleven", "minPriority=11", "minPriority=-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets?"+q, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestListReviewTickets(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	_ = repo.Insert(context.Background(), Ticket{ID: "t1", ReviewID: "r1", Rule: RuleProblem, Status: StatusOpen, CreatedAt: now})
	_ = repo.Insert(context.Background(), Ticket{ID: "t2", ReviewID: "r2", Rule: RuleProblem, Status: StatusOpen, CreatedAt: now})
	r := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/r1/tickets", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Tickets []Ticket `json:"tickets"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Tickets[0].ReviewID != "r1" {
		t.Fatalf("resp = %+v", resp)
	}
}
