package runs

import (
	"context"
	"errors"
	"testing"
	"time"

	"review-backend/internal/pipeline"
	"review-backend/internal/queue"
	"review-backend/internal/reviews"
)

type staticConfig []pipeline.StepConfig

func (c staticConfig) ListEnabledSteps(context.Context, string) ([]pipeline.StepConfig, error) {
	return c, nil
}

type captureQueue struct {
	sent []queue.Message
	err  error
}

func (q *captureQueue) Send(_ context.Context, msg queue.Message) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, msg)
	return nil
}

type noopStep struct{}

func (noopStep) Apply(context.Context, *pipeline.RunContext, pipeline.Params) error { return nil }

type signalStep struct {
	done chan string
}

func (s signalStep) Apply(_ context.Context, rc *pipeline.RunContext, _ pipeline.Params) error {
	s.done <- rc.Review.ID
	return nil
}

func testRegistry(t *testing.T, terminal pipeline.Step) *pipeline.Registry {
	t.Helper()
	registry := pipeline.NewRegistry()
	registry.MustRegister("noop", func() pipeline.Step { return noopStep{} })
	registry.MustRegisterTerminal("finish", func() pipeline.Step { return terminal })
	return registry
}

func seededReviews(t *testing.T, ids ...string) *reviews.MemoryRepo {
	t.Helper()
	repo := reviews.NewMemoryRepo()
	for _, id := range ids {
		err := repo.Create(context.Background(), reviews.Review{
			ID: id, AppName: "game", Rating: 3, Content: "fine",
		})
		if err != nil {
			t.Fatalf("seed review: %v", err)
		}
	}
	return repo
}

func TestProcessRunsPipeline(t *testing.T) {
	svc := &Service{
		Reviews:  seededReviews(t, "r1"),
		Config:   staticConfig{{Key: "noop", Order: 1}, {Key: "finish", Order: 2}},
		Registry: testRegistry(t, noopStep{}),
	}

	summary, err := svc.Process(context.Background(), "r1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Success {
		t.Fatalf("summary = %+v, want success", summary)
	}
	if summary.RunType != "default" {
		t.Fatalf("run type = %q, want default fallback", summary.RunType)
	}
	if len(summary.ExecutedSteps) != 2 {
		t.Fatalf("executed = %v", summary.ExecutedSteps)
	}
}

func TestProcessUnknownReview(t *testing.T) {
	svc := &Service{
		Reviews:  seededReviews(t),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
	}

	_, err := svc.Process(context.Background(), "missing", "")
	if !errors.Is(err, reviews.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProcessConfigurationErrorSurfaces(t *testing.T) {
	svc := &Service{
		Reviews:  seededReviews(t, "r1"),
		Config:   staticConfig{},
		Registry: testRegistry(t, noopStep{}),
	}

	_, err := svc.Process(context.Background(), "r1", "")
	var cfgErr *pipeline.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestEnqueueSendsOneMessagePerReview(t *testing.T) {
	q := &captureQueue{}
	svc := &Service{
		Reviews:        seededReviews(t, "r1", "r2"),
		Config:         staticConfig{{Key: "finish", Order: 1}},
		Registry:       testRegistry(t, noopStep{}),
		Queue:          q,
		DefaultRunType: "default",
	}

	queued, err := svc.Enqueue(context.Background(), []string{"r1", "missing", "r2"}, "", "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 2 {
		t.Fatalf("queued = %d, want unknown id skipped", queued)
	}
	if len(q.sent) != 2 {
		t.Fatalf("sent = %d messages", len(q.sent))
	}
	first := q.sent[0]
	if first.ReviewID != "r1" || first.RunType != "default" || first.RequestID != "req-1" || first.Version != 1 {
		t.Fatalf("message = %+v", first)
	}
	if first.EnqueuedAt == "" {
		t.Fatal("want enqueued timestamp")
	}
}

func TestEnqueueQueueFailure(t *testing.T) {
	q := &captureQueue{err: errors.New("throttled")}
	svc := &Service{
		Reviews:  seededReviews(t, "r1"),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
		Queue:    q,
	}

	if _, err := svc.Enqueue(context.Background(), []string{"r1"}, "", ""); err == nil {
		t.Fatal("want error from queue send")
	}
}

func TestEnqueueInlineFallback(t *testing.T) {
	done := make(chan string, 1)
	svc := &Service{
		Reviews:  seededReviews(t, "r1"),
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, signalStep{done: done}),
	}

	queued, err := svc.Enqueue(context.Background(), []string{"r1"}, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d", queued)
	}

	select {
	case reviewID := <-done:
		if reviewID != "r1" {
			t.Fatalf("processed %q", reviewID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inline run never reached the terminal step")
	}
}

func TestEnqueueUnanalyzed(t *testing.T) {
	q := &captureQueue{}
	repo := seededReviews(t, "r1", "r2")
	repo.Analyzed = func(reviewID string) bool { return reviewID == "r1" }

	svc := &Service{
		Reviews:  repo,
		Config:   staticConfig{{Key: "finish", Order: 1}},
		Registry: testRegistry(t, noopStep{}),
		Queue:    q,
	}

	queued, err := svc.EnqueueUnanalyzed(context.Background(), "game", 50, "", "req-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d, want only the unanalyzed review", queued)
	}
	if len(q.sent) != 1 || q.sent[0].ReviewID != "r2" {
		t.Fatalf("sent = %+v", q.sent)
	}
}
