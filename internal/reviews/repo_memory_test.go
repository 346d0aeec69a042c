package reviews

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedReview(t *testing.T, repo *MemoryRepo, id, app string, createdAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), Review{
		ID: id, AppName: app, Rating: 3, Content: "fine", CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestMemoryRepoGetByID(t *testing.T) {
	repo := NewMemoryRepo()
	seedReview(t, repo, "r1", "puzzlequest", time.Now().UTC())

	got, err := repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AppName != "puzzlequest" {
		t.Fatalf("review = %+v", got)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryRepoListNewestFirstWithPaging(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seedReview(t, repo, fmt.Sprintf("r%d", i), "puzzlequest", now.Add(time.Duration(i)*time.Minute))
	}
	seedReview(t, repo, "other", "wordblitz", now)

	got, err := repo.List(context.Background(), "puzzlequest", 2, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reviews", len(got))
	}
	if got[0].ID != "r3" || got[1].ID != "r2" {
		t.Fatalf("page = %q, %q", got[0].ID, got[1].ID)
	}

	if got, _ := repo.List(context.Background(), "puzzlequest", 10, 10); got != nil {
		t.Fatalf("offset past end should be empty, got %v", got)
	}
}

func TestMemoryRepoListUnanalyzed(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	seedReview(t, repo, "done", "puzzlequest", now.Add(-2*time.Hour))
	seedReview(t, repo, "pending-old", "puzzlequest", now.Add(-time.Hour))
	seedReview(t, repo, "pending-new", "puzzlequest", now)
	repo.Analyzed = func(reviewID string) bool { return reviewID == "done" }

	got, err := repo.ListUnanalyzed(context.Background(), "puzzlequest", 10)
	if err != nil {
		t.Fatalf("ListUnanalyzed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reviews", len(got))
	}
	if got[0].ID != "pending-old" || got[1].ID != "pending-new" {
		t.Fatalf("oldest first expected, got %q then %q", got[0].ID, got[1].ID)
	}
}
