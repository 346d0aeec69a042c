package workerproc

import (
	"context"
	"errors"
	"testing"

	"review-backend/internal/pipeline"
	"review-backend/internal/queue"
)

type fakeProcessor struct {
	reviewID string
	runType  string
	summary  pipeline.Summary
	err      error
}

func (f *fakeProcessor) Process(_ context.Context, reviewID, runType string) (pipeline.Summary, error) {
	f.reviewID = reviewID
	f.runType = runType
	return f.summary, f.err
}

func encodeBody(t *testing.T, msg queue.Message) string {
	t.Helper()
	payload, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	return string(payload)
}

func TestParseMessage(t *testing.T) {
	body := encodeBody(t, queue.Message{ReviewID: "r1", RunType: "default", RequestID: "req-1"})

	msg, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ReviewID != "r1" || msg.RunType != "default" {
		t.Fatalf("msg = %+v", msg)
	}
	if meta.BodyLen != len(body) || meta.BodySHA == "" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageErrors(t *testing.T) {
	if _, _, err := ParseMessage("   "); err != nil {
		var empty ErrEmptyBody
		if !errors.As(err, &empty) {
			t.Fatalf("err = %v, want ErrEmptyBody", err)
		}
	} else {
		t.Fatal("want error for blank body")
	}

	if _, _, err := ParseMessage("{not json"); err != nil {
		var decode ErrDecode
		if !errors.As(err, &decode) {
			t.Fatalf("err = %v, want ErrDecode", err)
		}
	} else {
		t.Fatal("want error for malformed body")
	}

	body := encodeBody(t, queue.Message{RunType: "default", RequestID: "req-1"})
	if _, _, err := ParseMessage(body); err != nil {
		var missing ErrMissingReviewID
		if !errors.As(err, &missing) {
			t.Fatalf("err = %v, want ErrMissingReviewID", err)
		}
		if missing.RequestID != "req-1" {
			t.Fatalf("request id = %q", missing.RequestID)
		}
	} else {
		t.Fatal("want error for missing review id")
	}
}

func TestHandleMessageProcesses(t *testing.T) {
	proc := &fakeProcessor{summary: pipeline.Summary{Success: true}}
	body := encodeBody(t, queue.Message{ReviewID: "r1", RunType: "escalation"})

	if err := HandleMessage(context.Background(), proc, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.reviewID != "r1" || proc.runType != "escalation" {
		t.Fatalf("processed (%q, %q)", proc.reviewID, proc.runType)
	}
}

func TestHandleMessageReusesParsedContext(t *testing.T) {
	proc := &fakeProcessor{summary: pipeline.Summary{Success: true}}
	msg := queue.Message{ReviewID: "r2", RunType: "default"}

	ctx := WithParsedMessage(context.Background(), msg)
	if err := HandleMessage(ctx, proc, "ignored body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.reviewID != "r2" {
		t.Fatalf("processed %q", proc.reviewID)
	}
}

func TestHandleMessageProcessFailure(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("db down")}
	body := encodeBody(t, queue.Message{ReviewID: "r1"})

	err := HandleMessage(context.Background(), proc, body)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("err = %v, want ErrProcess", err)
	}
	if procErr.ReviewID != "r1" {
		t.Fatalf("review id = %q", procErr.ReviewID)
	}
}

func TestHandleMessageUnsuccessfulRunIsFailure(t *testing.T) {
	proc := &fakeProcessor{summary: pipeline.Summary{Success: false}}
	body := encodeBody(t, queue.Message{ReviewID: "r1"})

	err := HandleMessage(context.Background(), proc, body)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("err = %v, want ErrProcess for unsuccessful summary", err)
	}
}
