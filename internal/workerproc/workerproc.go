package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"review-backend/internal/pipeline"
	"review-backend/internal/queue"
	"review-backend/internal/runs"
)

// Processor runs the pipeline for one review. Satisfied by *runs.Service.
type Processor interface {
	Process(ctx context.Context, reviewID, runType string) (pipeline.Summary, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingReviewID indicates a message missing the review id.
type ErrMissingReviewID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingReviewID) Error() string { return "missing review id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	ReviewID  string
	RunType   string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process review"
	}
	return "process review: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ReviewID) == "" {
		return msg, meta, ErrMissingReviewID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload. A run
// that completes with an unsuccessful summary is a processing failure: the
// message stays on the queue for redelivery.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errors.New("run processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.ReviewID) == "" {
		return ErrMissingReviewID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	ctxWithRequest := runs.WithRequestID(ctx, msg.RequestID)
	summary, err := processor.Process(ctxWithRequest, msg.ReviewID, msg.RunType)
	if err != nil {
		return ErrProcess{ReviewID: msg.ReviewID, RunType: msg.RunType, RequestID: msg.RequestID, Err: err}
	}
	if !summary.Success {
		return ErrProcess{
			ReviewID:  msg.ReviewID,
			RunType:   msg.RunType,
			RequestID: msg.RequestID,
			Err:       errors.New("analysis result was not persisted"),
		}
	}
	return nil
}
