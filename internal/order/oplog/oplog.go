// Package oplog is the durable audit trail of order submissions. Every step
// transition of a submission appends a row, correlated with the active
// OpenTelemetry trace, so a half-written order can be traced back to the
// exact step that failed.
package oplog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Status is the lifecycle state of one submission attempt.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusStepDone  Status = "STEP_DONE"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Entry is one row in the submission log. The table is append-only; the
// latest row per order id is the current state.
type Entry struct {
	// OrderID joins the log with business data.
	OrderID string

	// OrderNumber is the human-readable number attempted (it can differ
	// between rows of one submission when a collision forced a regenerate).
	OrderNumber string

	Status Status

	// Step is the name of the step that just executed or failed.
	Step string

	// Errors is a JSON array of failure details, "[]" when clean.
	Errors string

	// TraceID/SpanID are the W3C identifiers of the span active when the
	// row was written, so a log row jumps straight to its trace.
	TraceID string
	SpanID  string

	UpdatedAt time.Time
}

// Repository is the port for persisting log entries. The submitter treats a
// nil repository as "logging disabled".
type Repository interface {
	Save(ctx context.Context, e *Entry) error
}

// NewEntry builds an Entry with trace info extracted from ctx. Contexts
// without an active span (unit tests) produce empty trace fields.
func NewEntry(ctx context.Context, orderID, number string, status Status, step string, errs []string) *Entry {
	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	e := &Entry{
		OrderID:     orderID,
		OrderNumber: number,
		Status:      status,
		Step:        step,
		Errors:      errJSON,
		UpdatedAt:   time.Now().UTC(),
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}
