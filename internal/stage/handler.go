package stage

import (
	"context"

	"docket/internal/queue"
)

// Handler describes the contract the triage processor needs from each
// pipeline stage. Prepare validates inputs cheaply; Execute does the work and
// mutates the item; HealthCheck reports readiness for daemon status output.
type Handler interface {
	Name() string
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
