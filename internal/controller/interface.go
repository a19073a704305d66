package controller

import (
	"context"

	"github.com/mattjoyce/redistq/internal/admission"
	"github.com/mattjoyce/redistq/internal/content"
)

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks github.com/mattjoyce/redistq/internal/controller Backend

// Backend is the content-management backend as seen by the dispatch loop.
// Implemented by cmclient; mocked in tests.
type Backend interface {
	// DistributionStatus returns a fresh point-in-time snapshot of the
	// backend's per-content distribution counters.
	DistributionStatus(ctx context.Context) (admission.Snapshot, error)

	// DeploymentTypeNames returns the deployment type names of an
	// application, in backend order. Fails with a NotFound error when the
	// application is unknown.
	DeploymentTypeNames(ctx context.Context, appName string) ([]string, error)

	// BeginDistribution asks the backend to start redistributing one piece
	// of content. The call is synchronous to issue; distribution itself
	// completes asynchronously and is only observable through
	// DistributionStatus. deploymentType is empty for non-application kinds.
	BeginDistribution(ctx context.Context, kind content.Kind, id, deploymentType string) error
}

// Sink receives every controller state transition for durable audit.
// Implemented by the SQLite journal. Record must not fail the loop; sinks
// swallow and log their own errors.
type Sink interface {
	Record(ctx context.Context, eventType string, data map[string]any)
}
