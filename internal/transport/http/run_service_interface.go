package http

import (
	"context"

	"salesetl/internal/services"
	api "salesetl/pkg/contracts/api/v1"
)

// RunService is what the run handlers need from the pipeline service
type RunService interface {
	Run(ctx context.Context, req api.RunRequest) (*services.RunRecord, error)
	Latest() (*services.RunRecord, bool)
}
