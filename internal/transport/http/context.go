package http

import (
	"context"

	"salesetl/internal/services"
)

func contextWithRun(ctx context.Context, record *services.RunRecord) context.Context {
	return context.WithValue(ctx, latestRunKey{}, record)
}

func runFromContext(ctx context.Context) *services.RunRecord {
	record, _ := ctx.Value(latestRunKey{}).(*services.RunRecord)
	return record
}
