package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort defines the activity operations available to other modules.
type ActivityPort interface {
	Stats(ctx context.Context) (Stats, error)
}

// ActivityAdapter implements ActivityPort using the service container.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	if container == nil {
		panic("activity: ServiceContainer is nil")
	}
	return &ActivityAdapter{container: container}
}

// Stats returns the current activity counters.
func (a *ActivityAdapter) Stats(ctx context.Context) (Stats, error) {
	req := StatsRequest{}
	var resp StatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return resp.Stats, nil
}
