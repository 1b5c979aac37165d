package interfaces

import (
	"context"

	"dynamic-dca-bot/internal/types"
)

type Engine interface {
	Step(ctx context.Context) (*types.StepResult, error)
}
