package engine

import (
	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/store"
)

// New builds the evaluation cycle for a validated config.
func New(cfg *store.Config, brk interfaces.Broker) interfaces.Engine {
	return newEngine(cfg, brk)
}
