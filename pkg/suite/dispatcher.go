package suite

import (
	"context"
	"log/slog"
)

// Dispatcher routes candidate calls to registered handlers and collects the
// trace used for narration.
type Dispatcher struct {
	registry Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
	}
}

// Dispatch runs every candidate in order. Malformed candidates are dropped,
// unknown functions are kept verbatim, and a handler error stops the run.
// The returned trace lists contributions in candidate order.
func (d *Dispatcher) Dispatch(ctx context.Context, r *Round, candidates []string) ([]string, error) {
	trace := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		call, ok := ParseCall(candidate)
		if !ok {
			continue
		}

		h, known := d.registry.Lookup(call.FunctionName)
		if !known {
			trace = append(trace, call.Raw)
			continue
		}

		d.logger.Debug("Simulation suite call", "call", call.Raw, "function_name", call.FunctionName)
		entry, contributes, err := h.Handle(ctx, r, call)
		if err != nil {
			return trace, err
		}
		if contributes && entry != "" {
			trace = append(trace, entry)
		}
	}
	return trace, nil
}
