package adapter

import (
	"log/slog"
	"time"

	"github.com/recondesk-dev/recondesk/internal/model"
)

// Registry selects the matching adapter for a file. First CanHandle wins, so
// registration order is significant.
type Registry struct {
	adapters []Adapter
	log      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{log: log}
}

// Register appends an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Default returns a registry with all built-in adapters.
func Default(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := NewRegistry(log)
	r.Register(NewLedgerAdapter(log))
	r.Register(NewStripeAdapter(log))
	r.Register(NewBraintreeAdapter(log))
	r.Register(NewNMIAdapter("chesapeake", log))
	r.Register(NewNMIAdapter("cliq", log))
	r.Register(NewNMIAdapter("esquire", log))
	return r
}

// ForFile returns the first adapter that recognizes the file, or nil.
func (r *Registry) ForFile(path string) Adapter {
	for _, a := range r.adapters {
		if a.CanHandle(path) {
			return a
		}
	}
	return nil
}

// ParseFile parses one file with its matching adapter. Unrecognized files and
// adapter failures degrade to an empty event list with a warning; a missing
// or malformed extract must never fail the whole reconciliation.
func (r *Registry) ParseFile(path string, target time.Time) []model.NormalizedEvent {
	a := r.ForFile(path)
	if a == nil {
		r.log.Warn("no adapter recognizes file", "path", path)
		return nil
	}
	events, err := a.Parse(path, target)
	if err != nil {
		r.log.Warn("adapter failed, treating file as empty", "path", path, "source", a.Source(), "error", err)
		return nil
	}
	return events
}

// ParseFiles parses many files, concatenating events in input order.
func (r *Registry) ParseFiles(paths []string, target time.Time) []model.NormalizedEvent {
	var all []model.NormalizedEvent
	for _, p := range paths {
		all = append(all, r.ParseFile(p, target)...)
	}
	return all
}
