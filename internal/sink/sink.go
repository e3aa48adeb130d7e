// Package sink defines where output records go and a registry of sink
// implementations. Implementations register themselves in init; import them
// for side effects to make them available by name.
package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Sink receives the records of one run. Open is called once before the
// first Write and Close once after the last.
type Sink interface {
	Name() string
	Open(ctx context.Context) error
	Write(ctx context.Context, rec *core.OutputRecord) error
	Close(ctx context.Context) error
}

// Options is what a factory gets to build a sink for one run.
type Options struct {
	ID       string // experiment id, names the output artifact
	Dir      string
	Inspect  bool
	Settings config.SinksConfig
}

// Columns returns the column layout the sink should write.
func (o Options) Columns() []core.Column {
	return core.Layout(o.Inspect)
}

// Factory creates a sink.
type Factory func(opts Options) (Sink, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register makes a sink available under name. Registering a name twice
// replaces the earlier factory.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = f
}

// New creates the sink registered under name.
func New(name string, opts Options) (Sink, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", core.ErrSinkNotFound, name, Names())
	}
	return f(opts)
}

// Names lists registered sinks in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document renders a record as a flat map keyed by column header. Empty
// cells are left out, so consumers never see a placeholder for "unknown".
func Document(cols []core.Column, rec *core.OutputRecord) map[string]any {
	doc := make(map[string]any, len(cols)+1)
	doc["line"] = rec.Line
	for _, c := range cols {
		if v := c.Value(rec); v != "" {
			doc[c.Header] = v
		}
	}
	return doc
}
