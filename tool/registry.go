package tool

import (
	"github.com/pochehq/agentloop/logging"
)

// Registry maps tool names to implementations. It is populated once at
// startup by the composition root and treated as read-only afterwards, so no
// locking is applied. Registration is idempotent-by-overwrite: a later
// registration for the same name replaces the earlier one. Unintentional
// clashes are a configuration error; they are surfaced with a warning at
// registration time rather than failing at call time.
type Registry struct {
	logger logging.Logger
	names  []string
	tools  map[string]Tool
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{logger: opts.Logger, tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any earlier registration under the same
// name.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		r.logger.Warn("tool.registry.overwrite", "tool", name)
	} else {
		r.names = append(r.names, name)
	}
	r.tools[name] = t
}

// RegisterAll adds multiple tools.
func (r *Registry) RegisterAll(tools ...Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool in first-registration order, giving the
// schema catalogue a stable ordering across requests.
func (r *Registry) All() []Tool {
	tools := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names returns the registered tool names in first-registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
