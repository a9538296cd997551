// Package host provides the capability registry and request dispatcher.
package host

import (
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// table is the ordered handler table of one capability class.
type table struct {
	order     []protocol.Descriptor
	index     map[string]int
	templates []resourceTemplate
}

type resourceTemplate struct {
	pos  int
	tmpl *uritemplate.Template
}

// Registry stores registered capabilities and provides lookup.
//
// Registration happens during bootstrap only. Once sealed the registry is
// read-only and safe to share between goroutines without locking.
type Registry struct {
	tables map[protocol.Class]*table
	sealed bool
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	r := &Registry{tables: make(map[protocol.Class]*table, len(protocol.Classes))}
	for _, c := range protocol.Classes {
		r.tables[c] = &table{index: make(map[string]int)}
	}
	return r
}

// Register adds a capability to the registry.
func (r *Registry) Register(class protocol.Class, name string, schema protocol.Schema, handler protocol.HandlerFunc, opts ...protocol.Option) error {
	if r.sealed {
		return protocol.ErrRegistrySealed
	}
	t, ok := r.tables[class]
	if !ok {
		return &protocol.InvalidArgumentError{Param: "class", Reason: "unknown class '" + string(class) + "'"}
	}
	if strings.TrimSpace(name) == "" {
		return &protocol.InvalidArgumentError{Param: "name", Reason: "capability name is required"}
	}
	if handler == nil {
		return &protocol.InvalidArgumentError{Param: "handler", Reason: "handler is required for " + string(class) + " '" + name + "'"}
	}
	if _, exists := t.index[name]; exists {
		return &protocol.DuplicateNameError{Class: class, Name: name}
	}

	d := protocol.Descriptor{
		Class:   class,
		Name:    name,
		Schema:  schema.Clone(),
		Handler: handler,
	}
	for _, opt := range opts {
		opt(&d)
	}

	var tmpl *uritemplate.Template
	if class == protocol.ClassResource && isTemplate(name) {
		var err error
		tmpl, err = uritemplate.New(name)
		if err != nil {
			return &protocol.InvalidArgumentError{Param: "name", Reason: "invalid resource template: " + err.Error()}
		}
	}

	t.index[name] = len(t.order)
	t.order = append(t.order, d)
	if tmpl != nil {
		t.templates = append(t.templates, resourceTemplate{pos: len(t.order) - 1, tmpl: tmpl})
	}
	return nil
}

// Seal closes registration. It is idempotent.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether registration is closed.
func (r *Registry) Sealed() bool { return r.sealed }

// Resolve returns the descriptor registered under name in class.
func (r *Registry) Resolve(class protocol.Class, name string) (protocol.Descriptor, error) {
	t, ok := r.tables[class]
	if !ok {
		return protocol.Descriptor{}, &protocol.NotFoundError{Class: class, Name: name}
	}
	i, ok := t.index[name]
	if !ok {
		return protocol.Descriptor{}, &protocol.NotFoundError{Class: class, Name: name}
	}
	return t.order[i], nil
}

// MatchResource finds the first resource template, in registration order,
// that matches uri and returns its descriptor with the extracted variables.
func (r *Registry) MatchResource(uri string) (protocol.Descriptor, map[string]string, bool) {
	t := r.tables[protocol.ClassResource]
	for _, rt := range t.templates {
		values := rt.tmpl.Match(uri)
		if values == nil {
			continue
		}
		vars := make(map[string]string, len(values))
		for _, name := range rt.tmpl.Varnames() {
			vars[name] = values.Get(name).String()
		}
		return t.order[rt.pos], vars, true
	}
	return protocol.Descriptor{}, nil, false
}

// List returns a snapshot of the descriptors of class in registration order.
func (r *Registry) List(class protocol.Class) []protocol.Descriptor {
	t, ok := r.tables[class]
	if !ok {
		return nil
	}
	out := make([]protocol.Descriptor, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of capabilities registered in class.
func (r *Registry) Len(class protocol.Class) int {
	if t, ok := r.tables[class]; ok {
		return len(t.order)
	}
	return 0
}

// IsTemplate reports whether a resource name is a URI template.
func IsTemplate(name string) bool { return isTemplate(name) }

func isTemplate(name string) bool {
	return strings.Contains(name, "{") && strings.Contains(name, "}")
}
