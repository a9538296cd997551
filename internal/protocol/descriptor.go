package protocol

import (
	"context"
	"encoding/json"
)

// HandlerFunc is the contract collaborators implement. It receives validated
// arguments and returns a JSON-representable payload or an error whose
// message is shown to the client.
type HandlerFunc func(ctx context.Context, args Arguments) (any, error)

// Descriptor describes one registered capability. It is created at
// registration time and never modified afterwards.
type Descriptor struct {
	Class       Class
	Name        string
	Title       string
	Description string
	// MIMEType is the content type of a resource payload.
	MIMEType string
	Schema   Schema
	Handler  HandlerFunc
}

// Option customises a Descriptor during registration.
type Option func(*Descriptor)

// WithTitle sets a human-readable title.
func WithTitle(title string) Option {
	return func(d *Descriptor) { d.Title = title }
}

// WithDescription sets the discovery description.
func WithDescription(desc string) Option {
	return func(d *Descriptor) { d.Description = desc }
}

// WithMIMEType sets the payload content type of a resource.
func WithMIMEType(mime string) Option {
	return func(d *Descriptor) { d.MIMEType = mime }
}

type descriptorJSON struct {
	Class       Class           `json:"class"`
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// MarshalJSON renders the discovery form of the descriptor. The handler is
// never serialized.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	schema, err := json.Marshal(d.Schema.JSONSchema())
	if err != nil {
		return nil, err
	}
	return json.Marshal(descriptorJSON{
		Class:       d.Class,
		Name:        d.Name,
		Title:       d.Title,
		Description: d.Description,
		MIMEType:    d.MIMEType,
		InputSchema: schema,
	})
}
