package protocol

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// TypeTag is the declared type of a parameter.
type TypeTag string

const (
	TypeString  TypeTag = "string"
	TypeInteger TypeTag = "integer"
	TypeNumber  TypeTag = "number"
	TypeBoolean TypeTag = "boolean"
	TypeObject  TypeTag = "object"
	TypeArray   TypeTag = "array"
	TypeAny     TypeTag = "any"
)

// Param declares one named input of a handler.
type Param struct {
	Name        string
	Type        TypeTag
	Required    bool
	Description string
	// Default is applied when an optional parameter is absent.
	Default any
}

// Schema is the ordered parameter list of a handler.
type Schema struct {
	Params []Param
	// AllowExtra accepts arguments that no Param declares.
	AllowExtra bool
}

// Lookup returns the parameter with the given name.
func (s Schema) Lookup(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Clone returns a copy that shares no slices with s.
func (s Schema) Clone() Schema {
	params := make([]Param, len(s.Params))
	copy(params, s.Params)
	return Schema{Params: params, AllowExtra: s.AllowExtra}
}

// JSONSchema renders the schema as a JSON Schema object for discovery.
func (s Schema) JSONSchema() *jsonschema.Schema {
	out := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(s.Params)),
	}
	for _, p := range s.Params {
		prop := &jsonschema.Schema{Description: p.Description}
		if p.Type != TypeAny && p.Type != "" {
			prop.Type = string(p.Type)
		}
		if p.Default != nil {
			if raw, err := json.Marshal(p.Default); err == nil {
				prop.Default = raw
			}
		}
		out.Properties[p.Name] = prop
		if p.Required {
			out.Required = append(out.Required, p.Name)
		}
	}
	if !s.AllowExtra {
		out.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	return out
}

// String, Int, Number, Bool, Object, Array and Any are shorthands for
// building parameter lists.

func String(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeString, Required: required, Description: desc}
}

func Int(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeInteger, Required: required, Description: desc}
}

func Number(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeNumber, Required: required, Description: desc}
}

func Bool(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeBoolean, Required: required, Description: desc}
}

func Object(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeObject, Required: required, Description: desc}
}

func Array(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeArray, Required: required, Description: desc}
}

func Any(name, desc string, required bool) Param {
	return Param{Name: name, Type: TypeAny, Required: required, Description: desc}
}

// WithDefault returns a copy of p with a default value.
func (p Param) WithDefault(v any) Param {
	p.Default = v
	return p
}

// Params builds a closed Schema from the given parameters.
func Params(params ...Param) Schema {
	return Schema{Params: params}
}
