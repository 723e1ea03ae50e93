// Package index provides access to the scanned code element index.
//
// The index is a JSON document written by an external scanner
// (conventionally .coderef/index.json). It describes every discovered code
// construct together with its location and relationship metadata. This
// package normalizes the scanner's schema variants into a single Element
// shape with the "missing means empty" contract made explicit.
package index

import (
	"encoding/json"
	"fmt"
)

// ElementType classifies a scanned code construct.
type ElementType string

const (
	TypeFunction  ElementType = "function"
	TypeMethod    ElementType = "method"
	TypeClass     ElementType = "class"
	TypeInterface ElementType = "interface"
	TypeType      ElementType = "type"
	TypeDecorator ElementType = "decorator"
	TypeVariable  ElementType = "variable"
	TypeUnknown   ElementType = "unknown"
)

// Parameter describes one declared parameter of an element.
//
// Scanners emit parameters either as bare strings ("ctx") or as objects
// ({"name": "ctx", "type": "Context"}); both forms decode into the same
// shape.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// UnmarshalJSON accepts both the string and the object scanner variants.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		p.Name = name
		p.Type = ""
		return nil
	}

	type parameter Parameter
	var obj parameter
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parameter must be a string or an object: %w", err)
	}
	*p = Parameter(obj)
	return nil
}

// Element is a single scanned code construct.
//
// Name is the traversal key. It is not guaranteed unique across files; when
// several elements share a name, the first occurrence in index order is the
// one addressed by analyses (see graph.Build).
type Element struct {
	Name    string      `json:"name"`
	File    string      `json:"file"`
	Line    int         `json:"line"`
	EndLine int         `json:"end_line,omitempty"`
	Type    ElementType `json:"type"`

	Parameters   []Parameter `json:"parameters,omitempty"`
	Dependencies []string    `json:"dependencies,omitempty"`
	CalledBy     []string    `json:"calledBy,omitempty"`

	Complexity     int            `json:"complexity,omitempty"`
	DynamicImports []string       `json:"dynamicImports,omitempty"`
	Imports        []string       `json:"imports,omitempty"`
	Exports        []string       `json:"exports,omitempty"`
	Decorators     []string       `json:"decorators,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EstimatedLines returns the element's line span. When the scanner did not
// record an end line the span is unknown and a fixed estimate of 10 lines
// is used.
const defaultLineEstimate = 10

func (e *Element) EstimatedLines() int {
	if e.EndLine <= 0 || e.EndLine < e.Line {
		return defaultLineEstimate
	}
	return e.EndLine - e.Line
}

// normalize applies the defaulting contract: unknown type, empty slices for
// absent relationship fields. The element is otherwise left as scanned.
func (e *Element) normalize() {
	if e.Type == "" {
		e.Type = TypeUnknown
	}
	if e.Parameters == nil {
		e.Parameters = []Parameter{}
	}
	if e.Dependencies == nil {
		e.Dependencies = []string{}
	}
	if e.CalledBy == nil {
		e.CalledBy = []string{}
	}
}
