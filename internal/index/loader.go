package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultIndexPath is the conventional location of the scanner output,
// relative to the repository root.
const DefaultIndexPath = ".coderef/index.json"

// ErrNotFound indicates the index file does not exist. Callers should treat
// it as "system misconfigured" (run the scanner first), distinct from an
// element-not-found query result.
var ErrNotFound = errors.New("index file not found")

// ErrMalformed indicates the index file exists but could not be understood:
// either the JSON does not parse or the document matches neither the flat
// array nor the {"elements": [...]} shape. A malformed index is never
// silently treated as empty.
var ErrMalformed = errors.New("malformed index")

// legacyDocument is the nested shape produced by older scanners.
type legacyDocument struct {
	Elements []Element `json:"elements"`
}

// Load reads and normalizes the element index at path.
//
// The document may be a flat JSON array of elements or the legacy
// {"elements": [...]} object; both decode to the same order-preserving
// element sequence. Missing optional fields are defaulted, not errored.
func Load(path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}

	return Parse(data, path)
}

// Parse decodes an index document. The path is used only for error context.
func Parse(data []byte, path string) ([]Element, error) {
	// Flat array is the current scanner output. A JSON null decodes into a
	// nil slice; that is not a recognized shape, so fall through to the
	// legacy check rather than treating it as an empty index.
	var elements []Element
	if err := json.Unmarshal(data, &elements); err == nil && elements != nil {
		return normalizeAll(elements), nil
	}

	// Legacy nested object.
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if doc.Elements == nil {
		return nil, fmt.Errorf("%w: %s: document is neither an element array nor an object with an \"elements\" key", ErrMalformed, path)
	}

	return normalizeAll(doc.Elements), nil
}

func normalizeAll(elements []Element) []Element {
	for i := range elements {
		elements[i].normalize()
	}
	return elements
}
