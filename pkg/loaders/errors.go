package loaders

import "fmt"

// Resource kinds reported by LoadError
const (
	KindModel   = "model"
	KindTexture = "texture"
)

// LoadError reports a model or texture that could not be loaded. Callers
// log it and continue with the resource slot left empty.
type LoadError struct {
	Kind string // KindModel or KindTexture
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
