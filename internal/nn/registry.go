package nn

import (
	"errors"
	"fmt"
	"sort"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
	ErrActivationVersion  = errors.New("activation version mismatch")
)

type ActivationFunc func(x float64) float64

type ActivationSpec struct {
	Name          string
	Func          ActivationFunc
	SchemaVersion int
	CodecVersion  int
}

// Spec wraps fn in an ActivationSpec at the supported versions.
func Spec(name string, fn ActivationFunc) ActivationSpec {
	return ActivationSpec{
		Name:          name,
		Func:          fn,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	}
}

// Registry maps activation names to functions. It is built once and never
// modified afterwards, so one instance can be shared by every component.
type Registry struct {
	fns map[string]ActivationFunc
}

func NewRegistry(specs ...ActivationSpec) (*Registry, error) {
	fns := make(map[string]ActivationFunc, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, errors.New("activation name is required")
		}
		if spec.Func == nil {
			return nil, fmt.Errorf("activation function is required: %s", spec.Name)
		}
		if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
			return nil, fmt.Errorf("%w: %s schema=%d codec=%d", ErrActivationVersion, spec.Name, spec.SchemaVersion, spec.CodecVersion)
		}
		if _, exists := fns[spec.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
		}
		fns[spec.Name] = spec.Func
	}
	return &Registry{fns: fns}, nil
}

func MustNewRegistry(specs ...ActivationSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry holds the base activations plus the CPPN pattern set.
func DefaultRegistry() *Registry {
	specs := append(BaseActivations(), PatternActivations()...)
	return MustNewRegistry(specs...)
}

func (r *Registry) Get(name string) (ActivationFunc, error) {
	fn, ok := r.fns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return fn, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.fns[name]
	return ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
