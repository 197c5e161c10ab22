package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/layouts/pkg/adapters/process"
	"github.com/aretw0/layouts/pkg/adapters/rest"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// HydratorFactory builds a hydrator from the arguments of a workflow document.
type HydratorFactory func(args map[string]any) (layout.Hydrator, error)

// TransformFactory builds a response transform.
type TransformFactory func(args map[string]any) (func(any) any, error)

// ErrorTransformFactory builds an error transform.
type ErrorTransformFactory func(args map[string]any) (func(error) error, error)

// Registry manages the producer kinds a workflow document can reference.
type Registry struct {
	mu              sync.RWMutex
	hydrators       map[string]HydratorFactory
	transforms      map[string]TransformFactory
	errorTransforms map[string]ErrorTransformFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hydrators:       make(map[string]HydratorFactory),
		transforms:      make(map[string]TransformFactory),
		errorTransforms: make(map[string]ErrorTransformFactory),
	}
}

// NewDefault creates a registry holding the built-in kinds.
// restOpts are passed to every "http" hydrator.
func NewDefault(restOpts ...rest.Option) *Registry {
	r := NewRegistry()
	r.RegisterHydrator("static", staticHydrator)
	r.RegisterHydrator("echo", echoHydrator)
	r.RegisterHydrator("http", httpHydrator(restOpts))
	r.RegisterTransform("pick", pickTransform)
	r.RegisterTransform("wrap", wrapTransform)
	r.RegisterErrorTransform("status", statusErrorTransform)
	return r
}

// RegisterProcess enables the "process" hydrator kind, running the tools
// allow-listed by runner. Documents name a tool with args.tool.
func (r *Registry) RegisterProcess(runner *process.Runner) {
	r.RegisterHydrator("process", processHydrator(runner))
}

// RegisterHydrator adds a hydrator kind. An existing kind is overwritten.
func (r *Registry) RegisterHydrator(kind string, f HydratorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hydrators[kind] = f
}

// RegisterFunc registers a hydrator that takes no arguments.
func (r *Registry) RegisterFunc(kind string, fn layout.Hydrator) {
	r.RegisterHydrator(kind, func(map[string]any) (layout.Hydrator, error) {
		return fn, nil
	})
}

// RegisterTransform adds a response transform kind.
func (r *Registry) RegisterTransform(kind string, f TransformFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[kind] = f
}

// RegisterErrorTransform adds an error transform kind.
func (r *Registry) RegisterErrorTransform(kind string, f ErrorTransformFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorTransforms[kind] = f
}

// Hydrator builds a hydrator of the given kind.
func (r *Registry) Hydrator(kind string, args map[string]any) (layout.Hydrator, error) {
	r.mu.RLock()
	f, ok := r.hydrators[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("hydrator not found: %s", kind)
	}
	return f(args)
}

// Transform builds a response transform of the given kind.
func (r *Registry) Transform(kind string, args map[string]any) (func(any) any, error) {
	r.mu.RLock()
	f, ok := r.transforms[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("transform not found: %s", kind)
	}
	return f(args)
}

// ErrorTransform builds an error transform of the given kind.
func (r *Registry) ErrorTransform(kind string, args map[string]any) (func(error) error, error) {
	r.mu.RLock()
	f, ok := r.errorTransforms[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("error transform not found: %s", kind)
	}
	return f(args)
}

// Kinds lists the registered kinds per category, sorted.
func (r *Registry) Kinds() (hydrators, transforms, errorTransforms []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.hydrators), sortedKeys(r.transforms), sortedKeys(r.errorTransforms)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode maps args onto out (a pointer to a struct with mapstructure tags)
// and validates the result. Unknown arguments are rejected.
func Decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid args: %w", err)
	}
	return nil
}
