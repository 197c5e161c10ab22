package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/layouts/pkg/adapters/process"
	"github.com/aretw0/layouts/pkg/adapters/rest"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
)

type staticArgs struct {
	Value any `mapstructure:"value"`
}

// staticHydrator always resolves to a fresh copy of args.value.
func staticHydrator(args map[string]any) (layout.Hydrator, error) {
	var a staticArgs
	if err := Decode(args, &a); err != nil {
		return nil, err
	}
	return func(context.Context, ...any) (any, error) {
		return layout.Clone(a.Value), nil
	}, nil
}

// echoHydrator resolves to the dependency data as a list.
func echoHydrator(args map[string]any) (layout.Hydrator, error) {
	if err := Decode(args, &struct{}{}); err != nil {
		return nil, err
	}
	return func(_ context.Context, deps ...any) (any, error) {
		out := make([]any, len(deps))
		for i, d := range deps {
			out[i] = layout.Clone(d)
		}
		return out, nil
	}, nil
}

func httpHydrator(opts []rest.Option) HydratorFactory {
	return func(args map[string]any) (layout.Hydrator, error) {
		var cfg rest.Config
		if err := Decode(args, &cfg); err != nil {
			return nil, err
		}
		return rest.New(cfg, opts...)
	}
}

type processArgs struct {
	Tool string `mapstructure:"tool" validate:"required"`
}

func processHydrator(runner *process.Runner) HydratorFactory {
	return func(args map[string]any) (layout.Hydrator, error) {
		var a processArgs
		if err := Decode(args, &a); err != nil {
			return nil, err
		}
		return runner.Hydrator(a.Tool)
	}
}

type pickArgs struct {
	Path string `mapstructure:"path" validate:"required"`
}

// pickTransform selects a nested value of the response. Missing paths yield nil.
func pickTransform(args map[string]any) (func(any) any, error) {
	var a pickArgs
	if err := Decode(args, &a); err != nil {
		return nil, err
	}
	if err := layout.ValidatePath(a.Path); err != nil {
		return nil, err
	}
	return func(v any) any {
		out, _ := layout.GetPath(v, a.Path)
		return out
	}, nil
}

type wrapArgs struct {
	Field string `mapstructure:"field" validate:"required"`
}

func wrapTransform(args map[string]any) (func(any) any, error) {
	var a wrapArgs
	if err := Decode(args, &a); err != nil {
		return nil, err
	}
	return func(v any) any {
		return map[string]any{a.Field: v}
	}, nil
}

type statusArgs struct {
	Status  int    `mapstructure:"status" validate:"omitempty,min=100,max=599"`
	Message string `mapstructure:"message"`
}

// statusErrorTransform lifts any error into a domain.Error, optionally forcing
// the status and prefixing the message.
func statusErrorTransform(args map[string]any) (func(error) error, error) {
	var a statusArgs
	if err := Decode(args, &a); err != nil {
		return nil, err
	}
	return func(err error) error {
		src := domain.AsError(err)
		status := src.Status
		if a.Status != 0 {
			status = a.Status
		}
		msg := src.Message
		if a.Message != "" {
			msg = fmt.Sprintf("%s: %s", a.Message, msg)
		}
		return domain.NewError(status, msg, err)
	}, nil
}
