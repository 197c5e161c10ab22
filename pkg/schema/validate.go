package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the structure of doc and the consistency of its graph:
// every dependency and every step layout must exist and dependencies must not
// form a cycle. All problems are reported at once as an *AggregateError.
func Validate(doc *Document) error {
	var c collector
	if err := validate.Struct(doc); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) {
			return err
		}
		for _, fe := range fields {
			c.add(fieldKey(fe), reason(fe), nil)
		}
	}

	keys := make([]string, 0, len(doc.Layouts))
	for k := range doc.Layouts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, dep := range doc.Layouts[key].Deps {
			if dep == key {
				c.add("layouts."+key+".deps", "layout depends on itself", nil)
				continue
			}
			if _, ok := doc.Layouts[dep]; !ok && dep != "" {
				c.add("layouts."+key+".deps", "unknown layout", dep)
			}
		}
	}
	for i, step := range doc.Steps {
		for _, l := range step.Hydrates {
			if _, ok := doc.Layouts[l]; !ok && l != "" {
				c.add(fmt.Sprintf("steps[%d].hydrates", i), "unknown layout", l)
			}
		}
	}
	if cycle := findCycle(doc.Layouts, keys); cycle != nil {
		c.add("layouts", "dependency cycle "+strings.Join(cycle, " -> "), nil)
	}
	return c.err()
}

// findCycle returns the first dependency cycle found, closed on its first element.
func findCycle(layouts map[string]LayoutSpec, keys []string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(layouts))
	var stack []string

	var visit func(k string) []string
	visit = func(k string) []string {
		state[k] = visiting
		stack = append(stack, k)
		for _, dep := range layouts[k].Deps {
			if dep == k {
				continue
			}
			if _, ok := layouts[dep]; !ok {
				continue
			}
			switch state[dep] {
			case visiting:
				for i, s := range stack {
					if s == dep {
						return append(append([]string(nil), stack[i:]...), dep)
					}
				}
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[k] = done
		return nil
	}

	for _, k := range keys {
		if state[k] == unvisited {
			if cycle := visit(k); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// fieldKey drops the root struct name from the validator namespace.
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "unique":
		return fmt.Sprintf("%s values must be unique", strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
