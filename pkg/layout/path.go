package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a data path is malformed or crosses a value
// that is neither a map nor a list.
var ErrInvalidPath = errors.New("invalid path")

// maxPathIndex bounds list growth through SetPath.
const maxPathIndex = 1 << 16

type segment struct {
	key     string
	index   int
	isIndex bool
}

// parsePath accepts dotted paths with optional bracket indexes: "spec.replicas",
// "items[0].name" and "items.0.name" are all valid.
func parsePath(path string) ([]segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	normalized := strings.ReplaceAll(strings.ReplaceAll(path, "[", "."), "]", "")
	parts := strings.Split(normalized, ".")

	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		seg := segment{key: part}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			seg.index = n
			seg.isIndex = true
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// ValidatePath reports whether path is well formed.
func ValidatePath(path string) error {
	_, err := parsePath(path)
	return err
}

// SetPath returns a copy of root with value stored at path. Containers along the
// path are copied, missing ones are created (a list when the segment is an index).
// root is never mutated.
func SetPath(root any, path string, value any) (any, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return setIn(root, segs, value, path)
}

func setIn(node any, segs []segment, value any, path string) (any, error) {
	if len(segs) == 0 {
		return value, nil
	}
	seg, rest := segs[0], segs[1:]

	switch c := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		for k, v := range c {
			out[k] = v
		}
		child, err := setIn(c[seg.key], rest, value, path)
		if err != nil {
			return nil, err
		}
		out[seg.key] = child
		return out, nil

	case []any:
		if !seg.isIndex {
			return nil, fmt.Errorf("%w: %q is not a list index in %q", ErrInvalidPath, seg.key, path)
		}
		if seg.index >= maxPathIndex {
			return nil, fmt.Errorf("%w: index %d out of range in %q", ErrInvalidPath, seg.index, path)
		}
		size := len(c)
		if seg.index >= size {
			size = seg.index + 1
		}
		out := make([]any, size)
		copy(out, c)
		child, err := setIn(out[seg.index], rest, value, path)
		if err != nil {
			return nil, err
		}
		out[seg.index] = child
		return out, nil

	case nil:
		if seg.isIndex {
			return setIn([]any{}, segs, value, path)
		}
		return setIn(map[string]any{}, segs, value, path)

	default:
		return nil, fmt.Errorf("%w: cannot traverse %T at %q in %q", ErrInvalidPath, node, seg.key, path)
	}
}

// GetPath reads the value at path, reporting whether it exists.
func GetPath(root any, path string) (any, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	node := root
	for _, seg := range segs {
		switch c := node.(type) {
		case map[string]any:
			v, ok := c[seg.key]
			if !ok {
				return nil, false
			}
			node = v
		case []any:
			if !seg.isIndex || seg.index >= len(c) {
				return nil, false
			}
			node = c[seg.index]
		default:
			return nil, false
		}
	}
	return node, true
}
