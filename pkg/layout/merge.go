package layout

import "reflect"

// Merge combines the current data of a layout with a freshly hydrated result.
//
// The order of the rules matters:
//  1. overwrite, or exactly one side is a sequence: incoming replaces existing
//  2. both sequences: existing followed by incoming (pagination)
//  3. both string-keyed maps: shallow merge, incoming wins on collisions
//  4. anything else: incoming replaces existing
//
// A nil incoming value keeps existing. Neither argument is mutated.
func Merge(existing, incoming any, overwrite bool) any {
	if incoming == nil {
		return existing
	}
	exSeq, inSeq := isSequence(existing), isSequence(incoming)
	if overwrite || exSeq != inSeq {
		return incoming
	}
	if exSeq {
		return concat(existing, incoming)
	}
	if isRecord(existing) && isRecord(incoming) {
		return mergeRecords(existing, incoming)
	}
	return incoming
}

func concat(existing, incoming any) any {
	if a, ok := existing.([]any); ok {
		if b, ok := incoming.([]any); ok {
			out := make([]any, 0, len(a)+len(b))
			out = append(out, a...)
			return append(out, b...)
		}
	}

	ev, iv := reflect.ValueOf(existing), reflect.ValueOf(incoming)
	if ev.Kind() == reflect.Slice && ev.Type() == iv.Type() {
		out := reflect.MakeSlice(ev.Type(), 0, ev.Len()+iv.Len())
		out = reflect.AppendSlice(out, ev)
		return reflect.AppendSlice(out, iv).Interface()
	}

	// Mixed element types (or arrays) degrade to []any.
	out := make([]any, 0, ev.Len()+iv.Len())
	for i := 0; i < ev.Len(); i++ {
		out = append(out, ev.Index(i).Interface())
	}
	for i := 0; i < iv.Len(); i++ {
		out = append(out, iv.Index(i).Interface())
	}
	return out
}

func mergeRecords(existing, incoming any) any {
	if a, ok := existing.(map[string]any); ok {
		if b, ok := incoming.(map[string]any); ok {
			out := make(map[string]any, len(a)+len(b))
			for k, v := range a {
				out[k] = v
			}
			for k, v := range b {
				out[k] = v
			}
			return out
		}
	}

	ev, iv := reflect.ValueOf(existing), reflect.ValueOf(incoming)
	if ev.Type() == iv.Type() {
		out := reflect.MakeMapWithSize(ev.Type(), ev.Len()+iv.Len())
		copyMap(out, ev)
		copyMap(out, iv)
		return out.Interface()
	}

	out := make(map[string]any, ev.Len()+iv.Len())
	for _, src := range []reflect.Value{ev, iv} {
		iter := src.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
	}
	return out
}

func copyMap(dst, src reflect.Value) {
	iter := src.MapRange()
	for iter.Next() {
		dst.SetMapIndex(iter.Key(), iter.Value())
	}
}
