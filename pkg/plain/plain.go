// Package plain provides deep copy, deep merge and serialization helpers for
// plain key/value state: maps with string keys, slices, and scalar leaves.
package plain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// IsUndefined reports whether v is a nil interface or a nil pointer. Nil
// maps, slices and funcs are values.
func IsUndefined(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// IsEmpty reports whether v carries no value: a nil interface or a nil
// pointer, map, slice, func, channel or interface.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// CloneMap returns a deep copy of m. A nil map clones to an empty map.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Clone returns a deep copy of v. Maps, slices, arrays and pointers are
// copied recursively; other values are returned as they are.
func Clone(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t
	}
	return cloneValue(reflect.ValueOf(v)).Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), v.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneElem(v.Elem(), v.Type().Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(cloneElem(v.Field(i), v.Type().Field(i).Type))
		}
		return out
	}
	return v
}

// cloneElem copies an element and converts it back to the container's
// element type, unwrapping interface values on the way.
func cloneElem(v reflect.Value, elemType reflect.Type) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(elemType)
		}
		return reflect.ValueOf(Clone(v.Elem().Interface())).Convert(elemType)
	}
	return cloneValue(v)
}

// Merge deep-merges src into dst. Nested maps are merged key by key, []any
// values are merged by position, and everything else in src overwrites dst
// with a deep copy.
func Merge(dst, src map[string]any) {
	for k, sv := range src {
		dst[k] = mergeValue(dst[k], sv)
	}
}

func mergeValue(dv, sv any) any {
	switch s := sv.(type) {
	case map[string]any:
		if d, ok := dv.(map[string]any); ok && d != nil {
			Merge(d, s)
			return d
		}
		return CloneMap(s)
	case []any:
		if d, ok := dv.([]any); ok {
			for i, item := range s {
				if i < len(d) {
					d[i] = mergeValue(d[i], item)
				} else {
					d = append(d, Clone(item))
				}
			}
			return d
		}
	}
	return Clone(sv)
}

// Snapshot serializes m into a comparable string. JSON is used so that map
// keys come out sorted; values JSON cannot encode fall back to fmt's
// Go-syntax representation.
func Snapshot(m map[string]any) string {
	if m == nil {
		return "null"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%#v", m)
	}
	return string(data)
}
