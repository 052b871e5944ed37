package resource

import "fmt"

// Builder constructs a typed child resource from its raw fields.
type Builder[T any] func(Fields) (T, error)

// HydrateList builds one child per element of the array at key, in source
// order. An absent or null key yields an empty result.
func HydrateList[T any](f Fields, key string, build Builder[T]) ([]T, error) {
	items, err := f.list(key)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		child, err := build(item)
		if err != nil {
			return nil, fmt.Errorf("hydrating %s[%d]: %w", key, i, err)
		}
		out = append(out, child)
	}
	return out, nil
}

// HydrateOne builds a child from the object at key. The boolean is false when
// the key is absent or null.
func HydrateOne[T any](f Fields, key string, build Builder[T]) (T, bool, error) {
	var zero T

	obj, ok, err := f.object(key)
	if err != nil || !ok {
		return zero, false, err
	}

	child, err := build(obj)
	if err != nil {
		return zero, false, fmt.Errorf("hydrating %s: %w", key, err)
	}
	return child, true, nil
}
