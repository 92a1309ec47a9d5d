package batch

import "context"

// Dedupe returns the distinct keys in first-seen order.
func Dedupe[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// IndexScalar keeps the first record per requested key. Records for keys that were not
// requested are dropped, so the result's keys are always a subset of keys.
func IndexScalar[K comparable, V any](keys []K, values []V, keyOf func(V) K) map[K]V {
	requested := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		requested[k] = struct{}{}
	}

	out := make(map[K]V, len(values))
	for _, v := range values {
		k := keyOf(v)
		if _, ok := requested[k]; !ok {
			continue
		}
		if _, dup := out[k]; dup {
			continue
		}
		out[k] = v
	}
	return out
}

// IndexGrouping buckets records by their correlating key. Every requested key is present,
// with an empty slice when nothing matched.
func IndexGrouping[K comparable, V any](keys []K, values []V, groupKeyOf func(V) K) map[K][]V {
	out := make(map[K][]V, len(keys))
	for _, k := range keys {
		out[k] = []V{}
	}

	for _, v := range values {
		k := groupKeyOf(v)
		bucket, ok := out[k]
		if !ok {
			continue
		}
		out[k] = append(bucket, v)
	}
	return out
}

// FetchOrdered performs one fetch for the distinct ids and returns the records in the order
// of ids. Ids the downstream service did not return are dropped, so the result may be
// shorter than ids.
func FetchOrdered[K comparable, V any](ctx context.Context, ids []K, fetch FetchFunc[K, V], keyOf func(V) K) ([]V, error) {
	if len(ids) == 0 {
		return []V{}, nil
	}

	keys := Dedupe(ids)
	values, err := fetch(ctx, keys)
	if err != nil {
		return nil, err
	}

	byKey := IndexScalar(keys, values, keyOf)

	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if v, ok := byKey[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
