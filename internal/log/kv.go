package log

import "sort"

// KV represents a set of key-value pairs to be attached to a log entry.
type KV map[string]any

// kvToArgs flattens the given KV maps into the alternating key-value
// slice that slog expects. Keys within each map are emitted in sorted
// order so log output stays deterministic.
func kvToArgs(keyVals ...KV) []any {
	args := []any{}

	for _, kv := range keyVals {
		keys := make([]string, 0, len(kv))
		for key := range kv {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			args = append(args, key, kv[key])
		}
	}

	return args
}

// kvToArgsNs behaves like kvToArgs but prepends the namespace as the
// first key-value pair.
func kvToArgsNs(namespace string, keyVals ...KV) []any {
	args := []any{"ns", namespace}
	return append(args, kvToArgs(keyVals...)...)
}
