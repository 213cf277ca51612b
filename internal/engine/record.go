package engine

import "slices"

// Record is the write-once key/value store threaded through a pipeline run.
//
// Keys are never updated or deleted. A Record is owned by a single run and
// is not safe for concurrent use.
type Record struct {
	values map[string]any
	order  []string
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// NewRecordFrom creates a record pre-seeded with the given values.
// Seed keys are inserted in sorted order so Keys is deterministic.
func NewRecordFrom(seed map[string]any) *Record {
	r := NewRecord()
	keys := make([]string, 0, len(seed))
	for k := range seed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		r.values[k] = seed[k]
		r.order = append(r.order, k)
	}
	return r
}

// Get returns the value stored under key, or KEY_NOT_FOUND.
func (r *Record) Get(key string) (any, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, NewKeyNotFoundError(key)
	}
	return v, nil
}

// Number returns the value under key as a finite number. An absent key is
// KEY_NOT_FOUND; a present key holding anything else is NON_NUMERIC_VALUE.
func (r *Record) Number(key string) (float64, error) {
	v, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	f, err := ValidNumber(v)
	if err != nil {
		return 0, NewNonNumericValueError(key, v)
	}
	return f, nil
}

// Set stores value under key. Writing a key that is already present fails
// with KEY_ALREADY_DEFINED and leaves the existing value untouched.
func (r *Record) Set(key string, value any) error {
	if _, ok := r.values[key]; ok {
		return NewKeyAlreadyDefinedError(key)
	}
	r.values[key] = value
	r.order = append(r.order, key)
	return nil
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns keys in insertion order.
func (r *Record) Keys() []string {
	return slices.Clone(r.order)
}

// Len returns the number of keys. A nil record has none.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Snapshot returns a shallow copy of the record contents.
func (r *Record) Snapshot() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
