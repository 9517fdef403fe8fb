package repository

// SingleKeyed is the capability contract for models addressed by one key.
// WithDocumentKey returns a copy of the model carrying the given key, which
// lets Add assign a generated key without mutating the caller's value.
type SingleKeyed[T any, K comparable] interface {
	DocumentKey() K
	WithDocumentKey(key K) T
}

// DualKeyed is the capability contract for models addressed by a two-part
// composite key. Callers must supply both parts; no generation is attempted.
type DualKeyed[K1, K2 comparable] interface {
	DocumentKeys() (K1, K2)
}

// TripleKeyed is the capability contract for models addressed by a
// three-part composite key.
type TripleKeyed[K1, K2, K3 comparable] interface {
	DocumentKeys() (K1, K2, K3)
}
