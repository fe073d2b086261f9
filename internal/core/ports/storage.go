package ports

// DocumentStore is a generic read-modify-write document store backing the
// ledger and the wallet pool. Load never fails: an absent, empty or
// unparseable backing file yields the configured default. Save serializes
// the whole document and overwrites the backing file (write-through).
type DocumentStore[T any] interface {
	Load() T
	Save(doc T) error
}
