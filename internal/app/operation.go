package app

// StoreOperation tracks a CLI operation that may mutate the remote store.
// Operations are created in memory with ID=0; only store-mutating commands
// persist them (giving them an auto-increment ID from the catalog).
type StoreOperation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string // "success" or "error"
}

// NewStoreOperation creates a new in-memory operation record.
func NewStoreOperation(name, parameters string) *StoreOperation {
	return &StoreOperation{
		Name:       name,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the catalog.
func (op *StoreOperation) Persisted() bool {
	return op.ID != 0
}
