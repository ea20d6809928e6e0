package tefz

// LabelTable is a fixed-capacity registry mapping a small integer index to a
// human-readable string. Event names, categories, and argument keys are all
// label indices, so the hot path never allocates or hashes strings.
//
// Registration is NOT safe concurrently with goroutines reading the table.
// Register every label before multi-goroutine tracing begins.
type LabelTable struct {
	labels [256]string
}

// Register stores text at the given slot, overwriting any previous entry.
func (t *LabelTable) Register(index uint8, text string) {
	t.labels[index] = text
}

// Label resolves an index to its registered string.
// Unregistered slots resolve to the empty string.
func (t *LabelTable) Label(index uint8) string {
	return t.labels[index]
}
