package har

// SnapshotOptions selects which part of an archive becomes a timing snapshot.
type SnapshotOptions struct {
	// PageID picks a page by id (empty = first page)
	PageID string
	// IncludeHosts specifies which hosts to include (empty = all hosts)
	IncludeHosts []string
	// ExcludeHosts specifies which hosts to exclude
	ExcludeHosts []string
}

// DefaultOptions returns SnapshotOptions that convert the first page with
// every host included.
func DefaultOptions() SnapshotOptions {
	return SnapshotOptions{}
}
