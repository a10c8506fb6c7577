package table

import "os"

// Options represents the configuration options for the table.
type Options struct {
	FileMode os.FileMode

	// NodeCacheSize is passed to every index tree of the table.
	NodeCacheSize int64

	// IndexDegree overrides the branching factor of new index trees.
	// Zero lets each tree pick the largest degree a page can hold.
	IndexDegree int
}

var DefaultOptions = Options{
	FileMode:      0644,
	NodeCacheSize: 1024,
}
