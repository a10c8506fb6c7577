package bptree

import "os"

// Options represents the configuration options for the B+ tree index.
type Options struct {
	// Degree is the maximum number of children per internal node. Zero
	// picks the largest degree a page can hold for the key width. Only
	// used when the index file is created.
	Degree int

	// NodeCacheSize is the number of decoded nodes kept in memory. Zero
	// disables the cache.
	NodeCacheSize int64

	FileMode os.FileMode
}

var defaultOptions = Options{
	Degree:        0,
	NodeCacheSize: 1024,
	FileMode:      0644,
}

// ScanFn receives entries in key order. Returning true stops the scan.
type ScanFn[K any] func(e Entry[K]) (bool, error)
