// Package catalog loads the list of applications saveli knows about.
//
// A built-in catalog is embedded in the binary. Users can extend or
// override it with their own YAML file; entries from that file are marked
// Custom and win over built-in entries with the same id.
package catalog
