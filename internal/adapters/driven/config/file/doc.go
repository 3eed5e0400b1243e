// Package file provides the TOML configuration store.
//
// Keys are addressed in dot notation ("chunk.size") and written back as
// nested TOML tables:
//
//	[chunk]
//	size = 800
//
// The file is created with 0600 permissions because it may hold API keys.
package file
