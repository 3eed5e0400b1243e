// Package connectors provides the sources documents are read from.
// The only connector is filesystem, which walks and watches a local
// directory tree.
package connectors
