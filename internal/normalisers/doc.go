// Package normalisers extracts text from raw documents. Each subpackage
// handles one format; Registry dispatches on MIME type.
package normalisers
