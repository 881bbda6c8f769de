// Package dsl provides a fluent API for constructing task trees in Go,
// mirroring what the YAML compiler produces. It is the embedder-facing way
// to define workflows without a document.
package dsl
