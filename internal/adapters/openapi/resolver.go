package openapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is a resolved OpenAPI operation ready to be called over HTTP.
type Operation struct {
	Method string
	URL    string
}

// Resolver maps (document, operationId) pairs onto concrete HTTP
// operations for call tasks of type "openapi". Parsed documents are cached
// per location.
type Resolver struct {
	mu   sync.Mutex
	docs map[string]*openapi3.T
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{docs: make(map[string]*openapi3.T)}
}

// Resolve loads the document (file path or URL) and finds the operation by
// its operationId, joining the document's first server URL with the
// operation path.
func (r *Resolver) Resolve(ctx context.Context, document, operationID string) (Operation, error) {
	doc, err := r.load(ctx, document)
	if err != nil {
		return Operation{}, err
	}

	var base string
	if len(doc.Servers) > 0 {
		base = strings.TrimSuffix(doc.Servers[0].URL, "/")
	}

	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == operationID {
				return Operation{Method: method, URL: base + path}, nil
			}
		}
	}
	return Operation{}, fmt.Errorf("operation %q not found in %s", operationID, document)
}

func (r *Resolver) load(ctx context.Context, document string) (*openapi3.T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[document]; ok {
		return doc, nil
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	var doc *openapi3.T
	var err error
	if strings.HasPrefix(document, "http://") || strings.HasPrefix(document, "https://") {
		var uri *url.URL
		uri, err = url.Parse(document)
		if err == nil {
			doc, err = loader.LoadFromURI(uri)
		}
	} else {
		doc, err = loader.LoadFromFile(document)
	}
	if err != nil {
		return nil, fmt.Errorf("load openapi document %s: %w", document, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document %s: %w", document, err)
	}

	r.docs[document] = doc
	return doc, nil
}
