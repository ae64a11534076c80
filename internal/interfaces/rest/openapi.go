package rest

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

//go:embed openapi.json
var openAPIDocument []byte

type apiDoc struct{}

func (apiDoc) ReadDoc() string { return string(openAPIDocument) }

var registerDocOnce sync.Once

// RegisterDocs makes the API document available through swag.ReadDoc.
func RegisterDocs() {
	registerDocOnce.Do(func() {
		swag.Register(swag.Name, apiDoc{})
	})
}

// LoadSpec parses and validates the embedded API document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load api document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid api document: %w", err)
	}
	return doc, nil
}
