package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanreath/strata/api"
	"github.com/lanreath/strata/internal/logging"
	"github.com/lanreath/strata/pkg/adapters/memory"
	"github.com/lanreath/strata/pkg/session"
)

// TestOpenAPISpecIsValid parses and validates the embedded contract.
func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(api.Spec)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(loader.Context))

	assert.Equal(t, "Strata Instance API", doc.Info.Title)
}

// TestRouterServesDocumentedOperations walks the chi router and checks
// every operation the contract documents has a matching route. Chi and
// OpenAPI share the {id} placeholder syntax, so patterns compare
// directly.
func TestRouterServesDocumentedOperations(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(api.Spec)
	require.NoError(t, err)

	srv := &Server{
		manager: session.NewManager(toggleDef(), memory.New()),
		logger:  logging.NewNop(),
	}

	served := make(map[string]bool)
	err = chi.Walk(srv.routes(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route != "/" {
			route = strings.TrimSuffix(route, "/")
		}
		served[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			key := method + " " + path
			assert.True(t, served[key], "documented operation %s has no route", key)
		}
	}
}
