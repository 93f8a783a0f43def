// Package api carries the OpenAPI contract for the instance server.
package api

import _ "embed"

// Spec is the raw OpenAPI document. The HTTP adapter serves it at
// /openapi.yaml and the contract tests validate handlers against it.
//
//go:embed openapi.yaml
var Spec []byte
