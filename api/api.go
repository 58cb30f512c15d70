// Package api содержит OpenAPI-спецификацию, которую отдаёт /swagger.
package api

import _ "embed"

// OpenAPISpec - встроенный openapi.json.
//
//go:embed openapi.json
var OpenAPISpec []byte
