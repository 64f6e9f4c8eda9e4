package docs

import _ "embed"

// AsyncAPISpec describes the widget live feed.
//
//go:embed asyncapi.yaml
var AsyncAPISpec []byte
