//go:build tools

// Tool dependencies tracked in go.mod. swag generates the OpenAPI document
// served behind the swagger build tag.
package main

import (
	_ "github.com/swaggo/swag/cmd/swag"
)
