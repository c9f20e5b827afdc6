package catalog

import _ "embed"

// defaultCatalog is the operation catalog bundled with the binary,
// generated from the MarketPulse v3 OpenAPI document.
//
//go:embed catalog.json
var defaultCatalog []byte
