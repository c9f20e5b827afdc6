// Package catalog holds the static registry of MarketPulse operations
// exposed as MCP tools. Each entry pairs a public ToolSummary (what remote
// callers see) with a private OperationBinding (how the gateway reaches the
// upstream API); the two are joined by tool name and the binding never
// leaks into the public schema.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/quartzlabs/marketpulse-mcp/internal/common"
)

// maxCatalogSize is the maximum allowed size for a catalog document (1MB).
const maxCatalogSize = 1 << 20

// allowedMethods is the whitelist of HTTP methods for catalog operations.
var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
}

// ParameterLocation tags where a parameter is placed on the outbound request.
type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InBody   ParameterLocation = "body"
)

// ParameterSpec describes one parameter of an operation.
type ParameterSpec struct {
	Name     string            `json:"name"`
	In       ParameterLocation `json:"in"`
	Required bool              `json:"required"`
}

// RequestBodySpec describes the request-body requirement of an operation.
type RequestBodySpec struct {
	Required    bool   `json:"required"`
	ContentType string `json:"content_type"`
}

// ToolSummary is the public face of an operation: what list-tools returns.
type ToolSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// OperationBinding is the private HTTP side of an operation. It is consumed
// by the argument mapper and never exposed to remote callers.
type OperationBinding struct {
	Method       string           `json:"method"`
	PathTemplate string           `json:"path"`
	Parameters   []ParameterSpec  `json:"params"`
	RequestBody  *RequestBodySpec `json:"request_body,omitempty"`
}

// entry joins the two halves of one operation.
type entry struct {
	summary ToolSummary
	binding OperationBinding
}

// Catalog is the immutable operation registry, ordered as declared.
type Catalog struct {
	order   []string
	entries map[string]entry
}

// operationDoc is the wire format of one catalog document entry.
type operationDoc struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema json.RawMessage  `json:"input_schema"`
	Method      string           `json:"method"`
	Path        string           `json:"path"`
	Params      []ParameterSpec  `json:"params"`
	RequestBody *RequestBodySpec `json:"request_body,omitempty"`
}

// Load reads a catalog document from the given path. An empty path loads
// the bundled default catalog.
func Load(path string, logger *common.Logger) (*Catalog, error) {
	if path == "" {
		return Default(logger)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data, logger)
}

// Default parses the catalog bundled with the binary.
func Default(logger *common.Logger) (*Catalog, error) {
	return Parse(defaultCatalog, logger)
}

// Parse decodes and validates a catalog document. Invalid or duplicate
// entries are skipped with a logged warning; they indicate a defect in the
// catalog producer, not a runtime error.
func Parse(data []byte, logger *common.Logger) (*Catalog, error) {
	if len(data) > maxCatalogSize {
		return nil, fmt.Errorf("catalog document too large: %d bytes (max %d)", len(data), maxCatalogSize)
	}

	var docs []operationDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog document: %w", err)
	}

	c := &Catalog{entries: make(map[string]entry, len(docs))}
	for _, doc := range docs {
		if err := validateOperation(doc); err != nil {
			logger.Warn().Str("error", err.Error()).Msg("skipping invalid catalog operation")
			continue
		}
		if _, dup := c.entries[doc.Name]; dup {
			logger.Warn().Str("name", doc.Name).Msg("skipping duplicate catalog operation")
			continue
		}

		schema := doc.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object","properties":{}}`)
		}

		c.order = append(c.order, doc.Name)
		c.entries[doc.Name] = entry{
			summary: ToolSummary{
				Name:        doc.Name,
				Description: doc.Description,
				InputSchema: schema,
			},
			binding: OperationBinding{
				Method:       strings.ToUpper(doc.Method),
				PathTemplate: doc.Path,
				Parameters:   doc.Params,
				RequestBody:  doc.RequestBody,
			},
		}
	}

	return c, nil
}

// validateOperation validates a single catalog document entry.
func validateOperation(doc operationDoc) error {
	if doc.Name == "" {
		return fmt.Errorf("operation has empty name")
	}
	if doc.Method == "" {
		return fmt.Errorf("operation %q has empty method", doc.Name)
	}
	if !allowedMethods[strings.ToUpper(doc.Method)] {
		return fmt.Errorf("operation %q has unsupported method %q", doc.Name, doc.Method)
	}
	if doc.Path == "" {
		return fmt.Errorf("operation %q has empty path", doc.Name)
	}
	if !strings.HasPrefix(doc.Path, "/") {
		return fmt.Errorf("operation %q has invalid path %q (must start with /)", doc.Name, doc.Path)
	}
	if strings.Contains(doc.Path, "..") {
		return fmt.Errorf("operation %q has invalid path %q (contains ..)", doc.Name, doc.Path)
	}

	// Every {name} placeholder must be covered by a path-located parameter.
	for _, placeholder := range pathPlaceholders(doc.Path) {
		found := false
		for _, p := range doc.Params {
			if p.In == InPath && p.Name == placeholder {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("operation %q path placeholder {%s} has no path parameter", doc.Name, placeholder)
		}
	}

	for _, p := range doc.Params {
		switch p.In {
		case InPath, InQuery, InHeader, InBody:
		default:
			return fmt.Errorf("operation %q parameter %q has unknown location %q", doc.Name, p.Name, p.In)
		}
	}

	if len(doc.InputSchema) > 0 {
		if err := compileSchema(doc.InputSchema); err != nil {
			return fmt.Errorf("operation %q has invalid input schema: %w", doc.Name, err)
		}
	}

	return nil
}

// compileSchema checks that an input schema is valid JSON Schema.
func compileSchema(schema json.RawMessage) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schema)); err != nil {
		return err
	}
	_, err := compiler.Compile("schema.json")
	return err
}

// pathPlaceholders extracts {name} placeholders from a path template.
func pathPlaceholders(path string) []string {
	var names []string
	for {
		open := strings.Index(path, "{")
		if open < 0 {
			return names
		}
		close := strings.Index(path[open:], "}")
		if close < 0 {
			return names
		}
		names = append(names, path[open+1:open+close])
		path = path[open+close+1:]
	}
}

// Lookup returns the binding for a tool name.
func (c *Catalog) Lookup(name string) (OperationBinding, bool) {
	e, ok := c.entries[name]
	return e.binding, ok
}

// Summary returns the public summary for a tool name.
func (c *Catalog) Summary(name string) (ToolSummary, bool) {
	e, ok := c.entries[name]
	return e.summary, ok
}

// Summaries returns all public tool summaries in catalog order.
func (c *Catalog) Summaries() []ToolSummary {
	out := make([]ToolSummary, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name].summary)
	}
	return out
}

// Len returns the number of operations in the catalog.
func (c *Catalog) Len() int {
	return len(c.order)
}
