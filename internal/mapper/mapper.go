// Package mapper turns an operation binding plus untyped call arguments
// into a fully-formed outbound request description. Mapping is pure: no
// network, no config, no side effects — the same inputs always produce the
// same request or the same validation failure.
package mapper

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/quartzlabs/marketpulse-mcp/internal/catalog"
)

// jsonContentType is the default Content-Type when an operation carries a
// body but declares no explicit media type.
const jsonContentType = "application/json"

// RequestBodyArg is the reserved argument key holding a pre-built body
// payload. A map seed is merged with body-located parameters; any other
// shape is sent as-is and body-located parameters do not apply to it.
const RequestBodyArg = "requestBody"

// ValidationKind classifies a mapping failure.
type ValidationKind string

const (
	MissingParameter ValidationKind = "missing_parameter"
	MissingBody      ValidationKind = "missing_body"
)

// ValidationError reports why mapping aborted. Name holds the offending
// parameter for MissingParameter failures.
type ValidationError struct {
	Kind ValidationKind
	Name string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingBody:
		return "request body is required but no body argument was supplied"
	default:
		return fmt.Sprintf("%s parameter is required", e.Name)
	}
}

// OutboundRequest describes one upstream HTTP call, ready for the invoker.
// Built fresh per call and never shared.
type OutboundRequest struct {
	Method  string
	Path    string // placeholders substituted, values percent-encoded
	Query   url.Values
	Headers http.Header
	Body    interface{} // nil when the operation carries no body
}

// lowercaseExempt lists parameter names whose string values are lower-cased
// before use. The upstream API is case-sensitive on these fields and callers
// commonly supply mixed case ("US" for "us").
var lowercaseExempt = map[string]bool{
	"us_state":     true,
	"country":      true,
	"country_code": true,
}

// Map builds an OutboundRequest from a binding and raw arguments, or fails
// with a ValidationError. A missing required parameter anywhere aborts the
// whole mapping before any request is issued.
func Map(binding catalog.OperationBinding, args map[string]interface{}) (*OutboundRequest, *ValidationError) {
	req := &OutboundRequest{
		Method:  binding.Method,
		Path:    binding.PathTemplate,
		Query:   url.Values{},
		Headers: http.Header{},
	}
	req.Headers.Set("Accept", jsonContentType)

	if seed, ok := args[RequestBodyArg]; ok && seed != nil {
		req.Body = seed
	}

	for _, spec := range binding.Parameters {
		value, present := args[spec.Name]
		if !present || value == nil {
			if spec.Required {
				return nil, &ValidationError{Kind: MissingParameter, Name: spec.Name}
			}
			continue
		}

		value = normalize(spec.Name, value)

		switch spec.In {
		case catalog.InPath:
			placeholder := "{" + spec.Name + "}"
			req.Path = strings.ReplaceAll(req.Path, placeholder, url.PathEscape(fmt.Sprint(value)))
		case catalog.InQuery:
			req.Query.Set(spec.Name, fmt.Sprint(value))
		case catalog.InHeader:
			req.Headers.Set(spec.Name, fmt.Sprint(value))
		case catalog.InBody:
			if req.Body == nil {
				req.Body = map[string]interface{}{}
			}
			// Body parameters merge into map bodies only. A non-map
			// requestBody seed (array, scalar) is the whole payload and
			// passes through untouched.
			if m, ok := req.Body.(map[string]interface{}); ok {
				m[spec.Name] = value
			}
		}
	}

	// Body finalization: a populated body always gets a Content-Type, even
	// when the operation declares no request-body metadata.
	if req.Body != nil {
		contentType := jsonContentType
		if binding.RequestBody != nil && binding.RequestBody.ContentType != "" {
			contentType = binding.RequestBody.ContentType
		}
		req.Headers.Set("Content-Type", contentType)
	} else if binding.RequestBody != nil && binding.RequestBody.Required {
		return nil, &ValidationError{Kind: MissingBody}
	}

	return req, nil
}

// normalize applies the case-sensitivity rule for market identifier fields.
func normalize(name string, value interface{}) interface{} {
	if !lowercaseExempt[name] {
		return value
	}
	if s, ok := value.(string); ok {
		return strings.ToLower(s)
	}
	return value
}
