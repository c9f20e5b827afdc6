// Package translate converts raw upstream outcomes into MCP result envelopes.
// Every outcome — success, HTTP failure, network failure, or anything
// unrecognized — yields a well-formed envelope; nothing propagates as an
// unhandled fault.
package translate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quartzlabs/marketpulse-mcp/internal/mcperr"
	"github.com/quartzlabs/marketpulse-mcp/internal/upstream"
)

// Result translates one upstream outcome into a result envelope.
// err carries network-level failures (no response received); resp carries
// everything that produced an HTTP status.
func Result(resp *upstream.Response, err error) *mcp.CallToolResult {
	switch {
	case err != nil:
		return failureEnvelope(mcperr.Internal("%s", err.Error()))
	case resp == nil:
		return failureEnvelope(mcperr.Internal("unknown internal error"))
	case resp.OK():
		return successEnvelope(resp)
	default:
		return failureEnvelope(mapHTTPFailure(resp))
	}
}

// successEnvelope renders a 2xx response as a single text content item.
// Structured (JSON) payloads are pretty-printed; everything else passes
// through as its plain string form.
func successEnvelope(resp *upstream.Response) *mcp.CallToolResult {
	text := string(resp.Body)
	if isJSONContentType(resp.ContentType) {
		var decoded interface{}
		if json.Unmarshal(resp.Body, &decoded) == nil {
			if pretty, err := json.MarshalIndent(decoded, "", "  "); err == nil {
				text = string(pretty)
			}
		}
	}
	return mcp.NewToolResultText(text)
}

// mapHTTPFailure maps a non-2xx response to a protocol error kind with a
// best-effort human-readable message.
func mapHTTPFailure(resp *upstream.Response) *mcperr.Error {
	message := extractMessage(resp.Body)

	switch resp.Status {
	case 400:
		if message == "" {
			message = "invalid request parameters"
		}
		return mcperr.InvalidParams("%s", message)
	case 404:
		if message == "" {
			message = "resource not found"
		}
		return mcperr.MethodNotFound("%s", message)
	case 408:
		if message == "" {
			message = "upstream request timed out"
		}
		return mcperr.RequestTimeout("%s", message)
	case 500, 502, 503, 504:
		if message == "" {
			message = "upstream server error"
		}
		return mcperr.Internal("%s (status %d)", message, resp.Status)
	default:
		if message == "" {
			return mcperr.Internal("request failed with status %d", resp.Status)
		}
		return mcperr.Internal("%s (request failed with status %d)", message, resp.Status)
	}
}

// extractMessage pulls a human-readable message out of an error body,
// checking the error, message, and detail fields in order.
func extractMessage(body []byte) string {
	var decoded struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(body, &decoded) != nil {
		return ""
	}
	switch {
	case decoded.Error != "":
		return decoded.Error
	case decoded.Message != "":
		return decoded.Message
	case decoded.Detail != "":
		return decoded.Detail
	}
	return ""
}

// failureEnvelope builds an isError envelope carrying the mapped error's
// message as text plus the structured error for programmatic consumers.
func failureEnvelope(e *mcperr.Error) *mcp.CallToolResult {
	result := mcp.NewToolResultError(fmt.Sprintf("Error: %s", e.Message))
	result.Meta = mcp.NewMetaFromMap(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    e.Code,
			"kind":    e.KindString(),
			"message": e.Message,
		},
	})
	return result
}

// isJSONContentType reports whether a Content-Type header indicates a
// structured JSON-like payload (application/json, application/problem+json).
func isJSONContentType(contentType string) bool {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
