package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/quartzlabs/marketpulse-mcp/internal/common"
	"github.com/quartzlabs/marketpulse-mcp/internal/config"
	"github.com/quartzlabs/marketpulse-mcp/internal/mapper"
)

func testClient(serverURL string) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: "30s",
	}, common.NewSilentLogger())
}

func TestClient_Do_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/v3/domains/example.com/backlinks" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("Expected limit=10, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer credential, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Expected Accept application/json, got %q", got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "marketpulse-mcp/") {
			t.Errorf("Unexpected User-Agent: %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"total": 3})
	}))
	defer mockServer.Close()

	req := &mapper.OutboundRequest{
		Method:  http.MethodGet,
		Path:    "/v3/domains/example.com/backlinks",
		Query:   url.Values{"limit": []string{"10"}},
		Headers: http.Header{},
	}
	resp, err := testClient(mockServer.URL).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Errorf("Expected success, got status %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "total") {
		t.Errorf("Unexpected body: %s", resp.Body)
	}
	if resp.ContentType != "application/json" {
		t.Errorf("Unexpected content type: %s", resp.ContentType)
	}
}

func TestClient_Do_SendsJSONBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]interface{}
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Errorf("Request body is not valid JSON: %v", err)
		}
		if decoded["report_type"] != "rankings" {
			t.Errorf("Expected report_type=rankings, got %v", decoded)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer mockServer.Close()

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	req := &mapper.OutboundRequest{
		Method:  http.MethodPost,
		Path:    "/v3/campaigns/c-1/reports",
		Query:   url.Values{},
		Headers: headers,
		Body:    map[string]interface{}{"report_type": "rankings"},
	}
	resp, err := testClient(mockServer.URL).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("Expected 201, got %d", resp.Status)
	}
}

func TestClient_Do_HTTPFailureIsNotAnError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "domain not found"})
	}))
	defer mockServer.Close()

	req := &mapper.OutboundRequest{
		Method:  http.MethodGet,
		Path:    "/v3/domains/missing.example/overview",
		Query:   url.Values{},
		Headers: http.Header{},
	}
	resp, err := testClient(mockServer.URL).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Non-2xx must not be a transport error, got: %v", err)
	}
	if resp.OK() {
		t.Error("Expected failure outcome for 404")
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "domain not found") {
		t.Errorf("Expected error body preserved, got %s", resp.Body)
	}
}

func TestClient_Do_NetworkFailureIsAnError(t *testing.T) {
	req := &mapper.OutboundRequest{
		Method:  http.MethodGet,
		Path:    "/v3/campaigns",
		Query:   url.Values{},
		Headers: http.Header{},
	}
	resp, err := testClient("http://localhost:1").Do(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error when upstream is unreachable")
	}
	if resp != nil {
		t.Errorf("Expected nil response on network failure, got %v", resp)
	}
}

func TestClient_Do_AuthorizationOverridesMappedHeader(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Process credential must win, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer mockServer.Close()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer caller-supplied")
	req := &mapper.OutboundRequest{
		Method:  http.MethodGet,
		Path:    "/v3/campaigns",
		Query:   url.Values{},
		Headers: headers,
	}
	if _, err := testClient(mockServer.URL).Do(context.Background(), req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestClient_Do_PreservesMultiValueHeaders(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Values("X-Proxy-Region")
		if len(got) != 2 || got[0] != "eu-west" || got[1] != "us-east" {
			t.Errorf("Expected both header values forwarded, got %v", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer mockServer.Close()

	headers := http.Header{}
	headers.Add("X-Proxy-Region", "eu-west")
	headers.Add("X-Proxy-Region", "us-east")
	req := &mapper.OutboundRequest{
		Method:  http.MethodGet,
		Path:    "/v3/local/rankings",
		Query:   url.Values{},
		Headers: headers,
	}
	if _, err := testClient(mockServer.URL).Do(context.Background(), req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(config.UpstreamConfig{
		BaseURL: "https://api.marketpulse.io/",
		APIKey:  "k",
	}, common.NewSilentLogger())
	if c.BaseURL() != "https://api.marketpulse.io" {
		t.Errorf("Expected trailing slash trimmed, got %q", c.BaseURL())
	}
}
