// Package databricks implements provider.Provider for Databricks model
// serving endpoints, which speak the OpenAI-compatible Chat Completions
// protocol under <host>/serving-endpoints.
package databricks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rhuss/omotenashi/pkg/provider"
	"github.com/rhuss/omotenashi/pkg/provider/openaicompat"
)

// ChatPath is the chat completions path below the workspace host.
const ChatPath = "/serving-endpoints/chat/completions"

// Config holds configuration for the Databricks provider adapter.
type Config struct {
	// Host is the workspace URL (e.g., "https://adb-123.azuredatabricks.net").
	Host string

	// Token is the personal access or service principal token.
	Token string

	// Endpoint is the serving endpoint name. It is sent as the model.
	Endpoint string

	// Timeout for non-streaming HTTP requests, and the longest a stream may
	// stay silent before it is abandoned. Defaults to 120s.
	Timeout time.Duration
}

// Configured reports whether host, token and endpoint are all set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.Host) != "" &&
		strings.TrimSpace(c.Token) != "" &&
		strings.TrimSpace(c.Endpoint) != ""
}

// Provider implements provider.Provider for a Databricks serving endpoint.
type Provider struct {
	cfg    Config
	client *openaicompat.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Provider. It returns an error when the configuration
// is incomplete.
func New(cfg Config) (*Provider, error) {
	if !cfg.Configured() {
		return nil, errors.New("databricks: host, token and endpoint are required")
	}

	client := openaicompat.NewClient(cfg.Host, cfg.Token, cfg.Timeout)
	client.ChatPath = ChatPath

	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "databricks"
}

// Endpoint returns the serving endpoint name used as the model.
func (p *Provider) Endpoint() string {
	return p.cfg.Endpoint
}

// URL returns the chat completions URL requests are sent to.
func (p *Provider) URL() string {
	return p.client.URL()
}

// Complete performs one non-streaming completion.
func (p *Provider) Complete(ctx context.Context, req *provider.Request) (*provider.CompletionResult, error) {
	return p.client.Complete(ctx, p.withModel(req))
}

// Stream performs a streaming completion.
func (p *Provider) Stream(ctx context.Context, req *provider.Request) (<-chan provider.StreamEvent, error) {
	return p.client.Stream(ctx, p.withModel(req))
}

// Close releases provider resources.
func (p *Provider) Close() error {
	return p.client.Close()
}

// withModel fills in the endpoint name when the caller left Model empty.
func (p *Provider) withModel(req *provider.Request) *provider.Request {
	if req.Model != "" {
		return req
	}
	reqCopy := *req
	reqCopy.Model = p.cfg.Endpoint
	return &reqCopy
}
