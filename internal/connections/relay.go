// internal/connections/relay.go
package connections

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/session"
)

var customLog = logger.NewLogger()

var (
	ErrNoConnection   = errors.New("profile has no external connection")
	ErrInvalidRequest = errors.New("invalid connection request")
	ErrUpstream       = errors.New("external connection request failed")
	ErrHandshake      = errors.New("mcp handshake failed")
)

// MCPSessionHeader carries the session id an MCP server hands out on initialize.
const MCPSessionHeader = "Mcp-Session-Id"

const maxResponseBytes = 5 * 1024 * 1024

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Request is one call relayed to a profile's external connection.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// Response is what the external service answered. Non-JSON bodies are returned as a JSON string.
type Response struct {
	StatusCode   int               `json:"status_code"`
	Headers      map[string]string `json:"headers"`
	Body         json.RawMessage   `json:"body"`
	DurationMs   int64             `json:"duration_ms"`
	MCPSessionID string            `json:"mcp_session_id,omitempty"`
}

// Relay forwards requests to the HTTP endpoint configured on a session's profile.
type Relay struct {
	client *http.Client
}

// NewRelay returns a relay whose requests time out after timeout.
func NewRelay(timeout time.Duration) *Relay {
	return &Relay{client: &http.Client{Timeout: timeout}}
}

// Do relays req to the session profile's connection.
func (r *Relay) Do(ctx context.Context, sc *session.Context, req Request) (*Response, error) {
	conn := sc.Profile.Connection
	if conn == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrNoConnection, sc.Profile.Name)
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !allowedMethods[method] {
		return nil, fmt.Errorf("%w: method %q not allowed", ErrInvalidRequest, req.Method)
	}
	return r.send(ctx, conn, method, req.Path, req.Headers, req.Body)
}

// MCP relays a JSON-RPC payload to the connection's MCP server. The first call on a
// session performs the initialize handshake and keeps the returned session id.
func (r *Relay) MCP(ctx context.Context, sc *session.Context, payload json.RawMessage) (*Response, error) {
	sc.Lock()
	defer sc.Unlock()

	conn := sc.Profile.Connection
	if conn == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrNoConnection, sc.Profile.Name)
	}
	if len(bytes.TrimSpace(payload)) == 0 || !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload must be a JSON-RPC message", ErrInvalidRequest)
	}

	if sc.MCPSessionID == "" {
		id, err := r.initialize(ctx, conn)
		if err != nil {
			return nil, err
		}
		sc.MCPSessionID = id
		customLog.Printf("Connections: Session %s opened MCP session %s", sc.ID, id)
	}

	headers := map[string]string{MCPSessionHeader: sc.MCPSessionID}
	resp, err := r.send(ctx, conn, http.MethodPost, "/", headers, payload)
	if err != nil {
		return nil, err
	}
	// The server forgot us; the next call starts a new handshake.
	if resp.StatusCode == http.StatusNotFound {
		sc.MCPSessionID = ""
	}
	resp.MCPSessionID = sc.MCPSessionID
	return resp, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

func (r *Relay) initialize(ctx context.Context, conn *config.Connection) (string, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      "init-" + uuid.NewString(),
		Method:  string(mcp.MethodInitialize),
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "nebula-forms", Version: "1.0.0"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	resp, err := r.send(ctx, conn, http.MethodPost, "/", nil, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: initialize returned status %d", ErrHandshake, resp.StatusCode)
	}
	id := resp.Headers[MCPSessionHeader]
	if id == "" {
		return "", fmt.Errorf("%w: no session id returned by server", ErrHandshake)
	}
	return id, nil
}

func (r *Relay) send(ctx context.Context, conn *config.Connection, method, path string, headers map[string]string, body json.RawMessage) (*Response, error) {
	target, err := joinURL(conn.BaseURL, path)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range headers {
		if k != "" {
			req.Header.Set(k, v)
		}
	}
	if conn.TokenEnv != "" {
		if token := os.Getenv(conn.TokenEnv); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		customLog.Warnf("Connections: %s %s failed: %v", method, target, err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       asJSON(data),
		DurationMs: time.Since(start).Milliseconds(),
	}
	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}
	customLog.Debugf("Connections: %s %s -> %d", method, target, resp.StatusCode)
	return out, nil
}

// joinURL appends path to base. Absolute URLs in path are rejected so a
// request cannot leave the configured host.
func joinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url: %w", ErrInvalidRequest, err)
	}
	p, err := url.Parse(strings.TrimSpace(path))
	if err != nil || p.IsAbs() || p.Host != "" {
		return "", fmt.Errorf("%w: path %q must be relative", ErrInvalidRequest, path)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(p.Path, "/")
	if p.RawQuery != "" {
		u.RawQuery = p.RawQuery
	}
	return u.String(), nil
}

func asJSON(data []byte) json.RawMessage {
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}
