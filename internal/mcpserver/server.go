// internal/mcpserver/server.go
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/editor"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/session"
)

var customLog = logger.NewLogger()

// Server exposes the record editor as MCP tools. A stdio client is a single
// user, so it keeps one editor session per profile.
type Server struct {
	mcp      *server.MCPServer
	profiles *config.Profiles
	store    *session.Store
	editor   *editor.Editor

	mu       sync.Mutex
	sessions map[string]string
}

// New creates the MCP server and registers its tools.
func New(profiles *config.Profiles, store *session.Store, ed *editor.Editor, version string) *Server {
	s := &Server{
		profiles: profiles,
		store:    store,
		editor:   ed,
		sessions: make(map[string]string),
	}
	s.mcp = server.NewMCPServer(
		"nebula-forms",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves MCP over stdin and stdout until the client goes away.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// session returns the profile's editor session, connecting it on first use.
func (s *Server) session(ctx context.Context, profileName string) (*session.Context, error) {
	p, err := s.profiles.Get(profileName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.sessions[p.Name]; ok {
		if sc, err := s.store.Get(id); err == nil {
			return sc, nil
		}
		delete(s.sessions, p.Name)
	}

	sc := s.store.Create(p)
	if _, err := s.editor.Connect(ctx, sc); err != nil {
		s.store.Delete(sc.ID)
		return nil, err
	}
	s.sessions[p.Name] = sc.ID
	customLog.Printf("MCP: Opened editor session %s for profile '%s'", sc.ID, p.Name)
	return sc, nil
}

func arguments(req mcp.CallToolRequest) map[string]any {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

func optionalString(req mcp.CallToolRequest, key string) string {
	v, _ := arguments(req)[key].(string)
	return v
}

// optionalInt reads a number argument. Clients sometimes send numbers as strings.
func optionalInt(req mcp.CallToolRequest, key string) (int, bool, error) {
	switch v := arguments(req)[key].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return int(v), true, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("argument '%s' must be a number", key)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("argument '%s' must be a number", key)
	}
}

// optionalKey reads a key column value. Numeric keys may arrive as JSON numbers.
func optionalKey(req mcp.CallToolRequest) (string, bool, error) {
	switch v := arguments(req)["key"].(type) {
	case nil:
		return "", false, nil
	case string:
		return v, v != "", nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("argument 'key' must be a string or number")
	}
}

func requireKey(req mcp.CallToolRequest) (string, error) {
	key, ok, err := optionalKey(req)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("required argument %q not found", "key")
	}
	return key, nil
}

// values reads the JSON object of column values passed to add and update.
func values(req mcp.CallToolRequest) (map[string]any, error) {
	switch v := arguments(req)["values"].(type) {
	case map[string]any:
		return v, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("argument 'values' must be a JSON object: %w", err)
		}
		return out, nil
	case nil:
		return nil, errors.New("required argument \"values\" not found")
	default:
		return nil, errors.New("argument 'values' must be a JSON object")
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError renders an editor failure the way a form would show it.
func toolError(action string, err error) *mcp.CallToolResult {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		return mcp.NewToolResultError(verr.Message)
	case errors.Is(err, editor.ErrReadOnly):
		return mcp.NewToolResultError("This profile is read-only.")
	}
	customLog.Warnf("MCP: %s failed: %v", action, err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err))
}
