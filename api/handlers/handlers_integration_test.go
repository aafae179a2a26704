// api/handlers/handlers_integration_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-forms/api"
	"github.com/Annany2002/nebula-forms/api/models"
	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/connections"
	"github.com/Annany2002/nebula-forms/internal/editor"
	"github.com/Annany2002/nebula-forms/internal/session"
	"github.com/Annany2002/nebula-forms/internal/storage"
)

const testSecret = "test_secret_key_for_integration_tests_1234567890"

// testProfiles creates a sqlite masterfile and the profiles that edit it.
func testProfiles(t *testing.T, mcpURL string) *config.Profiles {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "masterfile.db")

	masterfile := &config.Profile{
		Name:           "masterfile",
		Title:          "MDAR Masterfile",
		Driver:         config.DriverSQLite,
		Path:           dbPath,
		Table:          "masterfile",
		KeyColumn:      "ticket",
		OptionalFields: []string{"notes"},
		Dropdowns:      map[string][]string{"priority": {"P0 - Critical", "P1 - High"}},
		Pattern:        &config.PatternRule{Column: "ticket", Regex: `^MDAR-\d+$`, Help: "Format: MDAR-####"},
		Connection:     &config.Connection{BaseURL: mcpURL},
	}
	readOnly := &config.Profile{
		Name:     "masterfile-read",
		Driver:   config.DriverSQLite,
		Path:     dbPath,
		Table:    "masterfile",
		ReadOnly: true,
	}
	profiles, err := config.NewProfiles(masterfile, readOnly)
	require.NoError(t, err)

	backend, err := storage.Open(context.Background(), masterfile)
	require.NoError(t, err)
	defer backend.Close()
	_, err = backend.Exec(context.Background(), "CREATE TABLE masterfile (ticket TEXT, owner TEXT, priority TEXT, notes TEXT)")
	require.NoError(t, err)
	_, err = backend.Exec(context.Background(),
		"INSERT INTO masterfile VALUES ('MDAR-1', 'Ada', 'P0 - Critical', NULL), ('MDAR-2', 'Grace', 'P1 - High', 'late')")
	require.NoError(t, err)
	return profiles
}

// setupTestServer creates a test server over the sqlite profiles.
func setupTestServer(t *testing.T, mcpURL string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServerPort:         ":0",
		SessionSecret:      testSecret,
		SessionTTL:         5 * time.Minute,
		ConnectionTTL:      time.Hour,
		RateLimitPerMinute: 1000,
		CORSAllowedOrigins: []string{"*"},
		HTTPTimeout:        5 * time.Second,
	}
	pool := storage.NewPool(cfg.ConnectionTTL)
	t.Cleanup(pool.Close)

	router := api.SetupRouter(cfg, testProfiles(t, mcpURL), session.NewStore(cfg.SessionTTL), editor.New(pool), connections.NewRelay(cfg.HTTPTimeout))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (cl *client) do(method, path string, body any, out any) int {
	cl.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(cl.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, cl.base+path, reader)
	require.NoError(cl.t, err)
	req.Header.Set("Content-Type", "application/json")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(cl.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(cl.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func startSession(t *testing.T, server *httptest.Server, profile string) *client {
	t.Helper()
	cl := &client{t: t, base: server.URL}
	var resp models.CreateSessionResponse
	status := cl.do(http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Profile: profile}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)

	claims, err := session.ValidateToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, profile, claims.Profile)

	cl.token = resp.Token
	return cl
}

func TestPublicEndpoints(t *testing.T) {
	server := setupTestServer(t, "http://localhost")
	cl := &client{t: t, base: server.URL}

	res, err := http.Get(server.URL + "/ping")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var profiles models.ProfilesResponse
	assert.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/profiles", nil, &profiles))
	require.Len(t, profiles.Profiles, 2)
	assert.Equal(t, "masterfile", profiles.Profiles[0].Name)
	assert.True(t, profiles.Profiles[1].ReadOnly)

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, cl.do(http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Profile: "nope"}, &errResp))
	assert.Contains(t, errResp.Error, "profile not found")

	assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodPost, "/api/v1/sessions", map[string]string{}, nil))
}

func TestSessionAuthorization(t *testing.T) {
	server := setupTestServer(t, "http://localhost")

	anonymous := &client{t: t, base: server.URL}
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, "/api/v1/sessions/current/schema", nil, nil))

	forged := &client{t: t, base: server.URL, token: "not.a.token"}
	assert.Equal(t, http.StatusUnauthorized, forged.do(http.MethodGet, "/api/v1/sessions/current/schema", nil, nil))

	cl := startSession(t, server, "masterfile")
	assert.Equal(t, http.StatusNoContent, cl.do(http.MethodDelete, "/api/v1/sessions/current", nil, nil))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, cl.do(http.MethodGet, "/api/v1/sessions/current/schema", nil, &errResp))
	assert.Contains(t, errResp.Error, "Session expired or not found")
}

func TestRecordWorkflow(t *testing.T) {
	server := setupTestServer(t, "http://localhost")
	cl := startSession(t, server, "masterfile")
	var errResp models.ErrorResponse

	t.Run("Not connected", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, cl.do(http.MethodGet, "/api/v1/sessions/current/records", nil, nil))
	})

	t.Run("Connect", func(t *testing.T) {
		var view editor.SchemaView
		assert.Equal(t, http.StatusOK, cl.do(http.MethodPost, "/api/v1/sessions/current/connect", nil, &view))
		assert.Equal(t, "ticket", view.KeyColumn)
		require.Len(t, view.Columns, 4)
		assert.Equal(t, []string{"P0 - Critical", "P1 - High"}, view.Columns[2].Dropdown)
	})

	t.Run("List and search", func(t *testing.T) {
		var page editor.RecordPage
		assert.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/sessions/current/records?search=GRACE", nil, &page))
		require.Len(t, page.Rows, 1)
		assert.Equal(t, 1, page.Rows[0].Index)
		assert.Equal(t, "MDAR-2", page.Rows[0].Key)
		assert.Equal(t, 2, page.Stats.Total)

		assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodGet, "/api/v1/sessions/current/records?limit=abc", nil, nil))
	})

	t.Run("Forms", func(t *testing.T) {
		var form editor.FormView
		assert.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/sessions/current/form?mode=add", nil, &form))
		assert.Equal(t, editor.NoSelection, form.Fields[2].Options[0])

		assert.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/sessions/current/form?mode=edit&key=MDAR-2", nil, &form))
		assert.Equal(t, "Grace", form.Fields[1].Value)

		assert.Equal(t, http.StatusNotFound, cl.do(http.MethodGet, "/api/v1/sessions/current/form?mode=edit&key=MDAR-9", nil, nil))
		assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodGet, "/api/v1/sessions/current/form?mode=edit", nil, nil))
		assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodGet, "/api/v1/sessions/current/form?mode=view", nil, nil))
	})

	t.Run("Insert", func(t *testing.T) {
		var created models.RecordResponse
		body := models.RecordRequest{Values: map[string]any{"ticket": "MDAR-3", "owner": "O'Brien", "priority": "P1 - High"}}
		assert.Equal(t, http.StatusCreated, cl.do(http.MethodPost, "/api/v1/sessions/current/records", body, &created))
		assert.Equal(t, int64(1), created.Affected)
		assert.Contains(t, created.Statement, "'O''Brien'")

		var stats editor.Stats
		assert.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/sessions/current/stats", nil, &stats))
		assert.Equal(t, 3, stats.Total)
	})

	t.Run("Insert rejections", func(t *testing.T) {
		offList := models.RecordRequest{Values: map[string]any{"ticket": "MDAR-4", "owner": "Ada", "priority": "P9 - Unknown"}}
		assert.Equal(t, http.StatusUnprocessableEntity, cl.do(http.MethodPost, "/api/v1/sessions/current/records", offList, &errResp))
		assert.Equal(t, "priority", errResp.Field)

		dup := models.RecordRequest{Values: map[string]any{"ticket": "mdar-1", "owner": "Ada", "priority": "P1 - High"}}
		assert.Equal(t, http.StatusConflict, cl.do(http.MethodPost, "/api/v1/sessions/current/records", dup, &errResp))
		assert.Contains(t, errResp.Error, "already exists")

		missing := models.RecordRequest{Values: map[string]any{"ticket": "MDAR-4", "owner": "", "priority": "P1 - High"}}
		assert.Equal(t, http.StatusUnprocessableEntity, cl.do(http.MethodPost, "/api/v1/sessions/current/records", missing, &errResp))
		assert.Equal(t, "owner", errResp.Field)

		badFormat := models.RecordRequest{Values: map[string]any{"ticket": "TICKET-4", "owner": "Ada", "priority": "P1 - High"}}
		assert.Equal(t, http.StatusUnprocessableEntity, cl.do(http.MethodPost, "/api/v1/sessions/current/records", badFormat, &errResp))
		assert.Contains(t, errResp.Error, "Invalid ticket format")

		assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodPost, "/api/v1/sessions/current/records", map[string]any{}, nil))
	})

	t.Run("Update", func(t *testing.T) {
		var updated models.RecordResponse
		body := models.RecordRequest{Values: map[string]any{"notes": "escalated"}}
		assert.Equal(t, http.StatusOK, cl.do(http.MethodPut, "/api/v1/sessions/current/records?key=MDAR-1", body, &updated))
		assert.Contains(t, updated.Statement, "WHERE ticket = 'MDAR-1'")

		var page editor.RecordPage
		assert.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/sessions/current/records?search=escalated", nil, &page))
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "MDAR-1", page.Rows[0].Values["ticket"])

		assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodPut, "/api/v1/sessions/current/records", body, nil))
	})

	t.Run("Delete", func(t *testing.T) {
		var deleted models.RecordResponse
		assert.Equal(t, http.StatusOK, cl.do(http.MethodDelete, "/api/v1/sessions/current/records?key=MDAR-2", nil, &deleted))
		assert.Equal(t, "DELETE FROM masterfile WHERE ticket = 'MDAR-2'", deleted.Statement)

		assert.Equal(t, http.StatusNotFound, cl.do(http.MethodDelete, "/api/v1/sessions/current/records?key=MDAR-2", nil, nil))
		assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodDelete, "/api/v1/sessions/current/records", nil, nil))
	})
}

func TestReadOnlyProfile(t *testing.T) {
	server := setupTestServer(t, "http://localhost")
	cl := startSession(t, server, "masterfile-read")

	assert.Equal(t, http.StatusOK, cl.do(http.MethodPost, "/api/v1/sessions/current/connect", nil, nil))
	assert.Equal(t, http.StatusForbidden, cl.do(http.MethodDelete, "/api/v1/sessions/current/records?key=MDAR-1", nil, nil))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, cl.do(http.MethodPost, "/api/v1/sessions/current/connections/request",
		connections.Request{Path: "/"}, &errResp), "profile has no connection")
}

func TestMCPRelay(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&msg)
		if msg.Method == "initialize" {
			w.Header().Set("mcp-session-id", "upstream-1")
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"init","result":{}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"list-1","result":{"tools":[{"name":"search"}]}}`))
	}))
	defer upstream.Close()

	server := setupTestServer(t, upstream.URL)
	cl := startSession(t, server, "masterfile")

	var resp connections.Response
	body := models.MCPRequest{Payload: json.RawMessage(`{"jsonrpc":"2.0","id":"list-1","method":"tools/list"}`)}
	assert.Equal(t, http.StatusOK, cl.do(http.MethodPost, "/api/v1/sessions/current/mcp/request", body, &resp))
	assert.Equal(t, "upstream-1", resp.MCPSessionID)
	assert.Contains(t, string(resp.Body), `"search"`)
}
