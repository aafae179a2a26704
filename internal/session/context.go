// internal/session/context.go
package session

import (
	"sync"
	"time"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/domain"
)

// Context is the state one user session keeps between requests.
// Callers hold Lock for the whole of a read-modify-write on its fields.
type Context struct {
	mu sync.Mutex

	ID        string
	Profile   *config.Profile
	CreatedAt time.Time
	LastSeen  time.Time

	// Set on connect, cleared on refresh.
	Schema    *domain.TableSchema
	KeyColumn string

	// Nil means stale: the next read re-fetches.
	Snapshot *domain.RecordSnapshot

	// In-progress MCP handshake with the profile's external connection.
	MCPSessionID string
}

func (c *Context) Lock()   { c.mu.Lock() }
func (c *Context) Unlock() { c.mu.Unlock() }

// Connected reports whether a schema has been loaded.
func (c *Context) Connected() bool {
	return c.Schema != nil
}

// Invalidate marks the snapshot stale after a mutation.
func (c *Context) Invalidate() {
	c.Snapshot = nil
}

// Reset drops the schema and snapshot, as on an explicit refresh or reconnect.
func (c *Context) Reset() {
	c.Schema = nil
	c.KeyColumn = ""
	c.Snapshot = nil
}
