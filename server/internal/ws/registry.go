package ws

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Client is one upgraded connection. The owning session closes it; the
// registry only holds a reference for broadcast and shutdown.
type Client struct {
	ID   string
	conn net.Conn

	writeTimeout time.Duration

	wmu       sync.Mutex // serialises frames on this stream
	closeOnce sync.Once
}

func newClient(conn net.Conn, writeTimeout time.Duration) *Client {
	return &Client{
		ID:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// write sends one encoded frame with a bounded deadline.
func (c *Client) write(frame []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)) //nolint:errcheck
	}
	_, err := c.conn.Write(frame)
	return err
}

// Close closes the underlying stream. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close() //nolint:errcheck
	})
}

// Registry is the set of connected clients. All methods are safe for
// concurrent use; the mutex is never held during socket I/O.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[*Client]struct{})}
}

// Add inserts c. Inserting the same client twice leaves one entry.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

// Remove drops c and reports whether it was present.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return false
	}
	delete(r.clients, c)
	return true
}

// Count returns the number of registered clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast writes frame to every client registered at call time. Writes run
// in parallel outside the lock; clients whose write fails are removed and
// closed afterwards. It returns the number of successful and failed writes.
func (r *Registry) Broadcast(frame []byte) (delivered, failed int) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return 0, 0
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		broken []*Client
	)
	for _, c := range targets {
		c := c
		g.Go(func() error {
			if err := c.write(frame); err != nil {
				mu.Lock()
				broken = append(broken, c)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return an error

	if len(broken) > 0 {
		r.mu.Lock()
		for _, c := range broken {
			delete(r.clients, c)
		}
		r.mu.Unlock()
		for _, c := range broken {
			c.Close()
		}
	}
	return len(targets) - len(broken), len(broken)
}

// CloseAll closes every registered client and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	targets := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		targets = append(targets, c)
		delete(r.clients, c)
	}
	r.mu.Unlock()

	for _, c := range targets {
		c.Close()
	}
}
