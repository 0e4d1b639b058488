package mongox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// ErrNotConnected is returned when the database connection has not been
// established yet (or has been closed).
var ErrNotConnected = errors.New("mongodb: not connected")

const defaultDatabase = "chatbot"

// Manager owns the single long-lived MongoDB connection. Connection failures
// never crash the process: Start keeps retrying on a fixed interval until the
// connection comes up, and callers observe the current state through
// IsConnected / Collection.
type Manager struct {
	uri        string
	retryDelay time.Duration

	mu        sync.RWMutex
	client    *mongo.Client
	db        *mongo.Database
	connected bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(uri string, retryDelay time.Duration) *Manager {
	return &Manager{
		uri:        uri,
		retryDelay: retryDelay,
		done:       make(chan struct{}),
	}
}

// Start launches the background connect loop. Each failed attempt is logged
// and retried after the fixed delay, indefinitely, until the connection is
// established or the manager is closed.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	go func() {
		defer close(m.done)

		for {
			err := m.connect(ctx)
			if err == nil {
				slog.Info("Connected to MongoDB", "database", databaseName(m.uri))
				return
			}

			slog.Error("MongoDB connection failed, will retry",
				"error", err,
				"retry_delay", m.retryDelay)

			select {
			case <-ctx.Done():
				return
			case <-time.After(m.retryDelay):
			}
		}
	}()
}

func (m *Manager) connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(m.uri).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority()).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetBSONOptions(&options.BSONOptions{NilSliceAsEmpty: true}))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping: %w", err)
	}

	m.mu.Lock()
	m.client = client
	m.db = client.Database(databaseName(m.uri))
	m.connected = true
	m.mu.Unlock()

	return nil
}

// IsConnected reports whether the database connection is established.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Collection returns a handle to the named collection, or ErrNotConnected
// while the connection is down.
func (m *Manager) Collection(name string) (*mongo.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}
	return m.db.Collection(name), nil
}

// Close stops the retry loop and disconnects without aborting in-flight
// operations.
func (m *Manager) Close(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}

	m.mu.Lock()
	client := m.client
	m.client = nil
	m.db = nil
	m.connected = false
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// databaseName extracts the database from the connection string path,
// e.g. mongodb://localhost:27017/chatbot -> chatbot.
func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultDatabase
}
