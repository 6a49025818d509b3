package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vixenbot/vixen/pkg/entities"
	"github.com/vixenbot/vixen/pkg/logging"
)

const storeName = "ticket_store"

// cacheTTL is how long a guild read stays fresh. Every update invalidates
// the guild's entry regardless.
const cacheTTL = 10 * time.Second

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("store: closed")

// Mutator is applied to a guild's ticket configuration inside the update
// queue. It may mutate the config in place, or return a replacement.
type Mutator func(cfg *entities.GuildTicketConfig) (*entities.GuildTicketConfig, error)

// Repository is the access layer for the persisted ticket document.
type Repository interface {
	// Get returns the guild's ticket configuration. The result is shared
	// with the read cache and must be treated as read-only; all writes go
	// through Update.
	Get(ctx context.Context, guildID string) (*entities.GuildTicketConfig, error)

	// Update queues a read-modify-write-persist cycle for the guild. Calls
	// are applied strictly in arrival order, each one starting only after
	// the previous cycle has persisted.
	Update(ctx context.Context, guildID string, fn Mutator) error

	// Ping reports whether the backing file is readable and parseable. A
	// missing file is healthy; it simply has not been written yet.
	Ping(ctx context.Context) error

	// Close drains the update queue and stops the writer.
	Close() error
}

type cacheEntry struct {
	cfg     *entities.GuildTicketConfig
	fetched time.Time
}

type updateRequest struct {
	guildID string
	fn      Mutator
	done    chan error
}

type jsonRepository struct {
	// l is the logger.
	l *slog.Logger

	// path is the location of the document on disk.
	path string

	// queue carries update requests to the single writer goroutine.
	queue chan *updateRequest

	// writerDone is closed when the writer goroutine exits.
	writerDone chan struct{}

	// mu guards cache and closed.
	mu     sync.Mutex
	cache  map[string]cacheEntry
	closed bool

	// now is the clock, swappable in tests.
	now func() time.Time
}

// NewRepository creates a repository over the JSON document at path and
// starts its writer goroutine.
func NewRepository(l *slog.Logger, path string) Repository {
	r := &jsonRepository{
		l:          l.With(slog.String(logging.KeyComponent, storeName)),
		path:       path,
		queue:      make(chan *updateRequest, 64),
		writerDone: make(chan struct{}),
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
	go r.writer()
	return r
}

func (r *jsonRepository) Get(ctx context.Context, guildID string) (*entities.GuildTicketConfig, error) {
	StoreTotalRequests.WithLabelValues(storeName, "get").Inc()
	t := prometheus.NewTimer(StoreLatency.WithLabelValues(storeName, "get"))
	defer t.ObserveDuration()

	r.mu.Lock()
	if entry, ok := r.cache[guildID]; ok && r.now().Sub(entry.fetched) < cacheTTL {
		r.mu.Unlock()
		return entry.cfg, nil
	}
	r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	cfg := ticketSystem(doc, guildID)

	r.mu.Lock()
	r.cache[guildID] = cacheEntry{cfg: cfg, fetched: r.now()}
	r.mu.Unlock()
	return cfg, nil
}

func (r *jsonRepository) Update(ctx context.Context, guildID string, fn Mutator) error {
	StoreTotalRequests.WithLabelValues(storeName, "update").Inc()
	t := prometheus.NewTimer(StoreLatency.WithLabelValues(storeName, "update"))
	defer t.ObserveDuration()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	req := &updateRequest{
		guildID: guildID,
		fn:      fn,
		done:    make(chan error, 1),
	}
	r.queue <- req
	r.mu.Unlock()

	// The request is already queued; it will be applied even if the caller
	// gives up waiting.
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *jsonRepository) Ping(ctx context.Context) error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading store file: %w", err)
	}
	doc := new(entities.Document)
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("parsing store file: %w", err)
	}
	return nil
}

func (r *jsonRepository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.writerDone
	return nil
}

// writer is the single goroutine that applies queued updates in FIFO order.
func (r *jsonRepository) writer() {
	defer close(r.writerDone)
	for req := range r.queue {
		req.done <- r.apply(req)
	}
}

func (r *jsonRepository) apply(req *updateRequest) error {
	doc, err := r.load()
	if err != nil {
		return err
	}

	cfg := ticketSystem(doc, req.guildID)
	out, err := req.fn(cfg)
	if err != nil {
		return err
	}
	if out != nil {
		cfg = out
	}
	doc.Guilds[req.guildID].TicketSystem = cfg

	if err := r.save(doc); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.cache, req.guildID)
	r.mu.Unlock()
	return nil
}

// load reads and parses the document. A missing file yields a fresh empty
// document. A corrupt file is renamed aside with a timestamp suffix, logged,
// and replaced by a fresh document; the original bytes stay recoverable.
func (r *jsonRepository) load() (*entities.Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entities.NewDocument(), nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	doc := new(entities.Document)
	if err := json.Unmarshal(data, doc); err != nil {
		backup := fmt.Sprintf("%s.corrupt.%s", r.path, r.now().UTC().Format("20060102T150405"))
		if renameErr := os.Rename(r.path, backup); renameErr != nil {
			return nil, fmt.Errorf("backing up corrupt store file: %w", renameErr)
		}
		r.l.Error("Store file is corrupt, backed up and starting fresh",
			slog.String(logging.KeyError, err.Error()),
			slog.String("backup", backup),
		)
		StoreCorruptionsTotal.Inc()
		return entities.NewDocument(), nil
	}

	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*entities.GuildConfig)
	}
	return doc, nil
}

// save serializes the document deterministically and writes it atomically:
// a temp file in the same directory, then a rename over the destination.
func (r *jsonRepository) save(doc *entities.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing store document: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	return nil
}

// ticketSystem returns the guild's ticket configuration inside the document,
// initializing empty structures along the way.
func ticketSystem(doc *entities.Document, guildID string) *entities.GuildTicketConfig {
	guild, ok := doc.Guilds[guildID]
	if !ok {
		guild = new(entities.GuildConfig)
		doc.Guilds[guildID] = guild
	}
	if guild.TicketSystem == nil {
		guild.TicketSystem = entities.NewGuildTicketConfig()
	}
	return guild.TicketSystem
}
