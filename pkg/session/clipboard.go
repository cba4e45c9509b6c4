package session

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-stacked-content/pkg/content"
)

// ClipboardKind is the clipboard slot used for copied records.
const ClipboardKind = "stackedcontent"

// ClipboardEntry is a copied record plus the identity of its element type.
type ClipboardEntry struct {
	SchemaKey string
	Payload   *content.Record
}

// Clipboard is a shared key-value store outliving a single session.
type Clipboard interface {
	Get(ctx context.Context, kind string) (ClipboardEntry, bool, error)
	Set(ctx context.Context, kind string, entry ClipboardEntry) error
}

// MemoryClipboard keeps entries in process memory.
type MemoryClipboard struct {
	mu      sync.RWMutex
	entries map[string]ClipboardEntry
}

var _ Clipboard = (*MemoryClipboard)(nil)

func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{entries: make(map[string]ClipboardEntry)}
}

func (m *MemoryClipboard) Get(_ context.Context, kind string) (ClipboardEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[strings.ToLower(kind)]
	if !ok {
		return ClipboardEntry{}, false, nil
	}
	return ClipboardEntry{SchemaKey: entry.SchemaKey, Payload: entry.Payload.Clone()}, true, nil
}

func (m *MemoryClipboard) Set(_ context.Context, kind string, entry ClipboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[strings.ToLower(kind)] = ClipboardEntry{SchemaKey: entry.SchemaKey, Payload: entry.Payload.Clone()}
	return nil
}
