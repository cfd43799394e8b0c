package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"journal-go/internal/journal"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It keeps backup objects in a map, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name    string
	objects map[string][]byte // name -> content
	mu      sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:    name,
		objects: make(map[string][]byte),
	}
}

// Put stores an object, replacing any previous object with the same name.
func (m *MemoryVault) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[name] = data
	return nil
}

// Get writes the named object to w.
func (m *MemoryVault) Get(ctx context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.objects[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("object %q: %w", name, journal.ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// List returns the sorted names of objects starting with prefix.
func (m *MemoryVault) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(ctx context.Context) error {
	return nil
}

// validateName rejects object names that could escape a vault root.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("object name is empty")
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("object name %q must be relative", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid object name %q", name)
		}
	}
	return nil
}

// Compile-time check that MemoryVault implements journal.Vault interface
var _ journal.Vault = (*MemoryVault)(nil)
