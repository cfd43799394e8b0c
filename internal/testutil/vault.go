package testutil

import (
	"journal-go/internal/journal"
	"journal-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() journal.Vault {
	return vault.NewMemoryVault("test-vault")
}
