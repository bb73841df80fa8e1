package registry

import (
	"fmt"

	"github.com/feral-file/ff-starknet-indexer/internal/adapter"
	"github.com/feral-file/ff-starknet-indexer/internal/domain"
)

// BlacklistRegistry defines the interface for blacklist operations
//
//go:generate mockgen -source=blacklist.go -destination=../mocks/blacklist_registry.go -package=mocks -mock_names=BlacklistRegistry=MockBlacklistRegistry
type BlacklistRegistry interface {
	// IsBlacklisted checks if events of a contract must be ignored
	IsBlacklisted(contractAddress string) bool
}

// BlacklistRegistryLoader loads a blacklist registry from a file
type BlacklistRegistryLoader interface {
	Load(filePath string) (BlacklistRegistry, error)
}

// BlacklistData represents the structure of the blacklist file: a JSON list of contract addresses
type BlacklistData []string

type blacklistRegistryLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewBlacklistRegistryLoader creates a loader reading through the given adapters
func NewBlacklistRegistryLoader(fs adapter.FileSystem, json adapter.JSON) BlacklistRegistryLoader {
	return &blacklistRegistryLoader{fs: fs, json: json}
}

// blacklistRegistry is the internal implementation of BlacklistRegistry
type blacklistRegistry struct {
	// canonical address -> true
	contracts map[string]bool
}

// Load loads the blacklist registry from a JSON file
func (l *blacklistRegistryLoader) Load(filePath string) (BlacklistRegistry, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read blacklist file: %w", err)
	}

	var blacklistData BlacklistData
	if err := l.json.Unmarshal(data, &blacklistData); err != nil {
		return nil, fmt.Errorf("failed to parse blacklist JSON: %w", err)
	}

	bl := &blacklistRegistry{
		contracts: make(map[string]bool, len(blacklistData)),
	}
	for _, addr := range blacklistData {
		bl.contracts[domain.NormalizeAddress(addr)] = true
	}

	return bl, nil
}

// IsBlacklisted checks if a contract address is blacklisted. A nil registry blacklists nothing.
func (b *blacklistRegistry) IsBlacklisted(contractAddress string) bool {
	if b == nil {
		return false
	}
	return b.contracts[domain.NormalizeAddress(contractAddress)]
}

// EmptyBlacklist returns a registry that blacklists nothing
func EmptyBlacklist() BlacklistRegistry {
	return &blacklistRegistry{contracts: map[string]bool{}}
}
