// Package file loads credentials and users from a YAML document into an in-memory datastore.
package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/fanout-labs/gqlgate/pkg/storage"
	"github.com/fanout-labs/gqlgate/pkg/storage/memory"
)

// Document is the on-disk layout.
type Document struct {
	APIKeys []APIKey `json:"apiKeys"`
	Users   []User   `json:"users"`
}

type APIKey struct {
	ID                 string `json:"id"`
	Token              string `json:"token"`
	Name               string `json:"name"`
	Enabled            *bool  `json:"enabled"`
	RateLimitPerMinute int    `json:"rateLimitPerMinute"`
}

type User struct {
	TenantID     string   `json:"tenantId"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash"`
	Roles        []string `json:"roles"`
	Enabled      *bool    `json:"enabled"`
	Locked       bool     `json:"locked"`
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// Load reads path and returns a memory datastore seeded with its contents. Persisted
// queries written to the returned datastore live in memory only.
func Load(ctx context.Context, path string) (*memory.MemoryBackend, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	return Parse(ctx, raw)
}

// Parse seeds a memory datastore from a YAML (or JSON) document.
func Parse(ctx context.Context, raw []byte) (*memory.MemoryBackend, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	ds := memory.New()
	for i, k := range doc.APIKeys {
		token := strings.TrimSpace(k.Token)
		if token == "" {
			return nil, fmt.Errorf("apiKeys[%d]: token is required", i)
		}
		err := ds.WriteCredential(ctx, &storage.Credential{
			ID:                 k.ID,
			Token:              token,
			DisplayName:        k.Name,
			Enabled:            enabled(k.Enabled),
			RateLimitPerMinute: k.RateLimitPerMinute,
		})
		if err != nil {
			return nil, fmt.Errorf("apiKeys[%d]: %w", i, err)
		}
	}

	for i, u := range doc.Users {
		if u.TenantID == "" || u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("users[%d]: tenantId, username and passwordHash are required", i)
		}
		err := ds.WriteUser(ctx, &storage.User{
			TenantID:     u.TenantID,
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Roles:        u.Roles,
			Enabled:      enabled(u.Enabled),
			Locked:       u.Locked,
		})
		if err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
	}

	return ds, nil
}
