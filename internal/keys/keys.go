package keys

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrNoKeyFile = errors.New("keys: key file path not set")

// Load reads a solana-keygen JSON key file.
func Load(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, ErrNoKeyFile
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: load %s: %w", path, err)
	}
	return key, nil
}

// Ring holds the operator keys by role. A role without a key file stays empty and fails on use.
type Ring struct {
	paths map[Role]string
	cache map[Role]solana.PrivateKey
}

type Role string

const (
	Admin   Role = "admin"
	Manager Role = "manager"
	User    Role = "user"
)

func NewRing(admin, manager, user string) *Ring {
	return &Ring{
		paths: map[Role]string{Admin: admin, Manager: manager, User: user},
		cache: make(map[Role]solana.PrivateKey, 3),
	}
}

func (r *Ring) Get(role Role) (solana.PrivateKey, error) {
	if key, ok := r.cache[role]; ok {
		return key, nil
	}
	path := r.paths[role]
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoKeyFile, role)
	}
	key, err := Load(path)
	if err != nil {
		return nil, err
	}
	r.cache[role] = key
	return key, nil
}

// Add sets the key of role directly, bypassing its key file.
func (r *Ring) Add(role Role, key solana.PrivateKey) *Ring {
	r.cache[role] = key
	return r
}
