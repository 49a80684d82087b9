package keys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, key solana.PrivateKey) string {
	t.Helper()
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	want := solana.NewWallet().PrivateKey
	got, err := Load(writeKeyFile(t, want))
	require.NoError(t, err)
	assert.Equal(t, want.PublicKey(), got.PublicKey())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrNoKeyFile)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRing(t *testing.T) {
	admin := solana.NewWallet().PrivateKey
	path := writeKeyFile(t, admin)
	ring := NewRing(path, "", "")

	got, err := ring.Get(Admin)
	require.NoError(t, err)
	assert.Equal(t, admin.PublicKey(), got.PublicKey())

	// cached after the first read
	require.NoError(t, os.Remove(path))
	got, err = ring.Get(Admin)
	require.NoError(t, err)
	assert.Equal(t, admin.PublicKey(), got.PublicKey())

	_, err = ring.Get(Manager)
	assert.ErrorIs(t, err, ErrNoKeyFile)
}
