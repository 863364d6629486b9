package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

const fullABI = `[
	{"type": "constructor", "inputs": []},
	{"type": "function", "name": "register", "inputs": []},
	{"type": "function", "name": "bet", "inputs": [{"name": "choice", "type": "uint8"}]},
	{"type": "function", "name": "update_choice1", "inputs": []},
	{"type": "function", "name": "update_choice2", "inputs": []},
	{"type": "event", "name": "Registered", "inputs": []}
]`

func writeArtifacts(t *testing.T, dir, address, artifact string) {
	t.Helper()
	if address != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "TopG-address.json"), []byte(address), 0o644))
	}
	if artifact != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "TopG.json"), []byte(artifact), 0o644))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir,
		`{"address": "`+testAddress+`"}`,
		`{"contractName": "TopG", "abi": `+fullABI+`, "bytecode": "0x00"}`)

	d, err := Load(dir, "TopG")
	require.NoError(t, err)

	assert.Equal(t, "TopG", d.Name)
	assert.Equal(t, testAddress, d.Address)
	assert.Contains(t, string(d.ABI), "update_choice2")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		artifact string
		wantErr  string
	}{
		{
			name:    "not deployed",
			wantErr: "contract has not been deployed",
		},
		{
			name:     "bad address",
			address:  `{"address": "0x1234"}`,
			artifact: `{"abi": ` + fullABI + `}`,
			wantErr:  "invalid contract address",
		},
		{
			name:    "missing artifact",
			address: `{"address": "` + testAddress + `"}`,
			wantErr: "TopG.json is missing",
		},
		{
			name:     "malformed artifact",
			address:  `{"address": "` + testAddress + `"}`,
			artifact: `{"abi": `,
			wantErr:  "failed to parse",
		},
		{
			name:     "missing functions",
			address:  `{"address": "` + testAddress + `"}`,
			artifact: `{"abi": [{"type": "function", "name": "register"}, {"type": "event", "name": "bet"}]}`,
			wantErr:  "abi is missing functions [bet update_choice1 update_choice2]",
		},
		{
			name:     "other contract",
			address:  `{"address": "` + testAddress + `"}`,
			artifact: `{"contractName": "Lock", "abi": ` + fullABI + `}`,
			wantErr:  `expected "TopG"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeArtifacts(t, dir, tt.address, tt.artifact)

			_, err := Load(dir, "TopG")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegistry_LoadsOnceDeployed(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(dir, "TopG")

	_, err := registry.Get()
	assert.ErrorIs(t, err, ErrNotDeployed)

	writeArtifacts(t, dir,
		`{"address": "`+testAddress+`"}`,
		`{"contractName": "TopG", "abi": `+fullABI+`}`)

	d, err := registry.Get()
	require.NoError(t, err)
	assert.Equal(t, testAddress, d.Address)

	// Cached after the first successful load
	require.NoError(t, os.Remove(filepath.Join(dir, "TopG.json")))
	again, err := registry.Get()
	require.NoError(t, err)
	assert.Same(t, d, again)
}
