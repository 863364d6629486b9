package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reflector/models"

	log "github.com/sirupsen/logrus"
)

// RequiredFunctions are the contract calls the web client makes
var RequiredFunctions = []string{"register", "bet", "update_choice1", "update_choice2"}

// ErrNotDeployed is returned when the deployment artifacts are not present yet
var ErrNotDeployed = errors.New("contract has not been deployed")

// Deployment is what the browser needs to build a contract handle
type Deployment struct {
	Name    string          `json:"name"`
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
}

type addressFile struct {
	Address string `json:"address"`
}

type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
}

type abiEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Load reads <name>-address.json and <name>.json from dir and validates them
func Load(dir, name string) (*Deployment, error) {
	addressPath := filepath.Join(dir, name+"-address.json")
	artifactPath := filepath.Join(dir, name+".json")

	var addr addressFile
	if err := readJSON(addressPath, &addr); err != nil {
		return nil, err
	}
	if !models.IsWalletAddress(strings.TrimSpace(addr.Address)) {
		return nil, fmt.Errorf("invalid contract address %q in %s", addr.Address, addressPath)
	}

	var artifact artifactFile
	if err := readJSON(artifactPath, &artifact); err != nil {
		return nil, err
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", artifactPath)
	}
	if artifact.ContractName != "" && artifact.ContractName != name {
		return nil, fmt.Errorf("artifact %s is for contract %q, expected %q", artifactPath, artifact.ContractName, name)
	}
	if err := validateABI(artifact.ABI); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", artifactPath, err)
	}

	return &Deployment{
		Name:    name,
		Address: strings.TrimSpace(addr.Address),
		ABI:     artifact.ABI,
	}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s is missing", ErrNotDeployed, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// validateABI checks that every required function is declared
func validateABI(raw json.RawMessage) error {
	var entries []abiEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("abi is not a list of entries: %w", err)
	}

	declared := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Type == "function" {
			declared[e.Name] = true
		}
	}

	var missing []string
	for _, fn := range RequiredFunctions {
		if !declared[fn] {
			missing = append(missing, fn)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("abi is missing functions %v", missing)
	}
	return nil
}

// Registry serves the current deployment, reading it from disk until it is found.
// The contract may be deployed after the server starts.
type Registry struct {
	dir  string
	name string

	mu         sync.RWMutex
	deployment *Deployment
}

// NewRegistry creates a registry for the named contract's artifacts in dir
func NewRegistry(dir, name string) *Registry {
	return &Registry{dir: dir, name: name}
}

// Get returns the deployment, loading it on first success
func (r *Registry) Get() (*Deployment, error) {
	r.mu.RLock()
	d := r.deployment
	r.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deployment != nil {
		return r.deployment, nil
	}

	d, err := Load(r.dir, r.name)
	if err != nil {
		return nil, err
	}
	r.deployment = d

	log.WithFields(log.Fields{
		"contract": d.Name,
		"address":  d.Address,
	}).Info("Loaded contract deployment")

	return d, nil
}
