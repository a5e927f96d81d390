// Package toml persists the node inventory in a TOML file located through
// viper, with atomic writes so a crashed save never corrupts the inventory.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/yaahc/scdoall-rewrite/internal/domain"
	"github.com/yaahc/scdoall-rewrite/internal/ports"
)

const (
	configName        = "config"
	configType        = "toml"
	inventoryPathKey  = "inventory.path"
	inventoryFileMode = 0o600
	inventoryDirMode  = 0o700
	configDir         = ".sca"
	inventoryFile     = "inventory.toml"
	tempFilePattern   = ".inventory-*.toml.tmp"
)

type Repository struct {
	inventoryPath string
	mu            *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.NodeDirectory = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDir, inventoryFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(inventoryPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	inventoryPath := cfg.GetString(inventoryPathKey)
	if inventoryPath == "" {
		return nil, errors.New("inventory path is empty")
	}
	inventoryPath, err = normalizeInventoryPath(inventoryPath)
	if err != nil {
		return nil, err
	}

	return &Repository{inventoryPath: inventoryPath, mu: lockForPath(inventoryPath)}, nil
}

func (r *Repository) Resolve(ctx context.Context, cluster string) ([]domain.Node, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]domain.Node, 0, len(all))
	for _, node := range all {
		if cluster != "" && node.Cluster != cluster {
			continue
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		return nil, domain.ErrNoNodes
	}

	return nodes, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	nodes := make([]domain.Node, 0, len(file.Nodes))
	for _, entry := range file.Nodes {
		nodes = append(nodes, fromSchema(entry))
	}

	return nodes, nil
}

func (r *Repository) Add(ctx context.Context, node domain.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := node.Validate(); err != nil {
		return fmt.Errorf("validate node: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(node)
	for _, entry := range file.Nodes {
		if entry.Name == encoded.Name && entry.Name != "" {
			return fmt.Errorf("add node %q: %w", node.Name, domain.ErrNodeExists)
		}
	}

	file.Nodes = append(file.Nodes, encoded)

	return r.writeSchema(file)
}

func (r *Repository) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	kept := file.Nodes[:0]
	removed := false
	for _, entry := range file.Nodes {
		if entry.Name == name {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return fmt.Errorf("remove node %q: %w", name, domain.ErrNodeNotFound)
	}
	file.Nodes = kept

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.inventoryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read inventory file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode inventory file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.inventoryPath), inventoryDirMode); err != nil {
		return fmt.Errorf("create inventory directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode inventory file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.inventoryPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp inventory file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp inventory file: %w", err)
	}

	if err := tempFile.Chmod(inventoryFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp inventory file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp inventory file: %w", err)
	}

	if err := os.Rename(tempName, r.inventoryPath); err != nil {
		return fmt.Errorf("replace inventory file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.inventoryPath, inventoryFileMode); err != nil {
		return fmt.Errorf("chmod inventory file: %w", err)
	}

	return nil
}

func normalizeInventoryPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve inventory path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
