package toml

import (
	"fmt"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int          `toml:"version"`
	Nodes   []nodeSchema `toml:"nodes"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported inventory schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type nodeSchema struct {
	Name    string `toml:"name"`
	Host    string `toml:"host"`
	Port    int    `toml:"port,omitempty"`
	User    string `toml:"user,omitempty"`
	Cluster string `toml:"cluster,omitempty"`
}

func toSchema(node domain.Node) nodeSchema {
	return nodeSchema{
		Name:    node.Name,
		Host:    node.Host,
		Port:    node.Port,
		User:    node.User,
		Cluster: node.Cluster,
	}
}

func fromSchema(entry nodeSchema) domain.Node {
	return domain.Node{
		Name:    entry.Name,
		Host:    entry.Host,
		Port:    entry.Port,
		User:    entry.User,
		Cluster: entry.Cluster,
	}
}
