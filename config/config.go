package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"shardring/hashing"
	"shardring/ring"
)

// NodeConfig describes one physical node to place on the ring.
type NodeConfig struct {
	ID     string `yaml:"id"`
	Weight int    `yaml:"weight"`
}

// Config holds the ring configuration.
type Config struct {
	VirtualNodes int          `yaml:"virtual_nodes"`
	HashFunction string       `yaml:"hash_function"`
	Nodes        []NodeConfig `yaml:"nodes"`
}

// ParseNodes parses a comma-separated node list in the format:
// "id1=weight1,id2=weight2". The weight may be omitted ("id1,id2=3") and
// defaults to 1.
func ParseNodes(nodesStr string) ([]NodeConfig, error) {
	if nodesStr == "" {
		return []NodeConfig{}, nil
	}

	parts := strings.Split(nodesStr, ",")
	nodes := make([]NodeConfig, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		id := strings.TrimSpace(kv[0])
		if id == "" {
			return nil, fmt.Errorf("node ID cannot be empty: %s", part)
		}

		weight := 1
		if len(kv) == 2 {
			w, err := strconv.Atoi(strings.TrimSpace(kv[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid weight for node %s: %q", id, kv[1])
			}
			weight = w
		}
		if weight < 1 {
			return nil, fmt.Errorf("node %s: weight must be positive, got %d", id, weight)
		}

		nodes = append(nodes, NodeConfig{ID: id, Weight: weight})
	}

	return nodes, nil
}

// Load reads a YAML ring configuration from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildRing constructs a ring from the configuration and adds every
// configured node. A node with zero weight gets the default weight of 1;
// negative weights and duplicate IDs are errors.
func (c *Config) BuildRing() (*ring.Ring, error) {
	fn, err := hashing.New(c.HashFunction)
	if err != nil {
		return nil, err
	}

	opts := []ring.Option{ring.WithHash(fn)}
	if c.VirtualNodes > 0 {
		opts = append(opts, ring.WithVirtualNodes(c.VirtualNodes))
	}
	r := ring.New(opts...)

	for _, n := range c.Nodes {
		weight := n.Weight
		if weight == 0 {
			weight = 1
		}
		added, err := r.AddNode(n.ID, weight)
		if err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
		if !added {
			return nil, fmt.Errorf("duplicate node %s in config", n.ID)
		}
	}
	return r, nil
}
