package slurm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMemKind says what a default memory allocation is relative to.
type DefaultMemKind int

const (
	Unlimited DefaultMemKind = iota
	PerCPU
	PerGPU
	PerNode
)

// DefaultMem is a default memory allocation set via DefMemPer* options.
type DefaultMem struct {
	Kind DefaultMemKind
	// MB is the allocation in MB; zero when Unlimited.
	MB int
}

func (d DefaultMem) String() string {
	switch d.Kind {
	case PerCPU:
		return fmt.Sprintf("%dM/CPU", d.MB)
	case PerGPU:
		return fmt.Sprintf("%dM/GPU", d.MB)
	case PerNode:
		return fmt.Sprintf("%dM/node", d.MB)
	}
	return "unlimited"
}

// defMemKeys are checked in this order for per-partition values.
var defMemKeys = []struct {
	key  string
	kind DefaultMemKind
}{
	{"DefMemPerCPU", PerCPU},
	{"DefMemPerGPU", PerGPU},
	{"DefMemPerNode", PerNode},
}

// parseDefaultMem returns false on UNLIMITED and invalid values.
func parseDefaultMem(key, value string) (DefaultMem, bool) {
	for _, k := range defMemKeys {
		if k.key != key {
			continue
		}
		mb, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || mb < 0 {
			return DefaultMem{}, false
		}
		return DefaultMem{Kind: k.kind, MB: mb}, true
	}
	return DefaultMem{}, false
}

// Config is the part of the Slurm configuration the dashboard uses.
type Config struct {
	DefaultMem DefaultMem
	// Partitions maps partition labels to their default allocation.
	Partitions map[string]DefaultMem
}

// NodeDefaultMem returns the effective default allocation for nodes in a
// partition: the partition value unless unlimited, else the cluster value.
func (c *Config) NodeDefaultMem(partition string) DefaultMem {
	if c == nil {
		return DefaultMem{}
	}
	if mem, ok := c.Partitions[partition]; ok && mem.Kind != Unlimited {
		return mem
	}
	return c.DefaultMem
}

// ParseConfig reads the "Key = Value" lines of `scontrol show config`.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{Partitions: make(map[string]DefaultMem)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		if mem, ok := parseDefaultMem(strings.TrimSpace(key), value); ok {
			cfg.DefaultMem = mem
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scontrol config output: %w", err)
	}
	return cfg, nil
}

// ParsePartitions reads `scontrol show partition --oneline` output, one
// whitespace-separated Key=Value record per line, into cfg.Partitions.
func ParsePartitions(cfg *Config, data []byte) error {
	if cfg.Partitions == nil {
		cfg.Partitions = make(map[string]DefaultMem)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		values := make(map[string]string)
		for _, token := range strings.Fields(scanner.Text()) {
			if key, value, ok := strings.Cut(token, "="); ok {
				values[key] = value
			}
		}

		name, ok := values["PartitionName"]
		if !ok {
			continue
		}
		var mem DefaultMem
		for _, k := range defMemKeys {
			if parsed, ok := parseDefaultMem(k.key, values[k.key]); ok {
				mem = parsed
				break
			}
		}
		cfg.Partitions[name] = mem
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading scontrol partition output: %w", err)
	}
	return nil
}
