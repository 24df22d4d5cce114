package exprsearch

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ToolConfig holds the knobs shared by the command-line tools.
type ToolConfig struct {
	LogLevel string        `toml:"log_level"`
	RunLog   *RunLogConfig `toml:"runlog"`
}

// SearchConfig bundles the per-driver parameter blocks. Driver is decoded but
// not consulted: the exprsearch command reads the block of the subcommand it
// runs.
type SearchConfig struct {
	Driver string     `toml:"driver"`
	MC     MCParams   `toml:"mc"`
	PMC    PMCParams  `toml:"pmc"`
	GP     GPParams   `toml:"gp"`
	MCTS   MCTSParams `toml:"mcts"`
}

// LoadToolConfig decodes a TOML tool config.
func LoadToolConfig(path string) (*ToolConfig, error) {
	var cfg ToolConfig
	if err := decodeTOML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSearchConfig decodes a TOML search config.
func LoadSearchConfig(path string) (*SearchConfig, error) {
	var cfg SearchConfig
	if err := decodeTOML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeTOML(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}
	defer f.Close()
	if _, err := toml.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	return nil
}
