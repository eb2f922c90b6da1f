// Package config resolves the server's startup configuration from CLI
// flags plus an optional JSON config file, the way spec.md's CLI (§6.3)
// describes: flags supply defaults, and -c's file content overrides any
// flag the user did not explicitly pass.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/edirooss/vectordb-server/pkg/jsonx"
)

// Config holds the fully resolved startup configuration.
type Config struct {
	Port       int    // -p, default 8888
	Dimension  int    // -d, default 3
	VectorSize int    // -s, enforced at the adapter; defaults to Dimension
	DBFilename string // -f, default "vector_database.db"
	ConfigPath string // -c, optional
}

// fileOverrides mirrors the JSON keys spec.md §6.3 names.
type fileOverrides struct {
	DBFilename             *string `json:"DB_FILENAME"`
	DefaultPort            *int    `json:"DEFAULT_PORT"`
	DefaultKDTreeDimension *int    `json:"DEFAULT_KD_TREE_DIMENSION"`
	DBVectorSize           *int    `json:"DB_VECTOR_SIZE"`
}

// Parse parses args (typically os.Args[1:]) into a Config. CLI flags
// are applied first; if -c names a readable JSON file, its fields
// override any flag the caller did not explicitly set on the command
// line (flag.Visit reports only flags explicitly passed).
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("vectordb-server", flag.ContinueOnError)

	port := fs.Int("p", 8888, "listen port")
	dim := fs.Int("d", 3, "configured KD-tree / vector dimension")
	size := fs.Int("s", 0, "expected vector size enforced at the adapter (default: same as -d)")
	file := fs.String("f", "vector_database.db", "persistence file path")
	cfgPath := fs.String("c", "", "optional JSON config file overriding the above")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg := Config{
		Port:       *port,
		Dimension:  *dim,
		VectorSize: *size,
		DBFilename: *file,
		ConfigPath: *cfgPath,
	}
	if cfg.VectorSize == 0 {
		cfg.VectorSize = cfg.Dimension
	}

	if cfg.ConfigPath != "" {
		ov, err := loadOverrides(cfg.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", cfg.ConfigPath, err)
		}
		if ov.DBFilename != nil && !explicit["f"] {
			cfg.DBFilename = *ov.DBFilename
		}
		if ov.DefaultPort != nil && !explicit["p"] {
			cfg.Port = *ov.DefaultPort
		}
		if ov.DefaultKDTreeDimension != nil && !explicit["d"] {
			cfg.Dimension = *ov.DefaultKDTreeDimension
		}
		if ov.DBVectorSize != nil && !explicit["s"] {
			cfg.VectorSize = *ov.DBVectorSize
		}
	}

	if cfg.Dimension < 1 {
		return Config{}, fmt.Errorf("invalid dimension %d: must be >= 1", cfg.Dimension)
	}
	if cfg.VectorSize != cfg.Dimension {
		return Config{}, fmt.Errorf("vector size %d does not match configured dimension %d", cfg.VectorSize, cfg.Dimension)
	}

	return cfg, nil
}

func loadOverrides(path string) (fileOverrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileOverrides{}, err
	}
	defer f.Close()

	var ov fileOverrides
	if err := jsonx.ParseJSONObject(f, &ov); err != nil {
		return fileOverrides{}, err
	}
	return ov, nil
}
