package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// seedFile is the on-disk layout of an instance seed file
type seedFile struct {
	Instances []*Instance `yaml:"instances" toml:"instances"`
}

// LoadFile registers every instance declared in a YAML or TOML file.
// Relative working directories are resolved against the file's directory.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read instances file: %w", err)
	}

	var seed seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	case ".toml":
		err = toml.Unmarshal(data, &seed)
	default:
		return 0, fmt.Errorf("unsupported instances file format: %s", filepath.Ext(path))
	}
	if err != nil {
		return 0, fmt.Errorf("parse instances file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	loaded := 0
	for _, inst := range seed.Instances {
		if inst == nil {
			continue
		}
		if inst.Cwd != "" && !filepath.IsAbs(inst.Cwd) {
			inst.Cwd = filepath.Join(base, inst.Cwd)
		}
		if err := r.Add(inst); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
