package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fjacquet/ledger-import/internal/logging"
)

// templateFile is the on-disk shape of a template configuration document.
type templateFile struct {
	Templates []Descriptor `yaml:"templates"`
}

// LoadFile reads descriptors from a YAML document and registers each one.
// A single invalid descriptor fails the whole load; templates are config,
// and a partially loaded registry hides mistakes until import time.
func LoadFile(path string, registry *Registry, logger logging.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading template file: %w", err)
	}

	var doc templateFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("error parsing template file %s: %w", path, err)
	}

	for _, desc := range doc.Templates {
		if err := registry.Register(desc); err != nil {
			return 0, fmt.Errorf("template file %s: %w", path, err)
		}
		logger.Debug("Registered template",
			logging.Field{Key: logging.FieldTemplate, Value: desc.ID})
	}

	logger.Info("Loaded templates",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(doc.Templates)})
	return len(doc.Templates), nil
}
