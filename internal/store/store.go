// Package store persists schema documents as YAML (or JSON) files in a
// directory, one file per schema. Loading always returns a document at the
// current engine version in working form; saving always writes stored form.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tabload/tabload/internal/schema"
	"github.com/tabload/tabload/pkg/logger"
)

const fileSuffix = ".schema.yaml"

type Store struct {
	dir string
	log *logger.Logger
}

func NewStore(dir string, log *logger.Logger) *Store {
	return &Store{dir: dir, log: log}
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, schema.NormalizeName(name)+fileSuffix)
}

// Save writes the schema in stored form. The schema itself is left in
// working form; collapsing happens on an independent copy.
func (s *Store) Save(sch *schema.StoredSchema) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create schema directory: %w", err)
	}

	clean := *sch
	clean.Tables = schema.RemoveDefaults(sch.Tables)

	data, err := yaml.Marshal(&clean)
	if err != nil {
		return "", fmt.Errorf("failed to serialize schema %q: %w", sch.Name, err)
	}

	path := s.Path(sch.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write schema file: %w", err)
	}

	s.log.WithSchema(sch.Name).Debugf("Saved schema to %s", path)
	return path, nil
}

func (s *Store) Load(name string) (*schema.StoredSchema, error) {
	return s.LoadFile(s.Path(name))
}

// LoadFile reads a schema document from an arbitrary path (.json files are
// decoded as JSON, everything else as YAML), migrates it to the current
// engine version, validates its shape and expands it into working form.
func (s *Store) LoadFile(path string) (*schema.StoredSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	doc, err := DecodeDocument(path, data)
	if err != nil {
		return nil, err
	}

	version, err := schema.StoredEngineVersion(doc)
	if err != nil {
		return nil, err
	}
	if version != schema.EngineVersion {
		s.log.Infof("Migrating schema %v from engine version %d to %d", doc["name"], version, schema.EngineVersion)
		if doc, err = schema.Upgrade(doc, version, schema.EngineVersion); err != nil {
			return nil, err
		}
	}

	if err := schema.ValidateStored(doc); err != nil {
		return nil, err
	}

	stored, err := decodeStored(doc)
	if err != nil {
		return nil, err
	}
	schema.ApplyDefaults(stored)
	return stored, nil
}

// List returns the names of all schemas in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileSuffix))
	}
	return names, nil
}

// DecodeDocument parses raw schema bytes into the untyped document form the
// migrator operates on.
func DecodeDocument(path string, data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse schema document: %w", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	return doc, nil
}

func decodeStored(doc map[string]any) (*schema.StoredSchema, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode schema document: %w", err)
	}
	var stored schema.StoredSchema
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode schema document: %w", err)
	}
	return &stored, nil
}
