// internal/form/definition.go
//
// YAML form definitions.
//
// Context
// -------
// Each HTML form is declared once, in a YAML file under
// components/<comp>/forms/<name>.yaml, and registered at boot under its
// composite ID ("admin/login", "portal/contact").  Handlers validate
// submissions against the definition, so the server enforces exactly
// what the template renders.  Bad definitions fail the whole Load, at
// boot, instead of the first submit.
//
// Notes
// -----
//   - Patterns compile at load; Validate never compiles regexps.
//   - Oxford commas, two spaces after periods.
package form

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Definition is one form loaded from YAML.
type Definition struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Fields []Field `yaml:"fields"`
}

// Field describes one input control.  Validation metadata lives inline
// so the server enforces the same rules the template hints at.
type Field struct {
	Name        string   `yaml:"name"`
	Label       string   `yaml:"label"`
	Type        string   `yaml:"type"`
	Placeholder string   `yaml:"placeholder"`
	Required    bool     `yaml:"required"`
	MinLength   int      `yaml:"minlength"`
	MaxLength   int      `yaml:"maxlength"`
	Pattern     string   `yaml:"pattern"`
	Options     []string `yaml:"options"`
	ErrorMsg    string   `yaml:"error"`

	re *regexp.Regexp // compiled Pattern, set during check
}

var fieldTypes = map[string]bool{
	"text": true, "textarea": true, "email": true, "password": true,
	"number": true, "date": true, "checkbox": true, "select": true,
	"radio": true,
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Definition{}
)

// Lookup returns a registered definition by composite ID.
func Lookup(id string) (*Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[id]
	return d, ok
}

// Names returns the registered form IDs sorted, for diagnostics.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for id := range registry {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Register checks and adds one definition, replacing any previous one
// with the same ID.  Production forms arrive through Load; tests and
// embedded defaults use Register directly.
func Register(d *Definition) error {
	if err := check(d, d.ID); err != nil {
		return err
	}
	registryMu.Lock()
	registry[d.ID] = d
	registryMu.Unlock()
	return nil
}

// Load walks root/components/<comp>/forms/*.yaml and registers every
// definition found.  A missing components directory is fine; a file
// that fails to parse is not.
func Load(root string) error {
	base := filepath.Join(root, "components")
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Base(filepath.Dir(path)) != "forms" {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".yaml") && !strings.HasSuffix(d.Name(), ".yml") {
			return nil
		}
		def, err := parseFile(path)
		if err != nil {
			return err
		}
		registryMu.Lock()
		registry[def.ID] = def
		registryMu.Unlock()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func parseFile(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form %s: %w", path, err)
	}
	var d Definition
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse form %s: %w", path, err)
	}
	if err := check(&d, path); err != nil {
		return nil, err
	}
	return &d, nil
}

// check enforces the structural rules YAML tags cannot express, and
// compiles field patterns in place.
func check(d *Definition, src string) error {
	if d.ID == "" {
		return fmt.Errorf("form %s: missing id", src)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("form %s: no fields", src)
	}

	seen := map[string]bool{}
	for i := range d.Fields {
		f := &d.Fields[i]
		switch {
		case f.Name == "":
			return fmt.Errorf("form %s: field %d missing name", src, i)
		case f.Label == "":
			return fmt.Errorf("form %s: field %q missing label", src, f.Name)
		case !fieldTypes[f.Type]:
			return fmt.Errorf("form %s: field %q has unknown type %q", src, f.Name, f.Type)
		case seen[f.Name]:
			return fmt.Errorf("form %s: duplicate field %q", src, f.Name)
		case f.MinLength < 0 || f.MaxLength < 0:
			return fmt.Errorf("form %s: field %q has negative length bound", src, f.Name)
		case f.MaxLength > 0 && f.MinLength > f.MaxLength:
			return fmt.Errorf("form %s: field %q minlength exceeds maxlength", src, f.Name)
		}
		if (f.Type == "select" || f.Type == "radio") && len(f.Options) == 0 {
			return fmt.Errorf("form %s: field %q needs options", src, f.Name)
		}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return fmt.Errorf("form %s: field %q pattern: %w", src, f.Name, err)
			}
			f.re = re
		}
		seen[f.Name] = true
	}
	return nil
}
