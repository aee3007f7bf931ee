package forms

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the file name of the field catalog inside a forms directory
const CatalogFile = "catalog.yaml"

// LoadSchema reads a single schema from a YAML file
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if schema.ID == "" {
		schema.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &schema, nil
}

// LoadDir reads every schema in dir keyed by ID. The catalog file is skipped.
func LoadDir(dir string) (map[string]*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read forms directory: %w", err)
	}

	schemas := map[string]*Schema{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == CatalogFile {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}

		schema, err := LoadSchema(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, exists := schemas[schema.ID]; exists {
			return nil, fmt.Errorf("%s: duplicate schema id %q", name, schema.ID)
		}
		schemas[schema.ID] = schema
	}

	return schemas, nil
}

// IDs returns the sorted schema IDs
func IDs(schemas map[string]*Schema) []string {
	ids := make([]string, 0, len(schemas))
	for id := range schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Catalog lists the tables, columns and measures offered by option sources
type Catalog struct {
	Tables   []Option            `json:"tables" yaml:"tables"`
	Columns  map[string][]Option `json:"columns" yaml:"columns"`
	Measures map[string][]Option `json:"measures" yaml:"measures"`
	// Extra holds named lists such as visualTypes
	Extra map[string][]Option `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// LoadCatalog reads a catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &catalog, nil
}

// Options resolves an optionsFrom reference against the current values.
//
//	tables:<group>    tables in the group, all tables when group is empty
//	columns:<field>   columns of the table selected in field
//	measures:<field>  measures of the table selected in field
//	<name>            a named Extra list
func (c *Catalog) Options(ref string, values Values) []Option {
	if c == nil || ref == "" {
		return nil
	}

	source, arg, _ := strings.Cut(ref, ":")
	switch source {
	case "tables":
		if arg == "" {
			return c.Tables
		}
		var tables []Option
		for _, t := range c.Tables {
			if t.Group == arg {
				tables = append(tables, t)
			}
		}
		return tables
	case "columns":
		return c.Columns[selected(values, arg)]
	case "measures":
		return c.Measures[selected(values, arg)]
	default:
		return c.Extra[ref]
	}
}

func selected(values Values, field string) string {
	s, _ := values[field].(string)
	return s
}

// Resolve returns a copy of the schema with every optionsFrom field's options filled in
func (c *Catalog) Resolve(schema *Schema, values Values) *Schema {
	resolved := *schema
	resolved.Fields = c.resolveFields(schema.Fields, values)
	return &resolved
}

func (c *Catalog) resolveFields(fields []Field, values Values) []Field {
	out := make([]Field, len(fields))
	for i, field := range fields {
		if field.OptionsFrom != "" {
			field.Options = c.Options(field.OptionsFrom, values)
		}
		if len(field.Children) > 0 {
			field.Children = c.resolveFields(field.Children, values)
		}
		out[i] = field
	}
	return out
}
