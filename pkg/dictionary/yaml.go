package dictionary

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

const errUnableToLoadYAML = "unable to load dictionary yaml: %w"

type yamlDictionary struct {
	Nodes []yamlNodeType `yaml:"nodes"`
}

type yamlNodeType struct {
	Name   string      `yaml:"name"`
	Table  string      `yaml:"table"`
	Fields []yamlField `yaml:"fields"`
	Links  []yamlLink  `yaml:"links"`
}

type yamlField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type yamlLink struct {
	Name        string `yaml:"name"`
	Target      string `yaml:"target"`
	Cardinality string `yaml:"cardinality"`
	EdgeTable   string `yaml:"edge_table"`
	Backref     string `yaml:"backref"`
}

// YAMLSource is a dictionary Source backed by a YAML document.
type YAMLSource struct {
	contents []byte
}

// NewYAMLSource returns a Source reading the given YAML document.
func NewYAMLSource(contents []byte) *YAMLSource {
	return &YAMLSource{contents: contents}
}

// NewYAMLFileSource returns a Source reading the YAML document at path.
func NewYAMLFileSource(path string) (*YAMLSource, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(errUnableToLoadYAML, err)
	}
	return NewYAMLSource(contents), nil
}

func (s *YAMLSource) NodeTypeDefinitions() ([]Definition, error) {
	var doc yamlDictionary
	if err := yamlv3.Unmarshal(s.contents, &doc); err != nil {
		return nil, fmt.Errorf(errUnableToLoadYAML, err)
	}

	defs := make([]Definition, 0, len(doc.Nodes))
	backrefs := make(map[string][]Relationship)

	for _, node := range doc.Nodes {
		def := Definition{
			Name:  node.Name,
			Table: node.Table,
		}

		for _, f := range node.Fields {
			kind, err := parseFieldKind(f.Type)
			if err != nil {
				return nil, fmt.Errorf(errUnableToLoadYAML,
					fmt.Errorf("field %s.%s: %w", node.Name, f.Name, err))
			}
			def.Fields = append(def.Fields, Field{Name: f.Name, Kind: kind})
		}

		for _, l := range node.Links {
			card, err := parseCardinality(l.Cardinality)
			if err != nil {
				return nil, fmt.Errorf(errUnableToLoadYAML,
					fmt.Errorf("link %s.%s: %w", node.Name, l.Name, err))
			}

			edgeTable := l.EdgeTable
			if edgeTable == "" {
				edgeTable = "edge_" + node.Name + "_" + l.Name
			}

			def.Relationships = append(def.Relationships, Relationship{
				Name:        l.Name,
				TargetType:  l.Target,
				Cardinality: card,
				EdgeTable:   edgeTable,
			})

			// A backref declares the reverse traversal on the target type,
			// reusing the same edge table with the columns swapped.
			if l.Backref != "" {
				backrefs[l.Target] = append(backrefs[l.Target], Relationship{
					Name:        l.Backref,
					TargetType:  node.Name,
					Cardinality: Many,
					EdgeTable:   edgeTable,
					Reversed:    true,
				})
			}
		}

		defs = append(defs, def)
	}

	for i := range defs {
		defs[i].Relationships = append(defs[i].Relationships, backrefs[defs[i].Name]...)
	}

	return defs, nil
}

func parseFieldKind(name string) (FieldKind, error) {
	switch name {
	case "string", "":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "number":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "datetime":
		return KindDatetime, nil
	default:
		return KindString, fmt.Errorf("unknown field type %q", name)
	}
}

func parseCardinality(name string) (Cardinality, error) {
	switch name {
	case "one":
		return One, nil
	case "many", "":
		return Many, nil
	default:
		return Many, fmt.Errorf("unknown cardinality %q", name)
	}
}
