package mediatypes

import "gopkg.in/yaml.v3"

// Format is one accepted container, keyed by its file extension
type Format struct {
	// Extension without the dot, set during YAML unmarshaling
	Extension string `yaml:"-" json:"extension"`

	DisplayName string   `yaml:"display_name" json:"display_name"`
	MIMETypes   []string `yaml:"mime_types" json:"mime_types"`
}

// Catalog is the parsed form of one media category file
type Catalog struct {
	Category string   `yaml:"category" json:"category"`
	Formats  []Format `yaml:"-" json:"formats"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML keeps formats in file order
func (c *Catalog) UnmarshalYAML(node *yaml.Node) error {
	type formatsOnly struct {
		Category string            `yaml:"category"`
		Formats  map[string]Format `yaml:"formats"`
	}
	var m formatsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}
	c.Category = m.Category

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "formats" {
			continue
		}
		formatsNode := node.Content[i+1]
		// formatsNode.Content alternates key, value
		for j := 0; j+1 < len(formatsNode.Content); j += 2 {
			ext := formatsNode.Content[j].Value
			if f, ok := m.Formats[ext]; ok {
				f.Extension = ext
				c.Formats = append(c.Formats, f)
			}
		}
		break
	}

	return nil
}
