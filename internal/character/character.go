// Package character loads the agent persona from a YAML profile.
package character

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Character is the persona the agent speaks as.
type Character struct {
	Name         string            `yaml:"name"`
	Username     string            `yaml:"username"`
	Bio          []string          `yaml:"bio"`
	Lore         []string          `yaml:"lore"`
	Topics       []string          `yaml:"topics"`
	Knowledge    []string          `yaml:"knowledge"`
	PostExamples []string          `yaml:"postExamples"`
	Style        Style             `yaml:"style"`
	Settings     map[string]string `yaml:"settings"`
}

// Style holds writing directions.
type Style struct {
	All  []string `yaml:"all"`
	Post []string `yaml:"post"`
}

// Load reads and parses the profile at path.
func Load(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse character file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML profile.
func Parse(data []byte) (*Character, error) {
	var c Character
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("character name is required")
	}
	if c.Settings == nil {
		c.Settings = make(map[string]string)
	}
	return &c, nil
}

// BioText joins the bio lines into a paragraph.
func (c *Character) BioText() string {
	return strings.Join(c.Bio, " ")
}

// LoreText returns at most max lore lines, one per line.
func (c *Character) LoreText(max int) string {
	lore := c.Lore
	if max > 0 && len(lore) > max {
		lore = lore[:max]
	}
	return strings.Join(lore, "\n")
}

// TopicsText describes the topics the agent is interested in.
func (c *Character) TopicsText() string {
	switch len(c.Topics) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is interested in %s", c.Name, c.Topics[0])
	default:
		head := strings.Join(c.Topics[:len(c.Topics)-1], ", ")
		return fmt.Sprintf("%s is interested in %s and %s", c.Name, head, c.Topics[len(c.Topics)-1])
	}
}

// KnowledgeText returns the knowledge items as a bullet list.
func (c *Character) KnowledgeText() string {
	return bullets(c.Knowledge)
}

// PostExamplesText renders the example posts under a heading.
func (c *Character) PostExamplesText() string {
	if len(c.PostExamples) == 0 {
		return ""
	}
	return fmt.Sprintf("# Example Posts for %s\n%s", c.Name, strings.Join(c.PostExamples, "\n"))
}

// PostDirectionsText renders the post style directions under a heading.
func (c *Character) PostDirectionsText() string {
	directions := append(append([]string{}, c.Style.All...), c.Style.Post...)
	if len(directions) == 0 {
		return ""
	}
	return fmt.Sprintf("# Post Directions for %s\n%s", c.Name, strings.Join(directions, "\n"))
}

func bullets(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
