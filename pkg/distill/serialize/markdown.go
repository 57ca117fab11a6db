package serialize

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header prepended to markdown output.
type FrontMatter struct {
	Source      string    `yaml:"source"`
	Language    string    `yaml:"language"`
	Pages       int       `yaml:"pages"`
	Characters  int       `yaml:"characters"`
	ConvertedAt time.Time `yaml:"converted_at"`
}

// RenderMarkdown produces the .md payload. When fm is non-nil a fenced YAML
// front-matter block precedes the normalized content.
func RenderMarkdown(content string, fm *FrontMatter) (string, error) {
	body := Normalize(content)
	if fm == nil {
		return body, nil
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}
	return "---\n" + string(head) + "---\n\n" + body, nil
}
