package seed

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset describes the size and shape of a seeded dataset.
type Preset struct {
	Name            string  `yaml:"name"`
	Users           int     `yaml:"users"`
	Posts           int     `yaml:"posts"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	ReactionRatio   float64 `yaml:"reaction_ratio"`
	ImageRatio      float64 `yaml:"image_ratio"`
	MaxDays         int     `yaml:"max_days"`
}

// BuiltinPresets are available by name without a file.
var BuiltinPresets = map[string]Preset{
	"minimal": {Name: "minimal", Users: 3, Posts: 10, CommentsPerPost: 2, ReactionRatio: 0.3, ImageRatio: 0.2, MaxDays: 7},
	"demo":    {Name: "demo", Users: 25, Posts: 120, CommentsPerPost: 4, ReactionRatio: 0.25, ImageRatio: 0.4, MaxDays: 60},
	"busy":    {Name: "busy", Users: 200, Posts: 2000, CommentsPerPost: 8, ReactionRatio: 0.15, ImageRatio: 0.4, MaxDays: 180},
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// ParsePresets reads a YAML document of the form `presets: [{name: ..., users: ...}]`.
func ParsePresets(r io.Reader) (map[string]Preset, error) {
	var doc presetFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	out := make(map[string]Preset, len(doc.Presets))
	for _, p := range doc.Presets {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		out[p.Name] = p
	}
	return out, nil
}

// LoadPresetFile parses presets from path and merges them over the built-ins.
func LoadPresetFile(path string) (map[string]Preset, error) {
	merged := make(map[string]Preset, len(BuiltinPresets))
	for k, v := range BuiltinPresets {
		merged[k] = v
	}
	if path == "" {
		return merged, nil
	}

	f, err := os.Open(path) // #nosec G304: operator-supplied path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	custom, err := ParsePresets(f)
	if err != nil {
		return nil, err
	}
	for k, v := range custom {
		merged[k] = v
	}
	return merged, nil
}

// PresetNames lists preset names in a stable order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Preset) validate() error {
	switch {
	case p.Users <= 0:
		return fmt.Errorf("users must be positive")
	case p.Posts < 0 || p.CommentsPerPost < 0:
		return fmt.Errorf("posts and comments_per_post cannot be negative")
	case p.ReactionRatio < 0 || p.ReactionRatio > 1:
		return fmt.Errorf("reaction_ratio must be within [0, 1]")
	case p.ImageRatio < 0 || p.ImageRatio > 1:
		return fmt.Errorf("image_ratio must be within [0, 1]")
	}
	return nil
}
