package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/breadlog-backend/internal/platform/envutil"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type File struct {
	Categories  []CategorySpec   `yaml:"categories"`
	Ingredients []IngredientSpec `yaml:"ingredients"`
	Parameters  []ParameterSpec  `yaml:"parameters"`
	Templates   []TemplateSpec   `yaml:"templates"`
	Recipes     []RecipeSpec     `yaml:"recipes"`
}

type CategorySpec struct {
	Name  string `yaml:"name"`
	Order int    `yaml:"order"`
}

type IngredientSpec struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

type ParameterSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Unit        string   `yaml:"unit"`
	Description string   `yaml:"description"`
	Options     []string `yaml:"options"`
}

type TemplateSpec struct {
	Name        string `yaml:"name"`
	StepType    string `yaml:"step_type"`
	Description string `yaml:"description"`
}

type RecipeSpec struct {
	Name         string     `yaml:"name"`
	Notes        string     `yaml:"notes"`
	TotalWeight  *float64   `yaml:"total_weight"`
	HydrationPct *float64   `yaml:"hydration_pct"`
	SaltPct      *float64   `yaml:"salt_pct"`
	Steps        []StepSpec `yaml:"steps"`
}

type StepSpec struct {
	Template    string               `yaml:"template"`
	Order       int                  `yaml:"order"`
	Description string               `yaml:"description"`
	Notes       string               `yaml:"notes"`
	Ingredients []StepIngredientSpec `yaml:"ingredients"`
	Parameters  []StepParameterSpec  `yaml:"parameters"`
}

type StepIngredientSpec struct {
	Ingredient string  `yaml:"ingredient"`
	Amount     float64 `yaml:"amount"`
	// Mode defaults to PERCENTAGE.
	Mode        string `yaml:"mode"`
	Preparation string `yaml:"preparation"`
}

type StepParameterSpec struct {
	Parameter string `yaml:"parameter"`
	Value     any    `yaml:"value"`
	Notes     string `yaml:"notes"`
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(raw []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	return &f, nil
}

// Embedded returns the seed file compiled into the binary.
func Embedded() (*File, error) { return Parse(embeddedCatalog) }

// FromEnv reads CATALOG_SEED_YAML when set, otherwise the embedded file.
func FromEnv() (*File, error) {
	path := envutil.String("CATALOG_SEED_YAML", "")
	if path == "" {
		return Embedded()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(raw)
}
