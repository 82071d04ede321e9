package challenge

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed challenges.yaml
var defaultCatalog []byte

type Challenge struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the fixed set of challenges a team can pick from.
type Catalog struct {
	challenges []Challenge
	byID       map[string]Challenge
}

type catalogFile struct {
	Challenges []Challenge `yaml:"challenges"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file; an empty path falls back to the embedded one.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read challenge catalog")
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode challenge catalog")
	}
	if len(f.Challenges) == 0 {
		return nil, errors.New("challenge catalog is empty")
	}

	c := &Catalog{byID: make(map[string]Challenge, len(f.Challenges))}
	for _, ch := range f.Challenges {
		if ch.ID == "" {
			return nil, errors.Errorf("challenge %q has no id", ch.Title)
		}
		if _, dup := c.byID[ch.ID]; dup {
			return nil, errors.Errorf("duplicate challenge id %q", ch.ID)
		}
		c.byID[ch.ID] = ch
		c.challenges = append(c.challenges, ch)
	}
	return c, nil
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) All() []Challenge {
	out := make([]Challenge, len(c.challenges))
	copy(out, c.challenges)
	return out
}
