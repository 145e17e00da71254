package latex

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog describes the control sequences the parser understands.
type Catalog struct {
	OperationNames []string          `yaml:"operations"`
	Multiplication []string          `yaml:"multiplication"`
	Division       []string          `yaml:"division"`
	Functions      map[string]string `yaml:"functions"`
	Inverses       map[string]string `yaml:"inverses"`
	Symbols        map[string]string `yaml:"symbols"`
	Relations      map[string]string `yaml:"relations"`
	Ignored        []string          `yaml:"ignored"`
	Fonts          []string          `yaml:"fonts"`
	Unicode        map[string]string `yaml:"unicode"`

	mulSet    map[string]bool
	divSet    map[string]bool
	ignoreSet map[string]bool
	fontSet   map[string]bool
	replacer  *strings.Replacer
}

// LoadCatalog parses a YAML command catalog.
func LoadCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode latex catalog: %w", err)
	}
	if len(c.Functions) == 0 {
		return nil, fmt.Errorf("latex catalog defines no functions")
	}
	c.index()
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) index() {
	c.mulSet = toSet(c.Multiplication)
	c.divSet = toSet(c.Division)
	c.ignoreSet = toSet(c.Ignored)
	c.fontSet = toSet(c.Fonts)

	// Longest keys first so multi-rune sequences win over their prefixes.
	keys := make([]string, 0, len(c.Unicode))
	for k := range c.Unicode {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, c.Unicode[k])
	}
	c.replacer = strings.NewReplacer(pairs...)
}

// Operations lists the commands advertised to clients.
func (c *Catalog) Operations() []string {
	out := make([]string, len(c.OperationNames))
	copy(out, c.OperationNames)
	return out
}

func (c *Catalog) isMultiplication(cmd string) bool { return c.mulSet[cmd] }
func (c *Catalog) isDivision(cmd string) bool       { return c.divSet[cmd] }
func (c *Catalog) isIgnored(cmd string) bool        { return c.ignoreSet[cmd] }
func (c *Catalog) isFont(cmd string) bool           { return c.fontSet[cmd] }

func (c *Catalog) function(cmd string) (string, bool) {
	name, ok := c.Functions[cmd]
	return name, ok
}

func (c *Catalog) symbol(cmd string) (string, bool) {
	name, ok := c.Symbols[cmd]
	return name, ok
}

func (c *Catalog) relation(cmd string) (string, bool) {
	op, ok := c.Relations[cmd]
	return op, ok
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
