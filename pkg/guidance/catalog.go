// Package guidance holds the operator help text shown next to failed checks.
// Entries are informational only and never change workflow state.
package guidance

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed default.json
var defaultCatalog []byte

// Stages that may carry guidance.
var Stages = []string{"lead", "profile", "readiness", "interview", "onboarding"}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded guidance catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file. An empty path yields the embedded one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode guidance catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects unknown stages and entries without a user message.
func (c *Catalog) Validate() error {
	known := make(map[string]bool, len(Stages))
	for _, s := range Stages {
		known[s] = true
	}
	var problems []string
	for stage, entries := range c.Stages {
		if !known[stage] {
			problems = append(problems, fmt.Sprintf("unknown stage %q", stage))
			continue
		}
		for code, e := range entries {
			if strings.TrimSpace(e.UserMessage) == "" {
				problems = append(problems, fmt.Sprintf("%s/%s: missing userMessage", stage, code))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid guidance catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Lookup returns the entry for stage and code.
func (c *Catalog) Lookup(stage, code string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.Stages[stage][code]
	return e, ok
}

// Keys lists every "stage/code" pair in sorted order.
func (c *Catalog) Keys() []string {
	var out []string
	for stage, entries := range c.Stages {
		for code := range entries {
			out = append(out, stage+"/"+code)
		}
	}
	sort.Strings(out)
	return out
}
