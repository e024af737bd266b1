// Package samples provides the built-in complaint texts used for quick
// submissions and demos, and loads custom datasets in the same YAML shape.
package samples

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultDataset is used when no file is specified.
//
//go:embed complaints.yaml
var defaultDataset []byte

// ─── YAML dataset model ───────────────────────────────────────────────────────

type dataset struct {
	Complaints []Sample `yaml:"complaints"`
}

// Sample mirrors one entry in the dataset file.
type Sample struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Product string   `yaml:"product"`
	Tags    []string `yaml:"tags"`
	Text    string   `yaml:"text"`
}

// Load parses the dataset at filename. When filename is empty the built-in
// dataset is used. Entries without text are rejected.
func Load(filename string) ([]Sample, error) {
	raw := defaultDataset
	if filename != "" {
		var err error
		raw, err = os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %w", err)
		}
	}
	return Parse(raw)
}

func Parse(raw []byte) ([]Sample, error) {
	var ds dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	for i, s := range ds.Complaints {
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("parsing dataset: complaint %d (%s) has no text", i+1, s.ID)
		}
	}
	return ds.Complaints, nil
}

// Find selects a sample by 1-based position or by id (case-insensitive).
func Find(all []Sample, key string) (Sample, error) {
	key = strings.TrimSpace(key)
	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > len(all) {
			return Sample{}, fmt.Errorf("sample %d out of range (1-%d)", n, len(all))
		}
		return all[n-1], nil
	}
	for _, s := range all {
		if strings.EqualFold(s.ID, key) {
			return s, nil
		}
	}
	return Sample{}, fmt.Errorf("no sample with id %q", key)
}
