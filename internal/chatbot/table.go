// Package chatbot is the scripted FAQ assistant: suggestion chips with fixed
// replies, a few keyword rules for free text, and stock replies for the rest.
package chatbot

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed responses.yaml
var defaultResponses []byte

// Option is a suggestion chip and what selecting it answers.
type Option struct {
	Label string   `yaml:"label"`
	Reply string   `yaml:"reply"`
	Next  []string `yaml:"next"`
}

// KeywordRule matches free text containing any of Match.
type KeywordRule struct {
	Name  string   `yaml:"name"`
	Match []string `yaml:"match"`
	Reply string   `yaml:"reply"`
	Next  []string `yaml:"next"`
}

// Table holds every canned reply. It is read-only once loaded.
type Table struct {
	Greeting       string        `yaml:"greeting"`
	InitialOptions []string      `yaml:"initial_options"`
	Options        []Option      `yaml:"options"`
	Keywords       []KeywordRule `yaml:"keywords"`
	StockReplies   []string      `yaml:"stock_replies"`
	UnknownOption  string        `yaml:"unknown_option"`

	byLabel map[string]Option
}

var ErrInvalidTable = errors.New("chatbot: invalid response table")

// DefaultTable returns the embedded response table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultResponses)
}

// LoadTable reads a response table from a YAML file.
func LoadTable(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseTable(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func ParseTable(b []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(t.StockReplies) == 0 {
		return nil, fmt.Errorf("%w: stock_replies is empty", ErrInvalidTable)
	}
	if t.UnknownOption == "" {
		return nil, fmt.Errorf("%w: unknown_option is empty", ErrInvalidTable)
	}
	t.byLabel = make(map[string]Option, len(t.Options))
	for _, o := range t.Options {
		if o.Label == "" || o.Reply == "" {
			return nil, fmt.Errorf("%w: option needs a label and a reply", ErrInvalidTable)
		}
		if _, dup := t.byLabel[o.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate option %q", ErrInvalidTable, o.Label)
		}
		t.byLabel[o.Label] = o
	}
	for i, k := range t.Keywords {
		if len(k.Match) == 0 || k.Reply == "" {
			return nil, fmt.Errorf("%w: keyword rule %d needs match terms and a reply", ErrInvalidTable, i)
		}
		for j, m := range k.Match {
			t.Keywords[i].Match[j] = strings.ToLower(m)
		}
	}
	return &t, nil
}

// Option looks up a chip by its exact label.
func (t *Table) Option(label string) (Option, bool) {
	o, ok := t.byLabel[label]
	return o, ok
}
