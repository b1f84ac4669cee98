package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/budgetchat/internal/ledger"
)

// Seed names accepted besides a file path.
const (
	SeedDefault = "default"
	SeedEmpty   = "empty"
)

type seedFile struct {
	Sections []seedSection `yaml:"sections"`
}

type seedSection struct {
	Title string     `yaml:"title"`
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	Name      string `yaml:"name"`
	Quantity  amount `yaml:"quantity"`
	Unit      string `yaml:"unit"`
	UnitPrice amount `yaml:"unit_price"`
}

// amount reads a YAML number or string without going through float64.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", n.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(n.Value))
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	a.Decimal = d
	return nil
}

func (a amount) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.ScalarNode, Value: a.String()}
	if a.IsInteger() {
		node.Tag = "!!int"
	} else {
		node.Tag = "!!float"
	}
	return node, nil
}

// LoadSeed resolves a seed name to a starting document: "" or "default" is
// the built-in budget, "empty" is a blank one, anything else is a YAML file.
func LoadSeed(name string) (ledger.Document, error) {
	switch strings.TrimSpace(name) {
	case "", SeedDefault:
		return ledger.Seed(), nil
	case SeedEmpty:
		return ledger.Document{}, nil
	}

	data, err := os.ReadFile(name) //nolint:gosec // path chosen by the user
	if err != nil {
		return ledger.Document{}, fmt.Errorf("reading seed: %w", err)
	}
	doc, err := ParseSeed(data)
	if err != nil {
		return ledger.Document{}, fmt.Errorf("seed %s: %w", name, err)
	}
	return doc, nil
}

// ParseSeed decodes a YAML budget. Totals are always computed, never read.
func ParseSeed(data []byte) (ledger.Document, error) {
	var raw seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return ledger.Document{}, fmt.Errorf("parsing seed: %w", err)
	}

	sections := make([]ledger.Section, 0, len(raw.Sections))
	for _, rs := range raw.Sections {
		items := make([]ledger.Item, 0, len(rs.Items))
		for _, ri := range rs.Items {
			it, err := ledger.NewItem(ri.Name, ri.Quantity.Decimal, ri.Unit, ri.UnitPrice.Decimal)
			if err != nil {
				return ledger.Document{}, fmt.Errorf("section %q: %w", rs.Title, err)
			}
			items = append(items, it)
		}
		s, err := ledger.NewSection(rs.Title, items...)
		if err != nil {
			return ledger.Document{}, err
		}
		sections = append(sections, s)
	}
	return ledger.NewDocument(sections...)
}

// EncodeSeed renders doc in the seed format so it can be loaded again.
func EncodeSeed(doc ledger.Document) ([]byte, error) {
	out := seedFile{Sections: make([]seedSection, 0, len(doc.Sections))}
	for _, s := range doc.Sections {
		rs := seedSection{Title: s.Title, Items: make([]seedItem, 0, len(s.Items))}
		for _, it := range s.Items {
			rs.Items = append(rs.Items, seedItem{
				Name:      it.Name,
				Quantity:  amount{it.Quantity},
				Unit:      it.Unit,
				UnitPrice: amount{it.UnitPrice},
			})
		}
		out.Sections = append(out.Sections, rs)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
