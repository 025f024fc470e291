// Package statutes bridges Indian Penal Code sections to their Bharatiya
// Nyaya Sanhita replacements.
package statutes

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed statutes.yaml
var defaultTable []byte

// Mapping is one IPC section and its BNS counterpart
type Mapping struct {
	Offence string `yaml:"offence" json:"offence"`
	IPC     string `yaml:"ipc" json:"ipc"`
	BNS     string `yaml:"bns" json:"bns"`
}

// Table is an immutable, indexed set of mappings
type Table struct {
	mappings []Mapping
	byIPC    map[string]int
	byBNS    map[string]int
}

// Default returns the built-in table
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("statutes: embedded table is invalid: %v", err))
	}
	return t
}

// Parse reads a YAML document with a top-level "mappings" list
func Parse(data []byte) (*Table, error) {
	var doc struct {
		Mappings []Mapping `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse statute table: %w", err)
	}
	for i, m := range doc.Mappings {
		if NormalizeSection(m.IPC) == "" || NormalizeSection(m.BNS) == "" {
			return nil, fmt.Errorf("parse statute table: entry %d (%q) lacks a section", i, m.Offence)
		}
	}
	return NewTable(doc.Mappings), nil
}

// NewTable indexes mappings. A later mapping for the same IPC section replaces an earlier one.
func NewTable(mappings []Mapping) *Table {
	t := &Table{
		byIPC: make(map[string]int, len(mappings)),
		byBNS: make(map[string]int, len(mappings)),
	}
	for _, m := range mappings {
		m.Offence = strings.TrimSpace(m.Offence)
		m.IPC = NormalizeSection(m.IPC)
		m.BNS = NormalizeSection(m.BNS)
		if m.IPC == "" || m.BNS == "" {
			continue
		}
		if i, ok := t.byIPC[m.IPC]; ok {
			delete(t.byBNS, t.mappings[i].BNS)
			t.mappings[i] = m
			t.byBNS[m.BNS] = i
			continue
		}
		t.mappings = append(t.mappings, m)
		t.byIPC[m.IPC] = len(t.mappings) - 1
		t.byBNS[m.BNS] = len(t.mappings) - 1
	}
	return t
}

// Overlay returns a new table with extra mappings applied over t
func (t *Table) Overlay(extra []Mapping) *Table {
	merged := make([]Mapping, 0, len(t.mappings)+len(extra))
	merged = append(merged, t.mappings...)
	merged = append(merged, extra...)
	return NewTable(merged)
}

// All returns the mappings in table order
func (t *Table) All() []Mapping {
	out := make([]Mapping, len(t.mappings))
	copy(out, t.mappings)
	return out
}

// Len returns the number of mappings
func (t *Table) Len() int {
	return len(t.mappings)
}

// LookupIPC finds the BNS replacement for an IPC section
func (t *Table) LookupIPC(section string) (Mapping, bool) {
	i, ok := t.byIPC[NormalizeSection(section)]
	if !ok {
		return Mapping{}, false
	}
	return t.mappings[i], true
}

// LookupBNS finds the IPC predecessor of a BNS section
func (t *Table) LookupBNS(section string) (Mapping, bool) {
	i, ok := t.byBNS[NormalizeSection(section)]
	if !ok {
		return Mapping{}, false
	}
	return t.mappings[i], true
}

// Search matches text against offence names and either section number
func (t *Table) Search(text string) []Mapping {
	text = strings.TrimSpace(text)
	if text == "" {
		return t.All()
	}
	needle := strings.ToLower(text)
	section := NormalizeSection(text)

	var out []Mapping
	for _, m := range t.mappings {
		if strings.Contains(strings.ToLower(m.Offence), needle) || m.IPC == section || m.BNS == section {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offence < out[j].Offence })
	return out
}

var sectionPrefix = regexp.MustCompile(`(?i)^(?:u/s\.?|sec(?:tion)?\.?|s\.)\s*`)

// NormalizeSection canonicalises a section reference: "Sec. 498-a" becomes "498A"
func NormalizeSection(s string) string {
	s = strings.TrimSpace(s)
	s = sectionPrefix.ReplaceAllString(s, "")
	s = strings.ToUpper(s)
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	return s
}
