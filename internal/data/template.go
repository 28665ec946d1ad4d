package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CustomerType is the guest category of a template.
type CustomerType string

const (
	CustomerLocal      CustomerType = "local"
	CustomerTraveler   CustomerType = "traveler"
	CustomerNoble      CustomerType = "noble"
	CustomerMerchant   CustomerType = "merchant"
	CustomerAdventurer CustomerType = "adventurer"
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerLocal, CustomerTraveler, CustomerNoble, CustomerMerchant, CustomerAdventurer:
		return true
	}
	return false
}

// CustomerTemplate describes one kind of customer that can be spawned.
type CustomerTemplate struct {
	Name        string       `yaml:"name"`
	Sprite      string       `yaml:"sprite"` // opaque to the simulation, passed to the renderer
	Type        CustomerType `yaml:"customer_type"`
	SpawnWeight float64      `yaml:"spawn_weight"`
}

// TemplateTable is the ordered registry of customer templates.
type TemplateTable struct {
	templates []*CustomerTemplate
	byName    map[string]*CustomerTemplate
}

// LoadTemplateTable loads customer_templates.yaml.
func LoadTemplateTable(path string) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customer templates: %w", err)
	}
	var entries []CustomerTemplate
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse customer templates: %w", err)
	}
	return NewTemplateTable(entries)
}

func NewTemplateTable(entries []CustomerTemplate) (*TemplateTable, error) {
	t := &TemplateTable{
		templates: make([]*CustomerTemplate, 0, len(entries)),
		byName:    make(map[string]*CustomerTemplate, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("template #%d: missing name", i)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("template %q: duplicate name", e.Name)
		}
		if e.SpawnWeight < 0 {
			return nil, fmt.Errorf("template %q: negative spawn_weight %v", e.Name, e.SpawnWeight)
		}
		if e.Type == "" {
			e.Type = CustomerLocal
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("template %q: unknown customer_type %q", e.Name, e.Type)
		}
		t.templates = append(t.templates, e)
		t.byName[e.Name] = e
	}
	return t, nil
}

// All returns the templates in file order. The slice must not be modified.
func (t *TemplateTable) All() []*CustomerTemplate {
	return t.templates
}

// Get returns the template with the given name, or nil.
func (t *TemplateTable) Get(name string) *CustomerTemplate {
	return t.byName[name]
}

// Count returns the number of templates loaded.
func (t *TemplateTable) Count() int {
	return len(t.templates)
}
