package setmenu

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"table_order_backend/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed default_sets.yaml
var defaultSets []byte

// ComponentKind tells how a set component is resolved.
type ComponentKind string

const (
	// KindMenu is a regular catalog item referenced by name.
	KindMenu ComponentKind = "menu"
	// KindDrink resolves to the document's default beverage.
	KindDrink ComponentKind = "drink"
	// KindRaffle is a pseudo-item with no catalog entry.
	KindRaffle ComponentKind = "raffle"
)

const defaultRaffleNotes = "Raffle ticket"

// ComponentSpec is one authored component of a set. Name is required for
// KindMenu only; Notes labels a KindRaffle pseudo-item.
type ComponentSpec struct {
	Kind  ComponentKind `yaml:"kind"`
	Name  string        `yaml:"name,omitempty"`
	Count int           `yaml:"count"`
	Notes string        `yaml:"notes,omitempty"`
}

// SetSpec names a set menu item and lists what one unit of it contains.
type SetSpec struct {
	Name       string          `yaml:"name"`
	Components []ComponentSpec `yaml:"components"`
}

// Document is the authored composition table, keyed by display names.
type Document struct {
	DefaultDrink string    `yaml:"default_drink"`
	Sets         []SetSpec `yaml:"sets"`
}

// Parse decodes and validates a composition document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing set menu document: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads a composition document from path. An empty path yields the
// built-in default.
func LoadFile(path string) (*Document, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read set menu file %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in composition document.
func Default() *Document {
	doc, err := Parse(defaultSets)
	if err != nil {
		panic(err)
	}
	return doc
}

func (d *Document) validate() error {
	seen := make(map[string]bool, len(d.Sets))
	for _, set := range d.Sets {
		key := normalize(set.Name)
		if key == "" {
			return fmt.Errorf("set menu without a name")
		}
		if seen[key] {
			return fmt.Errorf("set menu %q defined twice", set.Name)
		}
		seen[key] = true
		for _, c := range set.Components {
			if c.Count <= 0 {
				return fmt.Errorf("set menu %q: component count must be positive", set.Name)
			}
			switch c.Kind {
			case KindMenu:
				if normalize(c.Name) == "" {
					return fmt.Errorf("set menu %q: menu component without a name", set.Name)
				}
			case KindDrink, KindRaffle:
			default:
				return fmt.Errorf("set menu %q: unknown component kind %q", set.Name, c.Kind)
			}
		}
	}
	return nil
}

// Component is a set component resolved to a catalog id. A nil MenuItemID is a pseudo-item.
type Component struct {
	MenuItemID *int64
	Count      int
	Notes      *string
}

type resolvedSet struct {
	name       string
	components []Component
}

// Table is the composition table keyed by the set's menu item id.
type Table struct {
	sets map[int64]resolvedSet
}

// IsSet reports whether menuItemID has a composition entry.
func (t *Table) IsSet(menuItemID int64) bool {
	if t == nil {
		return false
	}
	_, ok := t.sets[menuItemID]
	return ok
}

// Len returns the number of resolved sets.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.sets)
}

// Resolve binds the document to the given catalog. Inactive items are ignored.
// Components that cannot be resolved are skipped and reported in the returned
// warnings; a set whose own item is missing from the catalog is simply absent.
// A set left with no components is dropped from the table so it is ordered as
// a plain item instead of producing an order with nothing to cook.
func (d *Document) Resolve(catalog []models.MenuItem) (*Table, []string) {
	byName := make(map[string]models.MenuItem, len(catalog))
	for _, item := range catalog {
		if item.IsActive {
			byName[normalize(item.Name)] = item
		}
	}

	var warnings []string
	table := &Table{sets: make(map[int64]resolvedSet, len(d.Sets))}
	for _, set := range d.Sets {
		setItem, ok := byName[normalize(set.Name)]
		if !ok {
			continue
		}
		resolved := resolvedSet{name: setItem.Name}
		for _, c := range set.Components {
			switch c.Kind {
			case KindRaffle:
				notes := c.Notes
				if notes == "" {
					notes = defaultRaffleNotes
				}
				resolved.components = append(resolved.components, Component{Count: c.Count, Notes: &notes})
			case KindDrink:
				drink, ok := byName[normalize(d.DefaultDrink)]
				if !ok {
					warnings = append(warnings, fmt.Sprintf("set %q: default drink %q not in catalog, skipped", set.Name, d.DefaultDrink))
					continue
				}
				id := drink.ID
				resolved.components = append(resolved.components, Component{MenuItemID: &id, Count: c.Count})
			case KindMenu:
				item, ok := byName[normalize(c.Name)]
				if !ok {
					warnings = append(warnings, fmt.Sprintf("set %q: component %q not in catalog, skipped", set.Name, c.Name))
					continue
				}
				id := item.ID
				resolved.components = append(resolved.components, Component{MenuItemID: &id, Count: c.Count})
			}
		}
		if len(resolved.components) == 0 {
			warnings = append(warnings, fmt.Sprintf("set %q: no component resolved, treated as a plain item", set.Name))
			continue
		}
		table.sets[setItem.ID] = resolved
	}
	return table, warnings
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
