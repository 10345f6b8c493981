package override

import (
	"fmt"
)

// Link is one step of a perspective's chain: a table and the explanation
// recorded when the table supplies the answer.
type Link struct {
	Table *Table
	Label string
}

// Explanation returns the link label, defaulting to the table name.
func (l Link) Explanation() string {
	if l.Label != "" {
		return l.Label
	}
	return l.Table.Name()
}

// Chain is an ordered list of override sources, highest trust first.
type Chain []Link

// Hit is a successful chain lookup.
type Hit struct {
	Entry       Entry
	Explanation string
}

// Resolve walks the chain and returns the first table's entry for symbol.
func (c Chain) Resolve(symbol string) (Hit, bool) {
	for _, link := range c {
		if e, ok := link.Table.Get(symbol); ok {
			return Hit{Entry: e, Explanation: link.Explanation()}, true
		}
	}
	return Hit{}, false
}

// Perspective is a named consumer view with its own override chain.
// An empty chain means pure Ensembl selection.
type Perspective struct {
	Name  string
	Chain Chain
}

// Registry holds the loaded tables and perspectives in configured order.
type Registry struct {
	tables       map[string]*Table
	perspectives []Perspective
	byName       map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Table),
		byName: make(map[string]int),
	}
}

// AddTable registers a table under its name.
func (r *Registry) AddTable(t *Table) error {
	if _, dup := r.tables[t.Name()]; dup {
		return fmt.Errorf("override table %q registered twice", t.Name())
	}
	r.tables[t.Name()] = t
	return nil
}

// Table returns a registered table.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// LinkSpec names a table and the label used for it within one perspective.
type LinkSpec struct {
	Table string
	Label string
}

// AddPerspective defines a perspective from registered table names.
func (r *Registry) AddPerspective(name string, links []LinkSpec) error {
	if name == "" {
		return fmt.Errorf("perspective name is empty")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("perspective %q defined twice", name)
	}
	chain := make(Chain, 0, len(links))
	for _, ls := range links {
		t, ok := r.tables[ls.Table]
		if !ok {
			return fmt.Errorf("perspective %q: unknown override table %q", name, ls.Table)
		}
		chain = append(chain, Link{Table: t, Label: ls.Label})
	}
	r.byName[name] = len(r.perspectives)
	r.perspectives = append(r.perspectives, Perspective{Name: name, Chain: chain})
	return nil
}

// Perspectives returns perspectives in definition order.
func (r *Registry) Perspectives() []Perspective {
	return r.perspectives
}

// Resolve looks symbol up in the named perspective's chain.
func (r *Registry) Resolve(symbol, perspective string) (Hit, bool) {
	i, ok := r.byName[perspective]
	if !ok {
		return Hit{}, false
	}
	return r.perspectives[i].Chain.Resolve(symbol)
}

// Explanations returns the closed set of override explanation tags in use, in
// chain order with duplicates removed.
func (r *Registry) Explanations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.perspectives {
		for _, l := range p.Chain {
			e := l.Explanation()
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}
