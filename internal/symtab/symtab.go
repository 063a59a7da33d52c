// Package symtab interns operator and variable names into dense Symbol ids.
//
// This is deliberately a thin collaborator the parser and theory packages
// lean on to turn textual names into the opaque ids the e-graph engine
// actually operates over; nothing below the theory layer ever sees a
// string.
package symtab

import "github.com/tr00/eqsat-mod-ac-sub000/ids"

const opaqueName = "<opaque>"

// Table interns strings into Symbols.
type Table struct {
	byName map[string]ids.Symbol
	names  []string // names[sym] is the interned name, or "" for an opaque symbol
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{byName: make(map[string]ids.Symbol)}
}

// Intern returns the Symbol for name, minting a fresh one on first use.
func (t *Table) Intern(name string) ids.Symbol {
	if sym, ok := t.byName[name]; ok {
		return sym
	}
	sym := ids.Symbol(len(t.names))
	t.byName[name] = sym
	t.names = append(t.names, name)
	return sym
}

// CreateOpaque mints a fresh Symbol with no associated name, used for
// generated free variables (e.g. in the endomorphism benchmark).
func (t *Table) CreateOpaque() ids.Symbol {
	sym := ids.Symbol(len(t.names))
	t.names = append(t.names, "")
	return sym
}

// String returns the interned name for sym, or "<opaque>" if sym was
// created via CreateOpaque or is otherwise unknown.
func (t *Table) String(sym ids.Symbol) string {
	if int(sym) >= len(t.names) {
		return opaqueName
	}
	name := t.names[sym]
	if name == "" {
		return opaqueName
	}
	return name
}

// Has reports whether sym was minted by this table.
func (t *Table) Has(sym ids.Symbol) bool {
	return int(sym) < len(t.names)
}

// Len returns the number of symbols minted so far.
func (t *Table) Len() int {
	return len(t.names)
}
