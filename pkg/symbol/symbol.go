// Package symbol implements the flat, single-scope symbol table. Offsets are
// handed out in declaration order starting at 0 and are never reused.
package symbol

import "github.com/xplshn/plc0/pkg/token"

type Entry struct {
	Name          string
	IsConstant    bool
	IsInitialized bool
	Offset        int
	Decl          token.Token
	Reads         int
}

type Table struct {
	entries map[string]*Entry
	order   []*Entry
}

func NewTable() *Table { return &Table{entries: make(map[string]*Entry)} }

func (t *Table) Lookup(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

func (t *Table) Contains(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Declare adds decl.Value at the next offset. It reports false, leaving the
// table untouched, if the name is already present.
func (t *Table) Declare(decl token.Token, isConstant, isInitialized bool) (*Entry, bool) {
	if t.Contains(decl.Value) {
		return nil, false
	}
	e := &Entry{
		Name:          decl.Value,
		IsConstant:    isConstant,
		IsInitialized: isInitialized,
		Offset:        t.NextOffset(),
		Decl:          decl,
	}
	t.entries[e.Name] = e
	t.order = append(t.order, e)
	return e, true
}

// NextOffset is the offset the next declaration will receive, which is also
// the frame size needed so far.
func (t *Table) NextOffset() int { return len(t.order) }

// Entries returns the symbols in declaration order.
func (t *Table) Entries() []*Entry { return t.order }
