// Package content defines the work-list data model: the six content kinds
// the backend can redistribute, resolved items, and the ordered work list.
package content

import (
	"fmt"
	"strings"
)

// Kind identifies which class of content an item is. The zero value is
// invalid so an unset Kind is never mistaken for a real one.
type Kind int

const (
	KindInvalid Kind = iota
	KindApplication
	KindPackage
	KindDriver
	KindSoftwareUpdate
	KindOSImage
	KindBootImage
)

var kindNames = map[Kind]string{
	KindApplication:    "application",
	KindPackage:        "package",
	KindDriver:         "driver",
	KindSoftwareUpdate: "softwareupdate",
	KindOSImage:        "osimage",
	KindBootImage:      "bootimage",
}

// String returns the canonical lowercase token name for the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("invalid(%d)", int(k))
}

// ParseKind maps a token prefix to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if needle == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown content kind %q", s)
}

// Item is one resolved entry of the work list. Immutable once resolved.
type Item struct {
	Kind  Kind
	ID    string // backend identifier, opaque to the controller
	Name  string // display name
	Index int    // 1-based position in the original input ordering
}

func (it Item) String() string {
	return fmt.Sprintf("%d: %s %q (%s)", it.Index, it.Kind, it.Name, it.ID)
}

// WorkList is the ordered sequence of resolved items. Index values are
// contiguous, 1-based, and match slice position.
type WorkList struct {
	items []Item
}

// NewWorkList builds a WorkList, assigning Index from position. Items with a
// pre-set Index must agree with their position.
func NewWorkList(items []Item) (*WorkList, error) {
	out := make([]Item, len(items))
	for i, it := range items {
		want := i + 1
		if it.Index != 0 && it.Index != want {
			return nil, fmt.Errorf("item %q has index %d, expected %d", it.Name, it.Index, want)
		}
		it.Index = want
		out[i] = it
	}
	return &WorkList{items: out}, nil
}

// Len returns the number of items.
func (w *WorkList) Len() int { return len(w.items) }

// At returns the item at 1-based index i.
func (w *WorkList) At(i int) Item {
	return w.items[i-1]
}

// Items returns a copy of the underlying slice.
func (w *WorkList) Items() []Item {
	out := make([]Item, len(w.items))
	copy(out, w.items)
	return out
}
