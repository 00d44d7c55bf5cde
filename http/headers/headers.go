package headers

import (
	"slices"

	"github.com/indigo-web/iter"
)

// Field is a header name with all its values.
type Field struct {
	Name   string
	Values []string
}

// Headers is a multi-map of header names to ordered value lists. Names and values are
// normalized on insertion, so every lookup is case-insensitive. The order in which names
// were first added is preserved.
type Headers struct {
	names  []string
	values map[string][]string
}

func New() *Headers {
	return &Headers{
		values: make(map[string][]string),
	}
}

// Add appends a value to the name.
func (h *Headers) Add(name, value string) *Headers {
	name = NormalizeName(name)
	values, found := h.values[name]
	if !found {
		h.names = append(h.names, name)
	}

	h.values[name] = append(values, NormalizeValue(value))
	return h
}

// Set replaces all the values of the name by a single one. An empty value removes the
// name instead.
func (h *Headers) Set(name, value string) *Headers {
	h.Del(name)
	if len(value) > 0 {
		h.Add(name, value)
	}

	return h
}

// Value returns the first value of the name or an empty string.
func (h *Headers) Value(name string) string {
	values := h.values[NormalizeName(name)]
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// Values returns all the values of the name. The returned slice must not be modified.
func (h *Headers) Values(name string) []string {
	return h.values[NormalizeName(name)]
}

func (h *Headers) Has(name string) bool {
	_, found := h.values[NormalizeName(name)]
	return found
}

func (h *Headers) Del(name string) {
	name = NormalizeName(name)
	if _, found := h.values[name]; !found {
		return
	}

	delete(h.values, name)
	h.names = slices.DeleteFunc(h.names, func(n string) bool {
		return n == name
	})
}

// Len returns the number of distinct names.
func (h *Headers) Len() int {
	return len(h.names)
}

// Names returns the names in the order they were first added.
func (h *Headers) Names() []string {
	return h.names
}

// Sorted returns a copy of the names in lexical order.
func (h *Headers) Sorted() []string {
	names := slices.Clone(h.names)
	slices.Sort(names)
	return names
}

// Iter returns an iterator over the fields in insertion order.
func (h *Headers) Iter() iter.Iterator[Field] {
	return iter.Slice(h.Fields())
}

// Fields returns a snapshot of all the fields in insertion order.
func (h *Headers) Fields() []Field {
	fields := make([]Field, 0, len(h.names))
	for _, name := range h.names {
		fields = append(fields, Field{Name: name, Values: h.values[name]})
	}

	return fields
}

// Clear removes every entry, keeping the allocated memory.
func (h *Headers) Clear() {
	h.names = h.names[:0]
	clear(h.values)
}
