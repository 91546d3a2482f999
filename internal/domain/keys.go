package domain

import "sort"

// KeySet is a set of layer identities.
type KeySet map[LayerKey]struct{}

func (s KeySet) Add(k LayerKey) { s[k] = struct{}{} }

func (s KeySet) Has(k LayerKey) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keys ordered by server then name.
func (s KeySet) Sorted() []LayerKey {
	keys := make([]LayerKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return compareKeys(keys[i], keys[j]) < 0 })
	return keys
}

// KeysOf returns the key set of an indexed inventory.
func KeysOf(idx map[LayerKey]Layer) KeySet {
	keys := make(KeySet, len(idx))
	for k := range idx {
		keys.Add(k)
	}
	return keys
}

// Partition splits the union of current and historical into keys only in current
// (added), keys in both (present) and keys only in historical (missing).
// Each group is sorted.
func Partition(current, historical KeySet) (added, present, missing []LayerKey) {
	for _, k := range current.Sorted() {
		if historical.Has(k) {
			present = append(present, k)
		} else {
			added = append(added, k)
		}
	}
	for _, k := range historical.Sorted() {
		if !current.Has(k) {
			missing = append(missing, k)
		}
	}
	return added, present, missing
}

// StringSet is a set of identifiers such as server names.
type StringSet map[string]struct{}

func (s StringSet) Add(v string) { s[v] = struct{}{} }

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
