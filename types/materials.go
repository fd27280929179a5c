package types

import (
	"sort"
)

// MaterialSet is a set of integer material (region or boundary) identifiers
type MaterialSet map[int]struct{}

func NewMaterialSet(ids ...int) (ms MaterialSet) {
	ms = make(MaterialSet, len(ids))
	for _, id := range ids {
		ms[id] = struct{}{}
	}
	return
}

func (ms MaterialSet) Contains(id int) (ok bool) {
	_, ok = ms[id]
	return
}

func (ms MaterialSet) Insert(ids ...int) MaterialSet {
	for _, id := range ids {
		ms[id] = struct{}{}
	}
	return ms
}

// Union returns a new set, neither receiver nor arguments are changed
func (ms MaterialSet) Union(others ...MaterialSet) (u MaterialSet) {
	u = NewMaterialSet(ms.Sorted()...)
	for _, o := range others {
		for id := range o {
			u[id] = struct{}{}
		}
	}
	return
}

func (ms MaterialSet) Disjoint(other MaterialSet) bool {
	for id := range ms {
		if other.Contains(id) {
			return false
		}
	}
	return true
}

func (ms MaterialSet) Sorted() (ids []int) {
	ids = make([]int, 0, len(ms))
	for id := range ms {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return
}
