// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

// journal maintains uncommitted writes in a stack of levels.
// Each level inherits key/values of the levels below it, which gives the
// state a save-restore/snapshot-revert manner: pushing a level makes a
// checkpoint, popping reverts every write since that checkpoint.
type journal struct {
	src    func(key any) (any, bool)
	levels []*level
	// key -> indexes of levels that wrote the key, innermost last
	keyRevs map[any][]int
}

type level struct {
	kvs     map[any]any
	entries []entry
}

type entry struct {
	key   any
	value any
}

func newJournal(src func(key any) (any, bool)) *journal {
	return &journal{
		src:     src,
		keyRevs: make(map[any][]int),
	}
}

// push makes a checkpoint and returns its revision.
func (j *journal) push() int {
	j.levels = append(j.levels, &level{kvs: make(map[any]any)})
	return len(j.levels) - 1
}

// popTo drops levels until depth reaches rev, reverting their writes.
func (j *journal) popTo(rev int) {
	for len(j.levels) > rev {
		top := j.levels[len(j.levels)-1]
		for key := range top.kvs {
			revs := j.keyRevs[key]
			revs = revs[:len(revs)-1]
			if len(revs) == 0 {
				delete(j.keyRevs, key)
			} else {
				j.keyRevs[key] = revs
			}
		}
		j.levels = j.levels[:len(j.levels)-1]
	}
}

// get returns the latest value written for key, falling back to src.
func (j *journal) get(key any) (any, bool) {
	if revs, ok := j.keyRevs[key]; ok {
		lvl := j.levels[revs[len(revs)-1]]
		if v, ok := lvl.kvs[key]; ok {
			return v, true
		}
	}
	return j.src(key)
}

// put writes key/value into the top level. Panics if no checkpoint exists.
func (j *journal) put(key, value any) {
	top := j.levels[len(j.levels)-1]
	if _, ok := top.kvs[key]; !ok {
		rev := len(j.levels) - 1
		j.keyRevs[key] = append(j.keyRevs[key], rev)
	}
	top.kvs[key] = value
	top.entries = append(top.entries, entry{key, value})
}

// walk traverses all writes in order. Returning false stops the walk.
func (j *journal) walk(fn func(key, value any) bool) {
	for _, lvl := range j.levels {
		for _, e := range lvl.entries {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}
