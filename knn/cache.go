package knn

import (
	"strings"
	"sync"

	idxapi "github.com/viant/sqlite-kdtree/index"
)

// indexCache shares built indices across connections of one process. Keys are
// "<db path>|<table>|<dataset>".
type indexCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheSlot
}

var shared = &indexCache{entries: make(map[string]*cacheSlot)}

func cacheKey(dbPath, tableName, dataset string) string {
	return dbPath + "|" + tableName + "|" + dataset
}

func (c *indexCache) slot(key string) *cacheSlot {
	c.mu.RLock()
	s := c.entries[key]
	c.mu.RUnlock()
	if s != nil {
		return s
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s = c.entries[key]; s == nil {
		s = &cacheSlot{}
		s.done = sync.NewCond(&s.mu)
		c.entries[key] = s
	}
	return s
}

// invalidate clears every slot of table, or only dataset's slot when dataset
// is set, and reports how many slots were cleared.
func (c *indexCache) invalidate(table, dataset string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for key, s := range c.entries {
		match := strings.Contains(key, "|"+table+"|")
		if dataset != "" {
			match = strings.HasSuffix(key, "|"+table+"|"+dataset)
		}
		if match {
			s.store(nil)
			count++
		}
	}
	return count
}

// cacheSlot holds one dataset index. At most one caller builds it at a time;
// the others block in claim until the build finishes.
type cacheSlot struct {
	mu       sync.Mutex
	idx      idxapi.Index
	building bool
	done     *sync.Cond
}

func (s *cacheSlot) load() idxapi.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

func (s *cacheSlot) store(idx idxapi.Index) {
	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
}

// claim returns the cached index, or owner=true when the caller must build it
// and then call release.
func (s *cacheSlot) claim() (idx idxapi.Index, owner bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.idx != nil {
			return s.idx, false
		}
		if !s.building {
			s.building = true
			return nil, true
		}
		s.done.Wait()
	}
}

func (s *cacheSlot) release() {
	s.mu.Lock()
	s.building = false
	s.done.Broadcast()
	s.mu.Unlock()
}

// InvalidateCache drops cached indices for a shadow table, limited to one
// dataset unless dataset is empty. It returns the number of dropped entries.
func InvalidateCache(shadow, dataset string) int {
	table := tableNameFromShadow(shadow)
	if table == "" {
		table = shadow
	}
	return shared.invalidate(table, dataset)
}
