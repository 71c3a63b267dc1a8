package storage

import (
	"sync"

	"github.com/google/btree"

	"oml/pkg/common"
)

type eventItem struct {
	event common.Event
}

func (i eventItem) Less(than btree.Item) bool {
	return i.event.Seq < than.(eventItem).event.Seq
}

// MemoryJournal keeps the most recent events in a btree ordered by
// sequence. When capacity is exceeded the oldest event is evicted.
type MemoryJournal struct {
	tree     *btree.BTree
	lock     sync.RWMutex
	capacity int
	nextSeq  uint64
}

func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryJournal{
		tree:     btree.New(32),
		capacity: capacity,
	}
}

func (mj *MemoryJournal) Append(e common.Event) error {
	mj.lock.Lock()
	defer mj.lock.Unlock()

	mj.nextSeq++
	e.Seq = mj.nextSeq
	mj.tree.ReplaceOrInsert(eventItem{event: e})

	for mj.tree.Len() > mj.capacity {
		mj.tree.DeleteMin()
	}
	return nil
}

func (mj *MemoryJournal) Recent(n int) ([]common.Event, error) {
	mj.lock.RLock()
	defer mj.lock.RUnlock()

	collected := make([]common.Event, 0, n)
	mj.tree.Descend(func(i btree.Item) bool {
		collected = append(collected, i.(eventItem).event)
		return len(collected) < n
	})

	// Descend walked newest-first; flip to ascending sequence order.
	for l, r := 0, len(collected)-1; l < r; l, r = l+1, r-1 {
		collected[l], collected[r] = collected[r], collected[l]
	}
	return collected, nil
}

func (mj *MemoryJournal) Count() (int, error) {
	mj.lock.RLock()
	defer mj.lock.RUnlock()
	return mj.tree.Len(), nil
}

func (mj *MemoryJournal) Close() error {
	return nil
}
