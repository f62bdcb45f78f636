package mem

// cache.go implements the unified, write-through L1 cache: 16 lines of 8
// words each, tag-matched by linear scan, with random eviction restricted to
// clean lines. It is accessed only by the execution thread (internal/cpu)
// and by the memory controller's updateWrites path (see buffer.go); the
// cache's own mutex guards its lines and dirty counters against both.

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/vn18/simulate/internal/word"
)

// NumLines is the number of lines in the L1 cache.
const NumLines = 16

// LineWords is the number of words per cache line.
const LineWords = 8

// Line is one 8-word block of cached memory. writes counts in-flight write
// buffer elements for this line; writes > 0 means the line is dirty and
// must never be evicted.
type Line struct {
	tag    int
	words  [LineWords]word.Word
	writes uint8
	valid  bool
}

func (l *Line) dirty() bool { return l.writes > 0 }

func (l Line) String() string {
	return fmt.Sprintf("line{tag:%d writes:%d valid:%t}", l.tag, l.writes, l.valid)
}

// Cache is the L1 cache: 16 lines, monotonically filled until full, then
// randomly replaced among clean lines only.
type Cache struct {
	mut   sync.Mutex
	lines [NumLines]Line
	next  int // Next empty slot, until the cache fills.
	full  bool

	// notDirty is signalled by the memory controller (via updateWrites)
	// whenever a line transitions from dirty to clean, so a stalled
	// eviction can retry. This is the degenerate case spec.md calls out:
	// forbidden in practice since the write buffer capacity keeps ahead
	// of typical bursts, but handled correctly regardless.
	notDirty *sync.Cond
}

// NewCache creates an empty L1 cache.
func NewCache() *Cache {
	c := &Cache{}
	c.notDirty = sync.NewCond(&c.mut)

	return c
}

// Read performs a tag-matched lookup. ok is false on a miss; the caller
// (the execution engine) must then fetch the containing block from memory
// and insert it with Add before retrying.
func (c *Cache) Read(addr int) (w word.Word, ok bool) {
	c.mut.Lock()
	defer c.mut.Unlock()

	i := c.find(addr)
	if i < 0 {
		return 0, false
	}

	line := &c.lines[i]

	return line.words[addr-line.tag], true
}

// Write updates the word in place on a cache hit, increments the line's
// write counter, and returns an element ready to be enqueued on the write
// buffer. ok is false on a miss; the caller must fill the line and retry.
func (c *Cache) Write(addr int, w word.Word) (elem Element, ok bool) {
	c.mut.Lock()
	defer c.mut.Unlock()

	i := c.find(addr)
	if i < 0 {
		return Element{}, false
	}

	line := &c.lines[i]
	line.words[addr-line.tag] = w
	line.writes++

	return Element{Addr: addr, Word: w, LineTag: line.tag}, true
}

// Add inserts a freshly fetched line into the cache, following the fill
// policy: place in the next empty slot until the cache is full, then evict
// a uniformly random clean line. If every line is dirty, Add blocks until
// the memory controller clears at least one via updateWrites.
func (c *Cache) Add(tag int, block [LineWords]word.Word) {
	c.mut.Lock()
	defer c.mut.Unlock()

	line := Line{tag: tag, words: block, valid: true}

	if !c.full {
		c.lines[c.next] = line
		c.next++

		if c.next == NumLines {
			c.full = true
		}

		return
	}

	for {
		if slot, ok := c.randomClean(); ok {
			c.lines[slot] = line
			return
		}

		// Every line is dirty: stall until the controller drains one.
		c.notDirty.Wait()
	}
}

// updateWrites adjusts the write counter for the line tagged with lineTag
// by delta (typically -1, when the memory controller confirms a write is
// durable). Called from the controller goroutine; guarded by the same
// mutex as the rest of the cache so the counter never races a concurrent
// Write from the execution thread.
func (c *Cache) updateWrites(lineTag int, delta int) {
	c.mut.Lock()
	defer c.mut.Unlock()

	for i := range c.lines {
		line := &c.lines[i]
		if line.valid && line.tag == lineTag {
			line.writes = uint8(int(line.writes) + delta)

			if line.writes == 0 {
				c.notDirty.Broadcast()
			}

			return
		}
	}
}

// find returns the index of the line containing addr, or -1. Must be called
// with mut held.
func (c *Cache) find(addr int) int {
	for i := range c.lines {
		line := &c.lines[i]
		if line.valid && addr >= line.tag && addr < line.tag+LineWords {
			return i
		}
	}

	return -1
}

// randomClean picks a uniformly random clean line among occupied slots.
// Must be called with mut held.
func (c *Cache) randomClean() (int, bool) {
	clean := make([]int, 0, NumLines)

	for i := range c.lines {
		if c.lines[i].valid && !c.lines[i].dirty() {
			clean = append(clean, i)
		}
	}

	if len(clean) == 0 {
		return 0, false
	}

	return clean[rand.Intn(len(clean))], true //nolint:gosec
}

// DirtyCount returns the number of write-buffer elements still outstanding
// against the line that covers addr; used by tests to assert invariant 1
// (SPEC_FULL.md §8).
func (c *Cache) DirtyCount(addr int) uint8 {
	c.mut.Lock()
	defer c.mut.Unlock()

	i := c.find(addr)
	if i < 0 {
		return 0
	}

	return c.lines[i].writes
}
