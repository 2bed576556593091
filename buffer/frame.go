package buffer

import (
	"sync"

	"github.com/coredb/bufferpool/storage/disk"
)

// Frame is an in-memory slot holding at most one page's worth of
// bytes. Every field except the byte buffer and its latch is metadata
// owned by the BufferPoolManager and is only ever touched while the
// manager holds its pool latch; the RWMutex below is the per-page
// reader/writer latch callers acquire to read or mutate the bytes
// themselves.
type Frame struct {
	mu     sync.RWMutex
	Data   []byte
	pageID int64
	pinned int
	dirty  bool
}

func newFrame() *Frame {
	return &Frame{
		Data:   make([]byte, disk.PageSize),
		pageID: disk.InvalidPageID,
	}
}

// PageID returns the page identifier the frame was last bound to, or
// disk.InvalidPageID if it has never held a page or its page was
// deleted. For a frame that is not currently resident the value may
// be stale; the pool's frame table is authoritative.
func (f *Frame) PageID() int64 { return f.pageID }

// IsDirty reports whether the frame's bytes differ from what is on
// disk.
func (f *Frame) IsDirty() bool { return f.dirty }

// PinCount reports how many outstanding pins the frame currently has.
func (f *Frame) PinCount() int { return f.pinned }

// RLock/RUnlock/Lock/Unlock expose the frame's reader/writer latch to
// callers that need to read or mutate Data directly, per the page
// representation's external contract.
func (f *Frame) RLock()   { f.mu.RLock() }
func (f *Frame) RUnlock() { f.mu.RUnlock() }
func (f *Frame) Lock()    { f.mu.Lock() }
func (f *Frame) Unlock()  { f.mu.Unlock() }

// detach clears a frame's residency metadata, readying it for reuse
// via the free list. Caller must hold the pool latch and must not
// hold the frame's own latch.
func (f *Frame) detach() {
	f.mu.Lock()
	clear(f.Data)
	f.mu.Unlock()

	f.pageID = disk.InvalidPageID
	f.dirty = false
	f.pinned = 0
}
