package buffer

import (
	"fmt"
	"sync"

	"github.com/coredb/bufferpool/logging"
	"github.com/coredb/bufferpool/storage/disk"
)

// DiskManager is the on-disk collaborator the pool reads pages from
// and writes them back to. Both disk.Manager and disk.Scheduler
// satisfy it.
type DiskManager interface {
	ReadPage(pageID int64) ([]byte, error)
	WritePage(pageID int64, data []byte) error
	AllocatePage() (int64, error)
	DeallocatePage(pageID int64) error
}

// LogManager is an opaque handle to the write-ahead log. The pool
// threads it through for higher layers that will eventually consume
// it; the pool itself never calls into it (no redo/recovery logic
// lives here).
type LogManager interface{}

// PoolStats is a point-in-time snapshot of pool activity counters.
type PoolStats struct {
	FetchHits     int
	FetchMisses   int
	Evictions     int
	Flushes       int
	PoolExhausted int
}

// BufferPoolManager owns the frame array, the page<->frame mappings,
// and the free list, orchestrating disk I/O through a DiskManager and
// eviction decisions through a ClockReplacer.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize   int
	frames     []*Frame
	pageTable  map[int64]int // page id -> frame id
	frameTable map[int]int64 // frame id -> page id
	freeList   []int

	replacer   *ClockReplacer
	disk       DiskManager
	logManager LogManager
	logger     logging.Logger

	stats PoolStats
}

// NewBufferPoolManager builds a pool of poolSize frames backed by
// diskManager. logManager is stored but never invoked by the pool
// itself. A nil logger defaults to logging.DiscardLogger{}.
func NewBufferPoolManager(poolSize int, diskManager DiskManager, logManager LogManager, logger logging.Logger) *BufferPoolManager {
	if logger == nil {
		logger = logging.DiscardLogger{}
	}

	frames := make([]*Frame, poolSize)
	freeList := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = newFrame()
		freeList[i] = i
	}

	return &BufferPoolManager{
		poolSize:   poolSize,
		frames:     frames,
		pageTable:  make(map[int64]int),
		frameTable: make(map[int]int64),
		freeList:   freeList,
		replacer:   NewClockReplacer(poolSize),
		disk:       diskManager,
		logManager: logManager,
		logger:     logger,
	}
}

// PoolSize returns the fixed number of frames the pool was built
// with.
func (b *BufferPoolManager) PoolSize() int { return b.poolSize }

// Stats returns a snapshot of the pool's activity counters.
func (b *BufferPoolManager) Stats() PoolStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// FetchPage returns the frame holding pageID, pinning it first. A hit
// pins the resident frame directly; a miss claims a frame (free list
// first, then a replacer victim, writing it back if dirty) and reads
// pageID's content from disk into it. Returns (nil, nil) if every
// frame is pinned (pool exhausted) and (nil, err) if the disk read
// itself fails. Every successful FetchPage must be paired with
// exactly one UnpinPage.
func (b *BufferPoolManager) FetchPage(pageID int64) (*Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		frame := b.frames[frameID]
		b.replacer.Pin(frameID)
		frame.pinned++
		b.stats.FetchHits++
		return frame, nil
	}

	b.stats.FetchMisses++

	frameID, ok := b.acquireFrameLocked()
	if !ok {
		b.stats.PoolExhausted++
		b.logger.Warn("buffer pool exhausted", "page_id", pageID)
		return nil, nil
	}

	frame := b.frames[frameID]
	data, err := b.disk.ReadPage(pageID)
	if err != nil {
		// Nothing was installed into either table yet, so the frame
		// just goes back to the free list untouched.
		b.freeList = append(b.freeList, frameID)
		b.logger.Error("disk read failed", "page_id", pageID, "err", err)
		return nil, fmt.Errorf("fetch page %d: %w", pageID, err)
	}

	b.pageTable[pageID] = frameID
	b.frameTable[frameID] = pageID

	frame.mu.Lock()
	copy(frame.Data, data)
	frame.mu.Unlock()

	frame.pageID = pageID
	frame.pinned = 1
	frame.dirty = false

	b.replacer.Pin(frameID)

	return frame, nil
}

// UnpinPage decrements pageID's pin count, folding in isDirty (once
// set, the dirty flag is sticky until eviction or an explicit flush).
// Returns false if pageID is not resident or its pin count is already
// zero.
func (b *BufferPoolManager) UnpinPage(pageID int64, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	frame := b.frames[frameID]
	if frame.pinned == 0 {
		return false
	}

	frame.pinned--
	if isDirty {
		frame.dirty = true
	}

	if frame.pinned == 0 {
		b.replacer.Unpin(frameID)
	}

	return true
}

// FlushPage forces pageID's current bytes to disk regardless of its
// dirty flag, then clears it. Returns false if pageID is not
// resident or if the disk write fails; a write error is logged, not
// returned. Pin status is unaffected.
func (b *BufferPoolManager) FlushPage(pageID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	frame := b.frames[frameID]
	frame.mu.RLock()
	err := b.disk.WritePage(pageID, frame.Data)
	frame.mu.RUnlock()

	if err != nil {
		b.logger.Error("flush failed", "page_id", pageID, "err", err)
		return false
	}

	frame.dirty = false
	b.stats.Flushes++
	return true
}

// NewPage claims a frame exactly as FetchPage's miss path does, then
// asks the DiskManager to allocate a fresh page id for it and zeroes
// its bytes. Returns (disk.InvalidPageID, nil, nil) if the pool is
// exhausted.
func (b *BufferPoolManager) NewPage() (int64, *Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.acquireFrameLocked()
	if !ok {
		b.stats.PoolExhausted++
		b.logger.Warn("buffer pool exhausted on new page")
		return disk.InvalidPageID, nil, nil
	}

	pageID, err := b.disk.AllocatePage()
	if err != nil {
		b.freeList = append(b.freeList, frameID)
		return disk.InvalidPageID, nil, fmt.Errorf("new page: %w", err)
	}

	frame := b.frames[frameID]
	b.pageTable[pageID] = frameID
	b.frameTable[frameID] = pageID

	frame.mu.Lock()
	clear(frame.Data)
	frame.mu.Unlock()

	frame.pageID = pageID
	frame.pinned = 1
	frame.dirty = false

	b.replacer.Pin(frameID)

	return pageID, frame, nil
}

// DeletePage removes pageID from the pool. Returns true immediately
// if pageID is not resident (idempotent), false if it is still
// pinned. Otherwise the DiskManager deallocates the id, the frame is
// reset, and its frame id returns to the free list.
func (b *BufferPoolManager) DeletePage(pageID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return true, nil
	}

	// Pin count is checked under the pool latch before ever touching
	// the frame's own latch, so a pinned page can't be observed
	// half-torn-down by a concurrent reader.
	frame := b.frames[frameID]
	if frame.pinned > 0 {
		return false, nil
	}

	if err := b.disk.DeallocatePage(pageID); err != nil {
		return false, fmt.Errorf("delete page %d: %w", pageID, err)
	}

	delete(b.pageTable, pageID)
	delete(b.frameTable, frameID)
	frame.detach()

	// Safe no-op if the frame was already absent from the replacer.
	b.replacer.Pin(frameID)
	b.freeList = append(b.freeList, frameID)

	return true, nil
}

// FlushAll writes every resident page's current bytes to disk.
func (b *BufferPoolManager) FlushAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for pageID, frameID := range b.pageTable {
		frame := b.frames[frameID]
		frame.mu.RLock()
		err := b.disk.WritePage(pageID, frame.Data)
		frame.mu.RUnlock()

		if err != nil {
			b.logger.Error("flush all failed", "page_id", pageID, "err", err)
			return fmt.Errorf("flush all: page %d: %w", pageID, err)
		}
		frame.dirty = false
		b.stats.Flushes++
	}

	return nil
}

// acquireFrameLocked claims a frame for a new binding: the free list
// is drained first, otherwise a replacer victim is written back (if
// dirty) and its old bindings erased. Caller must hold b.mu.
func (b *BufferPoolManager) acquireFrameLocked() (int, bool) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameID, true
	}

	frameID, ok := b.replacer.Victim()
	if !ok {
		return 0, false
	}

	frame := b.frames[frameID]
	if frame.dirty {
		b.logger.Info("evicting dirty frame", "frame_id", frameID, "page_id", frame.pageID)
		frame.mu.Lock()
		if err := b.disk.WritePage(frame.pageID, frame.Data); err != nil {
			b.logger.Error("write-back failed during eviction", "page_id", frame.pageID, "err", err)
		} else {
			b.stats.Flushes++
		}
		frame.dirty = false
		frame.mu.Unlock()
	}

	if oldPageID, ok := b.frameTable[frameID]; ok {
		delete(b.pageTable, oldPageID)
		delete(b.frameTable, frameID)
	}
	b.stats.Evictions++

	return frameID, true
}
