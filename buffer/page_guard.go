package buffer

// accessMode records whether a PageGuard took the frame's reader or
// writer latch.
type accessMode int

const (
	readMode accessMode = iota
	writeMode
)

// PageGuard pairs a pinned Frame with the BufferPoolManager that
// fetched it, so releasing the guard both drops the frame's own
// reader/writer latch and calls UnpinPage exactly once. Constructing
// a guard always follows FetchPage/NewPage — the pool latch is never
// held while a PageGuard holds the frame latch.
type PageGuard struct {
	frame   *Frame
	bpm     *BufferPoolManager
	pageID  int64
	mode    accessMode
	dropped bool
}

func newPageGuard(bpm *BufferPoolManager, frame *Frame, pageID int64, mode accessMode) *PageGuard {
	g := &PageGuard{frame: frame, bpm: bpm, pageID: pageID, mode: mode}
	if mode == writeMode {
		frame.Lock()
	} else {
		frame.RLock()
	}
	return g
}

// Data returns the frame's underlying byte buffer.
func (g *PageGuard) Data() []byte {
	return g.frame.Data
}

// Drop releases the frame's latch and unpins the page, marking it
// dirty if isDirty is true. Only the first call has an effect; a nil
// guard or a second Drop is a no-op.
func (g *PageGuard) Drop(isDirty bool) {
	if g == nil || g.dropped {
		return
	}
	g.dropped = true

	if g.mode == writeMode {
		g.frame.Unlock()
	} else {
		g.frame.RUnlock()
	}

	g.bpm.UnpinPage(g.pageID, isDirty)
}

// ReadPageGuard is a PageGuard obtained under the frame's reader
// latch.
type ReadPageGuard struct {
	PageGuard
}

// WritePageGuard is a PageGuard obtained under the frame's writer
// latch.
type WritePageGuard struct {
	PageGuard
}

// ReadPage fetches pageID and returns it under the frame's reader
// latch. Returns (nil, nil) if the pool is exhausted.
func (b *BufferPoolManager) ReadPage(pageID int64) (*ReadPageGuard, error) {
	frame, err := b.FetchPage(pageID)
	if err != nil || frame == nil {
		return nil, err
	}
	return &ReadPageGuard{PageGuard: *newPageGuard(b, frame, pageID, readMode)}, nil
}

// WritePage fetches pageID and returns it under the frame's writer
// latch. Returns (nil, nil) if the pool is exhausted.
func (b *BufferPoolManager) WritePage(pageID int64) (*WritePageGuard, error) {
	frame, err := b.FetchPage(pageID)
	if err != nil || frame == nil {
		return nil, err
	}
	return &WritePageGuard{PageGuard: *newPageGuard(b, frame, pageID, writeMode)}, nil
}
