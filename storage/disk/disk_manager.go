package disk

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack"
)

const (
	// PageSize is the fixed size, in bytes, of every page this manager
	// reads and writes.
	PageSize = 4096

	// InvalidPageID is the sentinel returned when allocation fails.
	InvalidPageID int64 = -1

	defaultPageCapacity = 16
)

// pageLocation records where a page's bytes live in the backing file
// and the checksum of the bytes last written there.
type pageLocation struct {
	Offset   int64  `msgpack:"offset"`
	Checksum uint64 `msgpack:"checksum"`
	Written  bool   `msgpack:"written"`
}

// directorySnapshot is the sidecar-file representation of a Manager's
// allocation bookkeeping, persisted so a restart does not lose the
// page_id -> offset mapping.
type directorySnapshot struct {
	NextPageID int64                  `msgpack:"next_page_id"`
	Capacity   int64                  `msgpack:"capacity"`
	FreeSlots  []int64                `msgpack:"free_slots"`
	Entries    map[int64]pageLocation `msgpack:"entries"`
}

// Manager is a file-backed implementation of the buffer pool's
// DiskManager collaborator. It owns a single data file plus a small
// sidecar directory file recording where each page id lives.
type Manager struct {
	mu sync.Mutex

	dbFile    *os.File
	dirPath   string
	directory map[int64]pageLocation
	freeSlots []int64
	capacity  int64

	nextPageID atomic.Int64
}

// NewManager opens a Manager backed by dbFile. If a directory sidecar
// exists at dirPath it is loaded; otherwise the manager starts empty.
func NewManager(dbFile *os.File, dirPath string) (*Manager, error) {
	m := &Manager{
		dbFile:    dbFile,
		dirPath:   dirPath,
		directory: make(map[int64]pageLocation),
		capacity:  defaultPageCapacity,
	}

	if err := m.loadDirectory(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) loadDirectory() error {
	raw, err := os.ReadFile(m.dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read directory %s: %w", m.dirPath, err)
	}

	var snap directorySnapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode directory %s: %w", m.dirPath, err)
	}

	m.directory = snap.Entries
	if m.directory == nil {
		m.directory = make(map[int64]pageLocation)
	}
	m.freeSlots = snap.FreeSlots
	m.capacity = snap.Capacity
	if m.capacity == 0 {
		m.capacity = defaultPageCapacity
	}
	m.nextPageID.Store(snap.NextPageID)

	return nil
}

// Sync persists the current directory to its sidecar file. Callers
// typically call this alongside flushing dirty pages so a restart
// finds a consistent allocation table.
func (m *Manager) Sync() error {
	m.mu.Lock()
	snap := directorySnapshot{
		NextPageID: m.nextPageID.Load(),
		Capacity:   m.capacity,
		FreeSlots:  append([]int64(nil), m.freeSlots...),
		Entries:    make(map[int64]pageLocation, len(m.directory)),
	}
	for id, loc := range m.directory {
		snap.Entries[id] = loc
	}
	m.mu.Unlock()

	raw, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}

	if err := os.WriteFile(m.dirPath, raw, 0644); err != nil {
		return fmt.Errorf("write directory %s: %w", m.dirPath, err)
	}

	return nil
}

// AllocatePage reserves a fresh page id and backing slot in the file,
// growing the file if the directory has outgrown its capacity.
func (m *Manager) AllocatePage() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset, err := m.allocateSlotLocked()
	if err != nil {
		return InvalidPageID, err
	}

	pageID := m.nextPageID.Add(1) - 1
	m.directory[pageID] = pageLocation{Offset: offset}

	return pageID, nil
}

// DeallocatePage releases pageID's slot back to the free list. A
// deallocation of an unknown page id is a no-op.
func (m *Manager) DeallocatePage(pageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc, ok := m.directory[pageID]
	if !ok {
		return nil
	}

	m.freeSlots = append(m.freeSlots, loc.Offset)
	delete(m.directory, pageID)

	return nil
}

// WritePage persists data as pageID's content, allocating a slot for
// it first if pageID has no directory entry yet.
func (m *Manager) WritePage(pageID int64, data []byte) error {
	m.mu.Lock()
	loc, ok := m.directory[pageID]
	if !ok {
		offset, err := m.allocateSlotLocked()
		if err != nil {
			m.mu.Unlock()
			return err
		}
		loc = pageLocation{Offset: offset}
	}

	loc.Checksum = xxhash.Sum64(data)
	loc.Written = true
	m.directory[pageID] = loc
	offset := loc.Offset
	m.mu.Unlock()

	if _, err := m.dbFile.WriteAt(data, offset); err != nil {
		return fmt.Errorf("write page %d at offset %d: %w", pageID, offset, err)
	}

	return nil
}

// ReadPage fills and returns a PageSize buffer with pageID's content,
// verifying the checksum recorded at the last write.
func (m *Manager) ReadPage(pageID int64) ([]byte, error) {
	m.mu.Lock()
	loc, ok := m.directory[pageID]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPage, pageID)
	}

	buf := make([]byte, PageSize)
	if !loc.Written {
		// Allocated but never written; a zeroed page is the correct
		// content and there is nothing to verify.
		return buf, nil
	}

	if _, err := m.dbFile.ReadAt(buf, loc.Offset); err != nil {
		return nil, fmt.Errorf("read page %d at offset %d: %w", pageID, loc.Offset, err)
	}

	if xxhash.Sum64(buf) != loc.Checksum {
		return nil, fmt.Errorf("%w: %d", ErrPageCorrupted, pageID)
	}

	return buf, nil
}

// allocateSlotLocked returns an offset for a new page, preferring a
// freed slot before growing the file. Caller must hold m.mu.
func (m *Manager) allocateSlotLocked() (int64, error) {
	if len(m.freeSlots) > 0 {
		offset := m.freeSlots[0]
		m.freeSlots = m.freeSlots[1:]
		return offset, nil
	}

	if int64(len(m.directory))+1 > m.capacity {
		m.capacity *= 2
		if err := m.dbFile.Truncate(m.capacity * PageSize); err != nil {
			return 0, fmt.Errorf("resize db file: %w", err)
		}
	}

	return int64(len(m.directory)) * PageSize, nil
}

// Close syncs the directory and closes the backing file.
func (m *Manager) Close() error {
	if err := m.Sync(); err != nil {
		return err
	}
	return m.dbFile.Close()
}
