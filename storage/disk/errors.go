package disk

import "errors"

// ErrUnknownPage is returned when a page id has no entry in the
// directory, e.g. a read for a page that was never allocated.
var ErrUnknownPage = errors.New("disk: unknown page id")

// ErrPageCorrupted is returned when the bytes read back from the file
// do not match the checksum recorded at the last write.
var ErrPageCorrupted = errors.New("disk: page checksum mismatch")
