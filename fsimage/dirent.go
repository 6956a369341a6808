package fsimage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Dirent is one decoded directory entry: an inode number (0 means free) and
// a fixed-width, NUL-padded name.
type Dirent struct {
	Inum uint16
	Name string
}

// Dirents decodes every directory-entry slot in a single data block.
func Dirents(block []byte) ([]Dirent, error) {
	if len(block) != BlockSize {
		return nil, fmt.Errorf("dirent block must be %d bytes, got %d", BlockSize, len(block))
	}

	entries := make([]Dirent, DirentsPerBlock)
	for i := 0; i < DirentsPerBlock; i++ {
		off := i * direntSize
		raw := block[off : off+direntSize]

		inum := binary.LittleEndian.Uint16(raw[0:2])
		nameBytes := raw[2 : 2+direntNameN]
		name := string(bytes.TrimRight(nameBytes, "\x00"))

		entries[i] = Dirent{Inum: inum, Name: name}
	}
	return entries, nil
}
