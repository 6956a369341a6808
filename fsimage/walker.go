package fsimage

import "encoding/binary"

// entriesPerIndirectBlock is the number of 32-bit addresses packed into one
// indirect block.
const entriesPerIndirectBlock = BlockSize / 4

// Walker enumerates the data-block addresses an inode references: its
// direct slots, and, if present, the indirect block's own address followed
// by the (size-bounded) addresses it contains.
type Walker struct {
	dec *Decoder
}

// NewWalker builds a Walker over decoder dec.
func NewWalker(dec *Decoder) *Walker {
	return &Walker{dec: dec}
}

// IndirectCount returns the number of indirect-block entries that fall
// within the inode's logical size: ceil((size - NDirect*B)/B) once size
// exceeds the direct capacity, else 0. This must round up, not down: a
// file one byte past a block boundary still needs that extra block.
func (w *Walker) IndirectCount(inode Dinode) uint32 {
	directCapacity := uint32(NDirect) * BlockSize
	if inode.Size <= directCapacity {
		return 0
	}
	return ceilDiv(inode.Size-directCapacity, BlockSize)
}

// IndirectEntries reads the inode's indirect block, if any, and returns its
// entries truncated to IndirectCount and to the block's own capacity.
// Returns (nil, nil) when the inode has no indirect block.
func (w *Walker) IndirectEntries(inode Dinode) ([]uint32, error) {
	addr := inode.Addrs[NDirect]
	if addr == 0 {
		return nil, nil
	}

	block, err := w.dec.Block(addr)
	if err != nil {
		return nil, err
	}

	count := w.IndirectCount(inode)
	if count > entriesPerIndirectBlock {
		count = entriesPerIndirectBlock
	}

	entries := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		off := i * 4
		entries[i] = binary.LittleEndian.Uint32(block[off : off+4])
	}
	return entries, nil
}

// DirectSlots returns all NDirect direct address slots, including zeros.
// Unlike ReachableBlocks and DataBlocks, unallocated (zero) slots are kept
// in place.
func (w *Walker) DirectSlots(inode Dinode) [NDirect]uint32 {
	var slots [NDirect]uint32
	copy(slots[:], inode.Addrs[:NDirect])
	return slots
}

// ReachableBlocks returns every non-zero block address this inode
// references: its non-zero direct slots, then (if present) the indirect
// block's own address, then its non-zero entries.
func (w *Walker) ReachableBlocks(inode Dinode) ([]uint32, error) {
	var blocks []uint32

	for _, addr := range inode.Addrs[:NDirect] {
		if addr != 0 {
			blocks = append(blocks, addr)
		}
	}

	indirectAddr := inode.Addrs[NDirect]
	if indirectAddr != 0 {
		blocks = append(blocks, indirectAddr)

		entries, err := w.IndirectEntries(inode)
		if err != nil {
			return nil, err
		}
		for _, addr := range entries {
			if addr != 0 {
				blocks = append(blocks, addr)
			}
		}
	}

	return blocks, nil
}

// DataBlocks returns only the blocks that actually hold file/directory
// data: the non-zero direct slots and the non-zero indirect entries, but
// not the indirect block's own address. Used by callers that want to read
// the inode's contents (e.g. the dump report), as opposed to
// ReachableBlocks, which callers that cross-check the bitmap use: the
// bitmap must also mark the indirect block itself as in-use.
func (w *Walker) DataBlocks(inode Dinode) ([]uint32, error) {
	var blocks []uint32

	for _, addr := range inode.Addrs[:NDirect] {
		if addr != 0 {
			blocks = append(blocks, addr)
		}
	}

	if inode.Addrs[NDirect] != 0 {
		entries, err := w.IndirectEntries(inode)
		if err != nil {
			return nil, err
		}
		for _, addr := range entries {
			if addr != 0 {
				blocks = append(blocks, addr)
			}
		}
	}

	return blocks, nil
}
