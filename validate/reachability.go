package validate

import (
	"github.com/boljen/go-bitmap"

	"github.com/hatfield-c/xcheck/fsimage"
)

// reachableSet tracks, in one pass over every in-use inode, which block
// indices are referenced by some inode's direct or indirect addresses. It
// replaces a repeated O(inodes x blocks) scan, once per block in
// bitmap-in-inodes, with a single bitmap built once and consulted by that
// check.
type reachableSet struct {
	bits bitmap.Bitmap
	size uint32
}

func buildReachableSet(dec *fsimage.Decoder, walker *fsimage.Walker) (*reachableSet, error) {
	super := dec.Superblock()
	size := super.Size
	if size == 0 {
		size = super.NBlocks + dec.DataOffset()
	}

	rs := &reachableSet{bits: bitmap.New(int(size)), size: size}

	for n := uint32(0); n < dec.NumInodes(); n++ {
		inode, err := dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if !inode.InUse() {
			continue
		}
		// An indirect slot outside the image can't be read. inodes-address
		// reports it before bitmap-in-inodes consults this set, so skip the
		// inode here rather than fail the whole run ahead of that check.
		if inode.Addrs[fsimage.NDirect] >= size {
			continue
		}

		blocks, err := walker.ReachableBlocks(inode)
		if err != nil {
			return nil, err
		}
		for _, addr := range blocks {
			if addr < size {
				rs.bits.Set(int(addr), true)
			}
		}
	}

	return rs, nil
}

// Get reports whether block k is referenced by some in-use inode.
// Out-of-range indices are reported as unreferenced.
func (rs *reachableSet) Get(k uint32) bool {
	if k >= rs.size {
		return false
	}
	return rs.bits.Get(int(k))
}
