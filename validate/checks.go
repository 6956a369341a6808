package validate

import (
	"golang.org/x/exp/slices"

	"github.com/hatfield-c/xcheck/fsimage"
)

// Violation names one failed invariant and the exact diagnostic line the
// driver must print for it. Both fields are fixed strings; there is no
// formatting or interpolation at the call site.
type Violation struct {
	Check   string
	Message string
}

func violation(check, message string) *Violation {
	return &Violation{Check: check, Message: message}
}

type checkFunc func(ctx *Context) (*Violation, error)

// orderedChecks is the fixed sequence the validator runs. The first failure
// wins; nothing after it runs.
var orderedChecks = []checkFunc{
	checkInodesValid,
	checkInodesAddress,
	checkRoot,
	checkDirectory,
	checkInodesInBitmap,
	checkBitmapInInodes,
	checkDirectAddress,
	checkIndirectAddress,
}

// check 1: every inode has a recognized type.
func checkInodesValid(ctx *Context) (*Violation, error) {
	for n := uint32(0); n < ctx.Dec.NumInodes(); n++ {
		inode, err := ctx.Dec.Inode(n)
		if err != nil {
			return nil, err
		}
		switch inode.Type {
		case fsimage.TypeUnallocated, fsimage.TypeDirectory, fsimage.TypeFile, fsimage.TypeDevice:
			// recognized
		default:
			return violation("inodes-valid", "ERROR: bad inode"), nil
		}
	}
	return nil, nil
}

// check 2: every in-use inode's direct addresses (including the indirect
// slot's own address) and indirect-block entries lie in [DataOffset, size),
// where size is the superblock's total block count. nblocks is a count of
// data blocks (see checkBitmapInInodes), not an absolute address bound;
// comparing an absolute address directly against it would reject every
// valid address past the first nblocks blocks of the image.
func checkInodesAddress(ctx *Context) (*Violation, error) {
	dataOffset := ctx.Dec.DataOffset()
	size := ctx.super.Size
	if size == 0 {
		size = dataOffset + ctx.super.NBlocks
	}

	inRange := func(addr uint32) bool {
		return addr >= dataOffset && addr < size
	}

	for n := uint32(0); n < ctx.Dec.NumInodes(); n++ {
		inode, err := ctx.Dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if !inode.InUse() {
			continue
		}

		// All NDirect+1 address slots, including the indirect block's own
		// pointer, are checked here as "direct" addresses: they are stored
		// directly in the inode, regardless of what they point to.
		for _, addr := range inode.Addrs {
			if addr != 0 && !inRange(addr) {
				return violation("inodes-address", "ERROR: bad direct address in inode."), nil
			}
		}

		if inode.Addrs[fsimage.NDirect] == 0 {
			continue
		}
		entries, err := ctx.Walker.IndirectEntries(inode)
		if err != nil {
			return nil, err
		}
		for _, addr := range entries {
			if !inRange(addr) {
				return violation("inodes-address", "ERROR: bad indirect address in inode."), nil
			}
		}
	}
	return nil, nil
}

// check 3: the root directory exists, is non-empty, and its first block's
// first two entries both point back at inode 1.
func checkRoot(ctx *Context) (*Violation, error) {
	fail := violation("root", "ERROR: root directory does not exit.")

	root, err := ctx.Dec.Inode(fsimage.RootInum)
	if err != nil {
		return nil, err
	}
	if !root.InUse() || root.Size == 0 || root.Addrs[0] == 0 {
		return fail, nil
	}

	block, err := ctx.Dec.Block(root.Addrs[0])
	if err != nil {
		return nil, err
	}
	entries, err := fsimage.Dirents(block)
	if err != nil {
		return nil, err
	}

	if entries[0].Inum != fsimage.RootInum || entries[1].Inum != fsimage.RootInum {
		return fail, nil
	}
	return nil, nil
}

// check 4: every directory's first block, if allocated, begins with "."
// pointing at the directory's own inode and ".." as the second entry.
func checkDirectory(ctx *Context) (*Violation, error) {
	fail := violation("directory", "ERROR: directory not properly formatted.")

	for n := uint32(0); n < ctx.Dec.NumInodes(); n++ {
		inode, err := ctx.Dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if inode.Type != fsimage.TypeDirectory {
			continue
		}
		if inode.Addrs[0] == 0 {
			// Vacuously valid: no data block allocated yet.
			continue
		}

		block, err := ctx.Dec.Block(inode.Addrs[0])
		if err != nil {
			return nil, err
		}
		entries, err := fsimage.Dirents(block)
		if err != nil {
			return nil, err
		}

		if entries[0].Name != "." || entries[0].Inum != uint16(n) {
			return fail, nil
		}
		if entries[1].Name != ".." {
			return fail, nil
		}
	}
	return nil, nil
}

// check 5: every block reachable through an in-use inode is marked in-use
// in the bitmap.
func checkInodesInBitmap(ctx *Context) (*Violation, error) {
	fail := violation("inodes-in-bitmap", "ERROR: address used by inode marked free in bitmap.")

	for n := uint32(0); n < ctx.Dec.NumInodes(); n++ {
		inode, err := ctx.Dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if !inode.InUse() {
			continue
		}

		blocks, err := ctx.Walker.ReachableBlocks(inode)
		if err != nil {
			return nil, err
		}
		for _, addr := range blocks {
			if !ctx.bitmap.Get(addr) {
				return fail, nil
			}
		}
	}
	return nil, nil
}

// check 6: every data block the bitmap marks in-use is reachable through
// some in-use inode.
func checkBitmapInInodes(ctx *Context) (*Violation, error) {
	fail := violation("bitmap-in-inodes", "ERROR: bitmap marks block in use but it is not in use.")

	dataOffset := ctx.Dec.DataOffset()
	end := dataOffset + ctx.super.NBlocks
	for k := dataOffset; k < end; k++ {
		if ctx.bitmap.Get(k) && !ctx.reachable.Get(k) {
			return fail, nil
		}
	}
	return nil, nil
}

// check 7: within a single in-use inode, no non-zero direct address (the
// NDirect direct slots plus the indirect slot's own address) repeats.
// Identical addresses across different inodes are allowed, for hard links.
func checkDirectAddress(ctx *Context) (*Violation, error) {
	fail := violation("direct-address", "ERROR: direct address used more than once.")

	for n := uint32(0); n < ctx.Dec.NumInodes(); n++ {
		inode, err := ctx.Dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if !inode.InUse() {
			continue
		}
		if hasDuplicateNonZero(inode.Addrs[:]) {
			return fail, nil
		}
	}
	return nil, nil
}

// check 8: within a single in-use inode's indirect block, no address
// repeats among the entries that fall within the inode's logical size.
func checkIndirectAddress(ctx *Context) (*Violation, error) {
	fail := violation("indirect-address", "ERROR: indirect address used more than once.")

	for n := uint32(0); n < ctx.Dec.NumInodes(); n++ {
		inode, err := ctx.Dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if !inode.InUse() || inode.Addrs[fsimage.NDirect] == 0 {
			continue
		}

		entries, err := ctx.Walker.IndirectEntries(inode)
		if err != nil {
			return nil, err
		}
		if hasDuplicateNonZero(entries) {
			return fail, nil
		}
	}
	return nil, nil
}

// hasDuplicateNonZero reports whether any non-zero value in vals repeats.
// Zero means "unused slot" and is never considered a duplicate.
func hasDuplicateNonZero(vals []uint32) bool {
	seen := make([]uint32, 0, len(vals))
	for _, v := range vals {
		if v == 0 {
			continue
		}
		if slices.Contains(seen, v) {
			return true
		}
		seen = append(seen, v)
	}
	return false
}
