// Package fsimage decodes the fixed xv6-style on-disk layout described in
// the project's image format: a boot block, a superblock, a contiguous
// inode table, a free-block bitmap, and a data-block region. Every type in
// this package is a read-only projection over the bytes handed to it by
// package image: blocks and records are copied out of the region and decoded
// field by field, never written back. It performs no consistency checking
// beyond bounds (that's package validate's job).
package fsimage

import (
	"encoding/binary"
	"fmt"

	"github.com/hatfield-c/xcheck/xcerrors"
)

const (
	// BlockSize is the fixed size of one block, in bytes.
	BlockSize = 512
	// NDirect is the number of direct address slots in a dinode.
	NDirect = 12
	// RootInum is the inode number of the file system root.
	RootInum = 1
	// BootBlock, SuperBlockIdx and InodeTableBase name the first three fixed
	// block indices.
	BootBlock      = 0
	SuperBlockIdx  = 1
	InodeTableBase = 2

	// dinodeSize is the on-disk size of one dinode: 4 uint16 fields, one
	// uint32 field, and NDirect+1 uint32 addresses.
	dinodeSize = 2 + 2 + 2 + 2 + 4 + (NDirect+1)*4
	// direntSize is the on-disk size of one dirent: a uint16 inum and a
	// 14-byte fixed name field.
	direntSize  = 2 + 14
	direntNameN = 14

	// InodesPerBlock is the number of packed dinode records per block.
	InodesPerBlock = BlockSize / dinodeSize
	// DirentsPerBlock is the number of packed dirent records per block.
	DirentsPerBlock = BlockSize / direntSize
)

// Inode type codes, per spec.
const (
	TypeUnallocated = 0
	TypeDirectory   = 1
	TypeFile        = 2
	TypeDevice      = 3
)

// Region is the byte source a Decoder projects over.
type Region interface {
	Len() int64
	ReadAt(p []byte, off int64) (int, error)
}

// Superblock is the decoded form of block 1.
type Superblock struct {
	Size       uint32
	NBlocks    uint32
	NInodes    uint32
	NLog       uint32
	LogStart   uint32
	InodeStart uint32
	BmapStart  uint32
}

// Dinode is the decoded form of one on-disk inode record.
type Dinode struct {
	Type  uint16
	Major uint16
	Minor uint16
	Nlink uint16
	Size  uint32
	Addrs [NDirect + 1]uint32
}

// InUse reports whether the inode's type marks it as allocated (directory,
// regular file, or device). It does not validate that Type is a recognized
// value; that is check 1 (inodes-valid) in package validate.
func (d Dinode) InUse() bool {
	return d.Type == TypeDirectory || d.Type == TypeFile || d.Type == TypeDevice
}

// Decoder projects typed views of the superblock, inode table, bitmap, and
// data blocks out of a raw byte region. It decodes the superblock once, at
// construction, and is immutable and read-only thereafter.
type Decoder struct {
	region     Region
	super      Superblock
	dataOffset uint32
}

// NewDecoder reads and decodes the superblock from region and computes the
// data-block offset. It returns an error only for structural problems that
// would make every further read fail (the image is shorter than the boot
// block plus the superblock, the superblock can't be read, or the total
// block count the superblock claims doesn't fit in the file); anything else
// is left for the validator to report as a named invariant violation.
func NewDecoder(region Region) (*Decoder, error) {
	if region.Len() < BlockSize*2 {
		return nil, xcerrors.ErrImageTooSmall.WithMessage(
			fmt.Sprintf("image is %d bytes, need at least %d for boot+superblock", region.Len(), BlockSize*2),
		)
	}

	d := &Decoder{region: region}

	buf := make([]byte, BlockSize)
	if _, err := region.ReadAt(buf, SuperBlockIdx*BlockSize); err != nil {
		return nil, xcerrors.ErrImageUnreadable.WrapError(err)
	}

	super := Superblock{
		Size:       binary.LittleEndian.Uint32(buf[0:4]),
		NBlocks:    binary.LittleEndian.Uint32(buf[4:8]),
		NInodes:    binary.LittleEndian.Uint32(buf[8:12]),
		NLog:       binary.LittleEndian.Uint32(buf[12:16]),
		LogStart:   binary.LittleEndian.Uint32(buf[16:20]),
		InodeStart: binary.LittleEndian.Uint32(buf[20:24]),
		BmapStart:  binary.LittleEndian.Uint32(buf[24:28]),
	}
	d.super = super

	// Open Question resolved: prefer the superblock's own bmapstart field;
	// fall back to the xv6 convention when it's absent (zero).
	if super.BmapStart != 0 {
		d.dataOffset = super.BmapStart + 1
	} else {
		inodeBlocks := ceilDiv(super.NInodes, InodesPerBlock)
		bmapStart := InodeTableBase + inodeBlocks
		d.dataOffset = bmapStart + 1
	}

	claimedBlocks := super.Size
	if claimedBlocks == 0 {
		claimedBlocks = d.dataOffset + super.NBlocks
	}
	actualBlocks := uint32(region.Len() / BlockSize)
	if claimedBlocks > actualBlocks {
		return nil, xcerrors.ErrLayoutInconsistent.WithMessage(fmt.Sprintf(
			"superblock claims %d blocks, image only has %d", claimedBlocks, actualBlocks,
		))
	}

	return d, nil
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Superblock returns the decoded superblock.
func (d *Decoder) Superblock() Superblock {
	return d.super
}

// DataOffset returns the index of the first data block (the spec's
// DATA_OFFSET).
func (d *Decoder) DataOffset() uint32 {
	return d.dataOffset
}

// BitmapBlockIndex returns the block index holding the free-block bitmap.
func (d *Decoder) BitmapBlockIndex() uint32 {
	return d.dataOffset - 1
}

// Block returns the B bytes of block i. It fails with a bounds error if the
// block would extend past the end of the region.
func (d *Decoder) Block(i uint32) ([]byte, error) {
	start := int64(i) * BlockSize
	if start < 0 || start+BlockSize > d.region.Len() {
		return nil, fmt.Errorf("block %d out of range (region is %d bytes)", i, d.region.Len())
	}

	buf := make([]byte, BlockSize)
	if _, err := d.region.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("reading block %d: %w", i, err)
	}
	return buf, nil
}

// Inode decodes and returns inode number n.
func (d *Decoder) Inode(n uint32) (Dinode, error) {
	offset := int64(InodeTableBase)*BlockSize + int64(n)*dinodeSize
	if offset < 0 || offset+dinodeSize > d.region.Len() {
		return Dinode{}, fmt.Errorf("inode %d out of range (region is %d bytes)", n, d.region.Len())
	}

	buf := make([]byte, dinodeSize)
	if _, err := d.region.ReadAt(buf, offset); err != nil {
		return Dinode{}, fmt.Errorf("reading inode %d: %w", n, err)
	}

	var inode Dinode
	inode.Type = binary.LittleEndian.Uint16(buf[0:2])
	inode.Major = binary.LittleEndian.Uint16(buf[2:4])
	inode.Minor = binary.LittleEndian.Uint16(buf[4:6])
	inode.Nlink = binary.LittleEndian.Uint16(buf[6:8])
	inode.Size = binary.LittleEndian.Uint32(buf[8:12])
	for i := 0; i < NDirect+1; i++ {
		off := 12 + i*4
		inode.Addrs[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return inode, nil
}

// NumInodes returns the number of inodes declared by the superblock.
func (d *Decoder) NumInodes() uint32 {
	return d.super.NInodes
}
