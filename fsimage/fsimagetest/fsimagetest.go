// Package fsimagetest builds minimal, in-memory xv6-style image fixtures for
// tests in fsimage and validate. It writes a pristine eight-inode image (root
// directory, all other inodes unallocated) and exposes small helpers callers use to
// corrupt specific fields, mirroring how the teacher's own testing package
// hands back a raw byte buffer rather than a fixture DSL.
package fsimagetest

import (
	"encoding/binary"

	"github.com/boljen/go-bitmap"
	"github.com/noxer/bytewriter"
	"github.com/xaionaro-go/bytesextra"

	"github.com/hatfield-c/xcheck/fsimage"
)

// Layout records the block geometry of a built fixture, so tests can locate
// and corrupt specific fields without recomputing offsets by hand.
type Layout struct {
	NBlocks      uint32
	NInodes      uint32
	BitmapBlock  uint32
	DataOffset   uint32
	RootDataAddr uint32
}

// Region adapts a plain byte slice to the fsimage.Region / image.Region
// shape, using the same in-memory ReadWriteSeeker the teacher's own tests use
// for fixture buffers.
type Region struct {
	buf []byte
}

// NewRegion wraps buf for reading. Writes made directly to buf after
// construction are visible through the Region, since no copy is taken.
func NewRegion(buf []byte) *Region {
	return &Region{buf: buf}
}

func (r *Region) Len() int64 { return int64(len(r.buf)) }

func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	rws := bytesextra.NewReadWriteSeeker(r.buf)
	if _, err := rws.Seek(off, 0); err != nil {
		return 0, err
	}
	return rws.Read(p)
}

// Bytes returns the underlying buffer for direct, in-place corruption.
func (r *Region) Bytes() []byte { return r.buf }

const (
	numInodes = 8
	numBlocks = 32
)

// New builds a minimal valid image: boot block, superblock, an inode table
// sized for numInodes inodes, a one-block bitmap, and a data region with the
// root directory's single block allocated and marked in use. Inode 1 is the
// root directory; all other inodes are unallocated.
func New() (*Region, Layout) {
	inodeBlocks := ceilDiv(numInodes, fsimage.InodesPerBlock)
	bitmapBlock := fsimage.InodeTableBase + inodeBlocks
	dataOffset := bitmapBlock + 1
	rootDataAddr := dataOffset

	totalBlocks := dataOffset + numBlocks
	buf := make([]byte, totalBlocks*fsimage.BlockSize)

	writeSuperblock(buf, Layout{
		NBlocks:     numBlocks,
		NInodes:     numInodes,
		BitmapBlock: bitmapBlock,
		DataOffset:  dataOffset,
	})

	writeInode(buf, fsimage.RootInum, fsimage.Dinode{
		Type:  fsimage.TypeDirectory,
		Nlink: 1,
		Size:  fsimage.BlockSize,
		Addrs: [fsimage.NDirect + 1]uint32{rootDataAddr},
	})

	bm := bitmap.New(int(dataOffset + numBlocks))
	bm.Set(int(rootDataAddr), true)
	copy(buf[bitmapBlock*fsimage.BlockSize:], bm.Data(false))

	writeRootDirBlock(buf, rootDataAddr)

	return NewRegion(buf), Layout{
		NBlocks:      numBlocks,
		NInodes:      numInodes,
		BitmapBlock:  bitmapBlock,
		DataOffset:   dataOffset,
		RootDataAddr: rootDataAddr,
	}
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

func writeSuperblock(buf []byte, l Layout) {
	block := buf[fsimage.SuperBlockIdx*fsimage.BlockSize : (fsimage.SuperBlockIdx+1)*fsimage.BlockSize]
	w := bytewriter.New(block)

	size := l.DataOffset + l.NBlocks
	binary.Write(w, binary.LittleEndian, size)
	binary.Write(w, binary.LittleEndian, l.NBlocks)
	binary.Write(w, binary.LittleEndian, l.NInodes)
	binary.Write(w, binary.LittleEndian, uint32(0)) // nlog
	binary.Write(w, binary.LittleEndian, uint32(0)) // logstart
	binary.Write(w, binary.LittleEndian, uint32(fsimage.InodeTableBase))
	binary.Write(w, binary.LittleEndian, l.BitmapBlock)
}

// WriteInode overwrites inode n's on-disk record in place.
func WriteInode(buf []byte, n uint32, inode fsimage.Dinode) {
	writeInode(buf, n, inode)
}

func writeInode(buf []byte, n uint32, inode fsimage.Dinode) {
	const dinodeSize = 2 + 2 + 2 + 2 + 4 + (fsimage.NDirect+1)*4
	offset := fsimage.InodeTableBase*fsimage.BlockSize + int(n)*dinodeSize
	block := buf[offset : offset+dinodeSize]
	w := bytewriter.New(block)

	binary.Write(w, binary.LittleEndian, inode.Type)
	binary.Write(w, binary.LittleEndian, inode.Major)
	binary.Write(w, binary.LittleEndian, inode.Minor)
	binary.Write(w, binary.LittleEndian, inode.Nlink)
	binary.Write(w, binary.LittleEndian, inode.Size)
	for _, addr := range inode.Addrs {
		binary.Write(w, binary.LittleEndian, addr)
	}
}

// WriteDirent overwrites directory-entry slot index i within the block at
// blockAddr.
func WriteDirent(buf []byte, blockAddr uint32, index int, inum uint16, name string) {
	const direntSize = 2 + 14
	blockOff := int(blockAddr) * fsimage.BlockSize
	off := blockOff + index*direntSize

	var nameField [14]byte
	copy(nameField[:], name)

	w := bytewriter.New(buf[off : off+direntSize])
	binary.Write(w, binary.LittleEndian, inum)
	w.Write(nameField[:])
}

func writeRootDirBlock(buf []byte, blockAddr uint32) {
	WriteDirent(buf, blockAddr, 0, fsimage.RootInum, ".")
	WriteDirent(buf, blockAddr, 1, fsimage.RootInum, "..")
}

// SetBitmapBit sets or clears bit k of the bitmap block in place.
func SetBitmapBit(buf []byte, bitmapBlock uint32, k uint32, value bool) {
	block := buf[bitmapBlock*fsimage.BlockSize : (bitmapBlock+1)*fsimage.BlockSize]
	bm := bitmap.Bitmap(block)
	bm.Set(int(k), value)
}
