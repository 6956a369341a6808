package fsimage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatfield-c/xcheck/fsimage"
	"github.com/hatfield-c/xcheck/fsimage/fsimagetest"
	"github.com/hatfield-c/xcheck/xcerrors"
)

func TestNewDecoder_PristineFixture(t *testing.T) {
	region, layout := fsimagetest.New()

	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)

	assert.Equal(t, layout.NBlocks, dec.Superblock().NBlocks)
	assert.Equal(t, layout.NInodes, dec.Superblock().NInodes)
	assert.Equal(t, layout.DataOffset, dec.DataOffset())
	assert.Equal(t, layout.BitmapBlock, dec.BitmapBlockIndex())
}

func TestNewDecoder_TooSmall(t *testing.T) {
	region := fsimagetest.NewRegion(make([]byte, fsimage.BlockSize))

	_, err := fsimage.NewDecoder(region)
	assert.Error(t, err)
}

func TestNewDecoder_LayoutInconsistent(t *testing.T) {
	region, _ := fsimagetest.New()
	buf := region.Bytes()

	// Truncate the region so the superblock's claimed size no longer fits.
	truncated := fsimagetest.NewRegion(buf[:len(buf)/2])

	_, err := fsimage.NewDecoder(truncated)
	assert.ErrorIs(t, err, xcerrors.ErrLayoutInconsistent)
}

func TestDecoder_Inode_RootIsDirectory(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)

	root, err := dec.Inode(fsimage.RootInum)
	require.NoError(t, err)

	assert.Equal(t, uint16(fsimage.TypeDirectory), root.Type)
	assert.True(t, root.InUse())
}

func TestDecoder_Inode_OutOfRange(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)

	_, err = dec.Inode(dec.NumInodes() + 1000)
	assert.Error(t, err)
}

func TestDecoder_Block_OutOfRange(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)

	_, err = dec.Block(1 << 30)
	assert.Error(t, err)
}

func TestDinode_InUse(t *testing.T) {
	assert.False(t, fsimage.Dinode{Type: fsimage.TypeUnallocated}.InUse())
	assert.True(t, fsimage.Dinode{Type: fsimage.TypeDirectory}.InUse())
	assert.True(t, fsimage.Dinode{Type: fsimage.TypeFile}.InUse())
	assert.True(t, fsimage.Dinode{Type: fsimage.TypeDevice}.InUse())
}

func TestDirents_TrimsNameNuls(t *testing.T) {
	block := make([]byte, fsimage.BlockSize)
	fsimagetest.WriteDirent(block, 0, 0, 7, "bin")

	entries, err := fsimage.Dirents(block)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), entries[0].Inum)
	assert.Equal(t, "bin", entries[0].Name)
	assert.Equal(t, uint16(0), entries[1].Inum)
}

func TestDirents_WrongBlockSize(t *testing.T) {
	_, err := fsimage.Dirents(make([]byte, 10))
	assert.Error(t, err)
}

func TestBitmap_GetOutOfRange(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)

	bm, err := dec.LoadBitmap()
	require.NoError(t, err)

	assert.False(t, bm.Get(1<<20))
}
