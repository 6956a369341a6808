package fsimage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatfield-c/xcheck/fsimage"
	"github.com/hatfield-c/xcheck/fsimage/fsimagetest"
)

func TestWalker_IndirectCount_RoundsUp(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)
	w := fsimage.NewWalker(dec)

	direct := uint32(fsimage.NDirect) * fsimage.BlockSize

	assert.Equal(t, uint32(0), w.IndirectCount(fsimage.Dinode{Size: direct}))
	assert.Equal(t, uint32(1), w.IndirectCount(fsimage.Dinode{Size: direct + 1}))
	assert.Equal(t, uint32(1), w.IndirectCount(fsimage.Dinode{Size: direct + fsimage.BlockSize}))
	assert.Equal(t, uint32(2), w.IndirectCount(fsimage.Dinode{Size: direct + fsimage.BlockSize + 1}))
}

func TestWalker_ReachableBlocks_IncludesIndirectBlockItself(t *testing.T) {
	region, layout := fsimagetest.New()
	buf := region.Bytes()

	indirectAddr := layout.RootDataAddr + 1
	entryAddr := layout.RootDataAddr + 2

	indirectBlock := buf[indirectAddr*fsimage.BlockSize : (indirectAddr+1)*fsimage.BlockSize]
	indirectBlock[0] = byte(entryAddr)

	inode := fsimage.Dinode{
		Type: fsimage.TypeFile,
		Size: uint32(fsimage.NDirect)*fsimage.BlockSize + 1,
		Addrs: func() [fsimage.NDirect + 1]uint32 {
			var a [fsimage.NDirect + 1]uint32
			a[fsimage.NDirect] = indirectAddr
			return a
		}(),
	}

	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)
	w := fsimage.NewWalker(dec)

	reachable, err := w.ReachableBlocks(inode)
	require.NoError(t, err)
	assert.Contains(t, reachable, indirectAddr)
	assert.Contains(t, reachable, entryAddr)

	dataBlocks, err := w.DataBlocks(inode)
	require.NoError(t, err)
	assert.NotContains(t, dataBlocks, indirectAddr)
	assert.Contains(t, dataBlocks, entryAddr)
}

func TestWalker_DirectSlots_IncludesZeros(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)
	w := fsimage.NewWalker(dec)

	inode := fsimage.Dinode{Addrs: [fsimage.NDirect + 1]uint32{5, 0, 0, 7}}
	slots := w.DirectSlots(inode)
	assert.Equal(t, uint32(5), slots[0])
	assert.Equal(t, uint32(0), slots[1])
	assert.Equal(t, uint32(7), slots[3])
}

func TestWalker_IndirectEntries_NoIndirectBlock(t *testing.T) {
	region, _ := fsimagetest.New()
	dec, err := fsimage.NewDecoder(region)
	require.NoError(t, err)
	w := fsimage.NewWalker(dec)

	entries, err := w.IndirectEntries(fsimage.Dinode{})
	require.NoError(t, err)
	assert.Nil(t, entries)
}
