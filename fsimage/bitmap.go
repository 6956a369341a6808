package fsimage

import (
	"github.com/boljen/go-bitmap"
)

// Bitmap is a read-only view of the free-block bitmap: one bit per block
// in the image, indexed by absolute block number, LSB-first within each byte (bit k lives in byte k/8,
// position k%8), matching the teacher's own bitmap.Bitmap convention
// exactly.
type Bitmap struct {
	bits bitmap.Bitmap
}

// LoadBitmap decodes the single bitmap block for decoder d.
func (d *Decoder) LoadBitmap() (Bitmap, error) {
	block, err := d.Block(d.BitmapBlockIndex())
	if err != nil {
		return Bitmap{}, err
	}
	return Bitmap{bits: bitmap.Bitmap(block)}, nil
}

// Get returns whether bit k is set. Out-of-range indices return false, per
// the layout decoder's "pure projection, no validation" contract.
func (b Bitmap) Get(k uint32) bool {
	idx := int(k)
	if idx < 0 || idx/8 >= len(b.bits) {
		return false
	}
	return b.bits.Get(idx)
}
