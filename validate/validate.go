// Package validate implements the validator: the fixed, ordered sequence of
// checks that interpret a decoded xv6-style image and enforce the
// invariants relating its inode table, address graphs, directory contents,
// and allocation bitmap. It is the core of xcheck.
package validate

import (
	"github.com/hatfield-c/xcheck/fsimage"
)

// Context bundles the immutable, read-only views every check needs. It is
// built once per run and never mutated afterwards.
type Context struct {
	Dec    *fsimage.Decoder
	Walker *fsimage.Walker

	super     fsimage.Superblock
	bitmap    fsimage.Bitmap
	reachable *reachableSet
}

func newContext(dec *fsimage.Decoder) (*Context, error) {
	walker := fsimage.NewWalker(dec)

	bm, err := dec.LoadBitmap()
	if err != nil {
		return nil, err
	}

	reachable, err := buildReachableSet(dec, walker)
	if err != nil {
		return nil, err
	}

	return &Context{
		Dec:       dec,
		Walker:    walker,
		super:     dec.Superblock(),
		bitmap:    bm,
		reachable: reachable,
	}, nil
}

// Run executes the eight checks in their fixed order and returns the first
// violation encountered, or nil if the image passes all of them. The
// returned error is non-nil only when the image is too malformed to
// evaluate further (e.g. the superblock declares more inodes than the
// mapped region holds). It is never itself a named invariant violation.
func Run(dec *fsimage.Decoder) (*Violation, error) {
	ctx, err := newContext(dec)
	if err != nil {
		return nil, err
	}

	for _, check := range orderedChecks {
		v, err := check(ctx)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}
