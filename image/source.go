// Package image opens an on-disk file-system image and exposes it as a
// contiguous, read-only, randomly-addressable byte region. It knows nothing
// about the xv6 layout inside the bytes; that's fsimage's job.
package image

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/mmap"

	"github.com/hatfield-c/xcheck/xcerrors"
)

// Region is the read-only, O(1)-random-access byte source the layout decoder
// consumes. *Source implements it; tests may substitute any other ReaderAt.
type Region interface {
	Len() int64
	ReadAt(p []byte, off int64) (int, error)
}

// Source memory-maps an image file for the life of the program.
type Source struct {
	reader *mmap.ReaderAt
	length int64
}

// Open maps the file at path read-only. It never modifies the file.
func Open(path string) (*Source, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, xcerrors.ErrImageNotFound.WrapError(err)
	}

	length := reader.Len()

	var errs *multierror.Error
	if length <= 0 {
		errs = multierror.Append(errs, xcerrors.ErrImageTooSmall.WithMessage(
			fmt.Sprintf("image is %d bytes", length),
		))
	}
	if err := errs.ErrorOrNil(); err != nil {
		reader.Close()
		return nil, err
	}

	return &Source{reader: reader, length: int64(length)}, nil
}

// Len returns the total size of the image, in bytes.
func (s *Source) Len() int64 {
	return s.length
}

// ReadAt implements io.ReaderAt over the mapped region.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	return s.reader.ReadAt(p, off)
}

// Close releases the mapping. The image must not be used afterwards.
func (s *Source) Close() error {
	return s.reader.Close()
}
