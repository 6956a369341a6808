// Package dump implements the supplemental "xcheck dump" report: a
// read-only CSV listing of every directory entry reachable through an
// in-use directory inode. It never participates in the validator's
// pass/fail/exit-code contract; it exists purely to inspect an image,
// supplementing the debug dump functions the original checker dropped.
package dump

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/hatfield-c/xcheck/fsimage"
)

// Row is one directory entry in the report.
type Row struct {
	ParentInode uint32 `csv:"parent_inode"`
	Name        string `csv:"name"`
	ChildInode  uint16 `csv:"child_inode"`
	ChildType   string `csv:"child_type"`
}

func typeName(t uint16) string {
	switch t {
	case fsimage.TypeDirectory:
		return "directory"
	case fsimage.TypeFile:
		return "file"
	case fsimage.TypeDevice:
		return "device"
	default:
		return "unallocated"
	}
}

// BuildReport walks every directory inode in the image and collects one Row
// per directory entry it finds, in inode order and then block order.
func BuildReport(dec *fsimage.Decoder) ([]Row, error) {
	walker := fsimage.NewWalker(dec)

	var rows []Row
	for n := uint32(0); n < dec.NumInodes(); n++ {
		inode, err := dec.Inode(n)
		if err != nil {
			return nil, err
		}
		if inode.Type != fsimage.TypeDirectory {
			continue
		}

		blocks, err := walker.DataBlocks(inode)
		if err != nil {
			return nil, err
		}

		for _, blockAddr := range blocks {
			block, err := dec.Block(blockAddr)
			if err != nil {
				return nil, err
			}
			entries, err := fsimage.Dirents(block)
			if err != nil {
				return nil, err
			}

			for _, entry := range entries {
				if entry.Inum == 0 {
					continue
				}

				childType := "?"
				if child, err := dec.Inode(uint32(entry.Inum)); err == nil {
					childType = typeName(child.Type)
				}

				rows = append(rows, Row{
					ParentInode: n,
					Name:        entry.Name,
					ChildInode:  entry.Inum,
					ChildType:   childType,
				})
			}
		}
	}

	return rows, nil
}

// WriteCSV renders rows as a headered CSV to w.
func WriteCSV(w io.Writer, rows []Row) error {
	return gocsv.Marshal(rows, w)
}
