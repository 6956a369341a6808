// Command xcheck is an offline consistency checker for an xv6-style
// file-system image. It parses one positional argument, drives image
// initialization, runs the validator, prints at most one diagnostic line,
// and sets the process exit status accordingly.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hatfield-c/xcheck/dump"
	"github.com/hatfield-c/xcheck/fsimage"
	"github.com/hatfield-c/xcheck/image"
	"github.com/hatfield-c/xcheck/validate"
)

func main() {
	app := &cli.App{
		Name:      "xcheck",
		Usage:     "Verify the structural consistency of an xv6-style file system image",
		ArgsUsage: "<file_system_image>",
		Action:    runCheck,
		Commands: []*cli.Command{
			{
				Name:      "dump",
				Usage:     "Print a CSV report of every directory entry reachable in the image",
				ArgsUsage: "<file_system_image>",
				Action:    runDump,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err)
	}
}

// openImage is shared by both subcommands: it maps the image and decodes
// its layout, reporting the one startup diagnostic spec.md requires.
func openImage(path string) (*image.Source, *fsimage.Decoder) {
	src, err := image.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: image not found")
		os.Exit(1)
	}

	dec, err := fsimage.NewDecoder(src)
	if err != nil {
		src.Close()
		fmt.Fprintf(os.Stderr, "ERROR: could not read image: %s\n", err)
		os.Exit(1)
	}

	return src, dec
}

func runCheck(c *cli.Context) error {
	if c.Args().Len() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: xcheck <file_system_image>")
		os.Exit(1)
	}

	src, dec := openImage(c.Args().First())
	defer src.Close()

	violation, err := validate.Run(dec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read image: %s\n", err)
		os.Exit(1)
	}
	if violation != nil {
		fmt.Println(violation.Message)
		os.Exit(1)
	}

	fmt.Println("Check complete!")
	return nil
}

func runDump(c *cli.Context) error {
	if c.Args().Len() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: xcheck dump <file_system_image>")
		os.Exit(1)
	}

	src, dec := openImage(c.Args().First())
	defer src.Close()

	rows, err := dump.BuildReport(dec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read image: %s\n", err)
		os.Exit(1)
	}

	if err := dump.WriteCSV(os.Stdout, rows); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not write report: %s\n", err)
		os.Exit(1)
	}
	return nil
}
