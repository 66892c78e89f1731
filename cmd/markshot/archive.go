package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/markshot/internal/export"
)

type archiveCmd struct {
	dir string
	*root
	fs *flag.FlagSet
}

func (a *archiveCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *archiveCmd) Program() string {
	return a.root.subProgram("archive")
}

func parseArchiveCmd(args []string, r *root) (*archiveCmd, error) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	a := &archiveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.dir, "dir", "", "archive directory (default archive_dir from the config)")
	if len(args) < 1 || args[0] != "list" {
		return nil, &UsageError{of: a}
	}
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *archiveCmd) Run() error {
	dir := a.dir
	if dir == "" {
		dir = archiveDir(a.settings())
	}
	archive := export.Archive{Dir: dir}
	ids, err := archive.List()
	if err != nil {
		return fmt.Errorf("archive list: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintf(os.Stderr, "no archived sessions in %s\n", dir)
		return nil
	}
	for _, id := range ids {
		fmt.Printf("%s\t%s\n", id, archive.Entry(id).Frame)
	}
	return nil
}
