package recorder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const PartSuffix = ".part"

// PartFile is an output file that is written under path+".part" and only
// replaces path on Commit, so a failed recording never clobbers an older one.
type PartFile struct {
	*os.File
	path string
}

func CreatePartFile(path string) (*PartFile, error) {
	f, err := os.Create(path + PartSuffix)
	if err != nil {
		return nil, err
	}
	return &PartFile{File: f, path: path}, nil
}

// Path is where the file ends up after Commit.
func (f *PartFile) Path() string { return f.path }

// Commit closes the file if needed and moves it over Path.
func (f *PartFile) Commit() error {
	if err := f.File.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	if err := os.Rename(f.Name(), f.path); err != nil {
		return fmt.Errorf("rename %v: %w", f.Name(), err)
	}
	return nil
}

// Discard closes and removes the partial file. Path is left untouched.
func (f *PartFile) Discard() error {
	f.File.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
