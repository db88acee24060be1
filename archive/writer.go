package archive

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/multierr"
)

// Entry is a single file to be put into archive.
type Entry struct {
	Name string
	Data []byte
}

// Write creates zip archive at dst with entries in the order given. Archive
// is produced without data descriptors, some older tools cannot handle them.
func Write(dst string, entries []Entry) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temporary archive: %w", err)
	}
	defer func() {
		err = multierr.Append(err, os.Remove(tmp.Name()))
	}()

	now := time.Now()
	w := zip.NewWriter(tmp)
	for _, e := range entries {
		f, er := w.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: now})
		if er != nil {
			return multierr.Append(fmt.Errorf("unable to add %s: %w", e.Name, er), tmp.Close())
		}
		if _, er := f.Write(e.Data); er != nil {
			return multierr.Append(fmt.Errorf("unable to write %s: %w", e.Name, er), tmp.Close())
		}
	}
	if err := w.Close(); err != nil {
		return multierr.Append(fmt.Errorf("unable to finish archive: %w", err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return copyZipWithoutDataDescriptors(tmp.Name(), dst)
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finish target file (%s): %w", to, err)
	}
	return out.Close()
}
