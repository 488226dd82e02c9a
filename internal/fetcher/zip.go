package fetcher

import (
	"archive/zip"
	"io"

	"github.com/rotisserie/eris"
)

// OpenZIPEntry opens a single named file inside a ZIP archive for streaming
// without extracting it to disk. The returned closer releases both the entry
// and the archive. Used to pull one company's facts out of the EDGAR bulk
// archive, which holds one JSON file per CIK.
func OpenZIPEntry(zipPath, fileName string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}

	for _, f := range r.File {
		if f.Name == fileName {
			rc, err := f.Open()
			if err != nil {
				r.Close() //nolint:errcheck
				return nil, eris.Wrapf(err, "zip: open entry %q", fileName)
			}
			return &zipEntryReader{rc: rc, archive: r}, nil
		}
	}

	r.Close() //nolint:errcheck
	return nil, eris.Errorf("zip: file %q not found in archive", fileName)
}

type zipEntryReader struct {
	rc      io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Read(p []byte) (int, error) { return z.rc.Read(p) }

func (z *zipEntryReader) Close() error {
	entryErr := z.rc.Close()
	archiveErr := z.archive.Close()
	if entryErr != nil {
		return entryErr
	}
	return archiveErr
}

// ListZIPEntries returns the names of all files in a ZIP archive, skipping
// directories.
func ListZIPEntries(zipPath string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}
