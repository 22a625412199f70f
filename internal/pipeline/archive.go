package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
)

// PackResult reports what the packer produced: part archives on disk
// and source files that exceeded a whole part on their own.
type PackResult struct {
	Parts   []string
	Skipped []string
}

type sizedFile struct {
	path string
	size int64
}

// PackIntoParts packs files into zip archives of at most sizeLimit
// payload bytes each, written into destDir. Files are taken smallest
// first so parts fill as evenly as possible. Audio is already
// compressed, so entries are stored rather than deflated. A single file
// larger than sizeLimit is skipped, never split.
func PackIntoParts(files []string, destDir, baseName string, sizeLimit int64) (PackResult, error) {
	var result PackResult

	sized := make([]sizedFile, 0, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return result, fmt.Errorf("stating %s: %w", path, err)
		}
		if info.Size() > sizeLimit {
			log.Warnf("File %s (%d bytes) exceeds the part size limit, skipping", filepath.Base(path), info.Size())
			result.Skipped = append(result.Skipped, path)
			continue
		}
		sized = append(sized, sizedFile{path: path, size: info.Size()})
	}

	sort.Slice(sized, func(i, j int) bool { return sized[i].size < sized[j].size })

	var groups [][]string
	var current []string
	var currentSize int64
	for _, f := range sized {
		if currentSize+f.size > sizeLimit && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentSize = 0
		}
		current = append(current, f.path)
		currentSize += f.size
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	for i, group := range groups {
		name := baseName + ".zip"
		if len(groups) > 1 {
			name = fmt.Sprintf("%s_part%d.zip", baseName, i+1)
		}
		partPath := filepath.Join(destDir, name)
		if err := writeZip(partPath, group); err != nil {
			return result, err
		}
		result.Parts = append(result.Parts, partPath)
	}
	return result, nil
}

func writeZip(dest string, files []string) (err error) {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", dest, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing archive %s: %w", dest, closeErr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addStored(zw, path); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive %s: %w", dest, err)
	}
	return nil
}

func addStored(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	header := &zip.FileHeader{Name: filepath.Base(path), Method: zip.Store}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", path, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("writing %s into archive: %w", path, err)
	}
	return nil
}
