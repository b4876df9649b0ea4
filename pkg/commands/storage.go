package commands

import (
	"fmt"
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
)

const probeFileName = ".saveli-write-probe"

// StorageResult reports the outcome of SetStoragePath
type StorageResult struct {
	Path     string
	Previous string
	DryRun   bool
	Warnings []string
}

// SetStoragePath makes path the storage root. The directory is created if
// needed and must be writable.
func SetStoragePath(opts Options, path string) (*StorageResult, error) {
	root, err := paths.MakeAbsolute(path)
	if err != nil {
		return nil, err
	}
	root = filepath.Clean(root)

	s, err := openSession(opts, true)
	if err != nil {
		return nil, err
	}
	defer s.close()

	result := &StorageResult{Path: root, Previous: s.reg.StorageRoot(), DryRun: opts.DryRun}
	if result.Previous != "" && !paths.SamePath(result.Previous, root) {
		if n := len(s.reg.IDsIn(types.StateLinked)); n > 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%d linked entries still keep their data under %s; move it to %s before restoring",
				n, result.Previous, root))
		}
	}

	if opts.DryRun {
		return result, nil
	}

	if err := checkWritable(s, root); err != nil {
		return nil, err
	}

	s.reg.SetStorageRoot(root)
	if err := s.save(); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("path", root).
		Str("previous", result.Previous).
		Msg("Storage root set")
	return result, nil
}

func checkWritable(s *session, root string) error {
	notWritable := func(err error) error {
		return serrors.Wrapf(err, serrors.ErrStorageNotWritable, "%s is not a writable directory", root).
			WithDetail("path", root)
	}

	if err := s.fs.MkdirAll(root, 0755); err != nil {
		return notWritable(err)
	}
	info, err := s.fs.Stat(root)
	if err != nil {
		return notWritable(err)
	}
	if !info.IsDir() {
		return notWritable(fmt.Errorf("not a directory"))
	}

	probe := filepath.Join(root, probeFileName)
	if err := s.fs.WriteFile(probe, []byte("saveli"), 0644); err != nil {
		return notWritable(err)
	}
	if err := s.fs.Remove(probe); err != nil {
		return notWritable(err)
	}
	return nil
}
