package filesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingKey is returned when the upload key or root plan id is blank.
	ErrMissingKey = errors.New("filesync: upload key and root plan id are required")

	// ErrUploadNotFound is returned when nothing was uploaded under the key.
	ErrUploadNotFound = errors.New("filesync: upload not found")
)

// Local copies <UploadRoot>/<uploadKey>/ into <PlanRoot>/<rootPlanID>/.
type Local struct {
	UploadRoot string
	PlanRoot   string
}

// SyncUploadedFilesToPlan copies every regular file under the upload directory,
// keeping relative paths. Existing files in the plan workspace are overwritten.
func (l *Local) SyncUploadedFilesToPlan(ctx context.Context, uploadKey, rootPlanID string) error {
	src, dst, err := l.paths(uploadKey, rootPlanID)
	if err != nil {
		return err
	}

	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return fmt.Errorf("%w: %s", ErrUploadNotFound, uploadKey)
	}
	if err != nil {
		return fmt.Errorf("failed to stat upload directory: %w", err)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func (l *Local) paths(uploadKey, rootPlanID string) (string, string, error) {
	uploadKey = strings.TrimSpace(uploadKey)
	rootPlanID = strings.TrimSpace(rootPlanID)
	if uploadKey == "" || rootPlanID == "" {
		return "", "", ErrMissingKey
	}
	if !filepath.IsLocal(uploadKey) || !filepath.IsLocal(rootPlanID) {
		return "", "", fmt.Errorf("%w: keys must be relative names", ErrMissingKey)
	}
	return filepath.Join(l.UploadRoot, uploadKey), filepath.Join(l.PlanRoot, rootPlanID), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
