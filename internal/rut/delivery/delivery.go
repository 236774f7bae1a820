// Package delivery hands exported workbooks to the user: a direct download
// on web runtimes, save-then-share on mobile ones.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"bayi-rut/internal/common/config"
	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/common/logger"
)

type Method string

const (
	MethodDownload Method = "download"
	MethodShare    Method = "share"
)

// ErrShareUnavailable is returned when no share mechanism is configured.
var ErrShareUnavailable = errors.New("share is not available on this device")

// Outcome describes where a delivered file ended up.
type Outcome struct {
	Method   Method `json:"method"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
}

// Deliverer stores data under filename and makes it available to the user.
type Deliverer interface {
	Deliver(ctx context.Context, data []byte, filename string) (*Outcome, error)
}

// Sharer opens the platform share sheet for a saved file.
type Sharer interface {
	Share(ctx context.Context, path string) error
}

// DirectDownload writes the file into the downloads directory.
type DirectDownload struct {
	dir    string
	logger logger.Logger
}

func NewDirectDownload(dir string, log logger.Logger) *DirectDownload {
	return &DirectDownload{dir: dir, logger: log}
}

func (d *DirectDownload) Method() Method { return MethodDownload }

func (d *DirectDownload) Deliver(ctx context.Context, data []byte, filename string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewExportDeliveryError("download", err)
	}
	path, err := writeFile(d.dir, filename, data)
	if err != nil {
		return nil, apperrors.NewExportDeliveryError("write", err)
	}
	d.logger.Info("export downloaded", map[string]interface{}{"path": path, "bytes": len(data)})
	return &Outcome{Method: MethodDownload, Path: path, Filename: filepath.Base(path), Bytes: len(data)}, nil
}

// SaveAndShare writes the file into app storage and passes it to a Sharer.
type SaveAndShare struct {
	dir    string
	sharer Sharer
	logger logger.Logger
}

func NewSaveAndShare(dir string, sharer Sharer, log logger.Logger) *SaveAndShare {
	return &SaveAndShare{dir: dir, sharer: sharer, logger: log}
}

func (s *SaveAndShare) Method() Method { return MethodShare }

func (s *SaveAndShare) Deliver(ctx context.Context, data []byte, filename string) (*Outcome, error) {
	if s.sharer == nil {
		return nil, apperrors.NewExportDeliveryError("share", ErrShareUnavailable)
	}
	path, err := writeFile(s.dir, filename, data)
	if err != nil {
		return nil, apperrors.NewExportDeliveryError("write", err)
	}
	if err := s.sharer.Share(ctx, path); err != nil {
		return nil, apperrors.NewExportDeliveryError("share", err).WithMetadata("path", path)
	}
	s.logger.Info("export shared", map[string]interface{}{"path": path, "bytes": len(data)})
	return &Outcome{Method: MethodShare, Path: path, Filename: filepath.Base(path), Bytes: len(data)}, nil
}

// Select picks the delivery strategy once at startup.
func Select(cfg config.DeliveryConfig, log logger.Logger) Deliverer {
	return selectFor(cfg, runtime.GOOS, log)
}

func selectFor(cfg config.DeliveryConfig, goos string, log logger.Logger) Deliverer {
	mode := strings.ToLower(cfg.Runtime)
	if mode == "" || mode == config.RuntimeAuto {
		mode = config.RuntimeWeb
		if goos == "android" || goos == "ios" {
			mode = config.RuntimeMobile
		}
	}
	if mode == config.RuntimeMobile {
		return NewSaveAndShare(cfg.StorageDir, NewExecSharer(cfg.ShareCommand), log)
	}
	return NewDirectDownload(cfg.DownloadDir, log)
}

// writeFile stores data atomically in dir. An existing file of the same
// name is kept and a numbered name is used instead.
func writeFile(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	target, err := reservePath(dir, filename)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return target, nil
}

// reservePath creates an empty placeholder under the first free name so a
// file that appears concurrently is never overwritten by the rename.
func reservePath(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	path := filepath.Join(dir, filename)
	for i := 1; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to reserve %s: %w", path, err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
