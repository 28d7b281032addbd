package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrCancelled is returned by a Sharer when the user explicitly dismissed the
// share. It is not a failure: no fallback runs and no notice is shown.
var ErrCancelled = errors.New("share cancelled")

// FailedError reports that neither the native target nor any fallback
// could deliver the payload.
type FailedError struct {
	Err error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("share failed: %v", e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// IsFailedError reports whether err is (or wraps) a *FailedError.
func IsFailedError(err error) bool {
	var fe *FailedError
	return errors.As(err, &fe)
}

// Payload is what gets shared.
type Payload struct {
	Title string
	Text  string
}

// Sharer is a native share target.
type Sharer interface {
	Share(ctx context.Context, p Payload) error
}

// Fallback delivers a payload when native sharing is unavailable or fails.
// Deliver returns where the payload went (a path, or "" when not
// applicable).
type Fallback interface {
	Path() Path
	Deliver(ctx context.Context, p Payload) (location string, err error)
}

// Path identifies how a share attempt ended.
type Path string

const (
	PathNative    Path = "native"
	PathClipboard Path = "clipboard"
	PathFile      Path = "file"
	PathCancelled Path = "cancelled"
)

// Notices shown per path.
const (
	NoticeNative    = "공유 QR 코드를 표시했습니다 📱"
	NoticeClipboard = "클립보드에 복사되었습니다! 📋"
	NoticeFile      = "파일로 저장되었습니다 💾"
	NoticeFailed    = "복사에 실패했습니다"
)

// Outcome describes a finished share attempt.
type Outcome struct {
	Path     Path
	Notice   string
	Location string
}

// Share runs the share policy: try native when present; a cancellation
// ends the attempt quietly; any other native error, or no native target,
// moves on to the fallbacks in order. The first fallback that succeeds
// wins. When nothing succeeds the result is a *FailedError.
func Share(ctx context.Context, native Sharer, fallbacks []Fallback, p Payload) (Outcome, error) {
	var lastErr error

	if native != nil {
		err := native.Share(ctx, p)
		switch {
		case err == nil:
			return Outcome{Path: PathNative, Notice: NoticeNative}, nil
		case errors.Is(err, ErrCancelled):
			slog.Debug("share cancelled by user")
			return Outcome{Path: PathCancelled}, nil
		default:
			slog.Warn("native share failed, falling back", "error", err)
			lastErr = err
		}
	}

	for _, fb := range fallbacks {
		location, err := fb.Deliver(ctx, p)
		if err != nil {
			slog.Warn("share fallback failed", "path", fb.Path(), "error", err)
			lastErr = err
			continue
		}
		return Outcome{Path: fb.Path(), Notice: noticeFor(fb.Path(), location), Location: location}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no share target available")
	}
	return Outcome{Notice: NoticeFailed}, &FailedError{Err: lastErr}
}

func noticeFor(path Path, location string) string {
	switch path {
	case PathClipboard:
		return NoticeClipboard
	case PathFile:
		if location != "" {
			return NoticeFile + " " + location
		}
		return NoticeFile
	default:
		return NoticeNative
	}
}
