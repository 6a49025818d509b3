package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vixenbot/vixen/pkg/platform"
)

// SkipReason codes why an attachment was excluded from the archive.
type SkipReason string

const (
	// SkipMissingReference means the attachment carried no usable URL.
	SkipMissingReference SkipReason = "missing_reference"

	// SkipDeclaredTooLarge means the declared size already exceeded the
	// byte budget, so no download was attempted.
	SkipDeclaredTooLarge SkipReason = "declared_too_large"

	// SkipTooLargeAfterDownload means the downloaded body exceeded the
	// byte budget despite the declared size.
	SkipTooLargeAfterDownload SkipReason = "too_large_after_download"

	// SkipTransportFailure means the download failed.
	SkipTransportFailure SkipReason = "transport_failure"

	// SkipTimeout means the download exceeded its time budget.
	SkipTimeout SkipReason = "timeout"
)

// Skipped is one skip-ledger entry.
type Skipped struct {
	MessageID    string
	AttachmentID string
	Name         string
	Reason       SkipReason
}

// CollectAttachments walks attachments in message order, downloading each
// under a hard per-download timeout. Failures are recorded in the skip
// ledger instead of aborting the run. Collection stops once maxFiles files
// have been materialized.
func (s *Service) CollectAttachments(ctx context.Context, messages []*platform.Message, maxFiles int, maxBytes int64, timeout time.Duration) ([]*platform.File, []Skipped) {
	var (
		files   []*platform.File
		skipped []Skipped
	)

	for _, m := range messages {
		for _, att := range m.Attachments {
			if len(files) >= maxFiles {
				return files, skipped
			}

			if att.URL == "" {
				skipped = append(skipped, Skipped{MessageID: m.ID, AttachmentID: att.ID, Name: att.Name, Reason: SkipMissingReference})
				continue
			}
			if att.Size > maxBytes {
				skipped = append(skipped, Skipped{MessageID: m.ID, AttachmentID: att.ID, Name: att.Name, Reason: SkipDeclaredTooLarge})
				continue
			}

			data, reason := s.download(ctx, att.URL, maxBytes, timeout)
			if reason != "" {
				s.l.Warn("Skipping attachment",
					slog.String("attachment", att.ID),
					slog.String("reason", string(reason)),
				)
				skipped = append(skipped, Skipped{MessageID: m.ID, AttachmentID: att.ID, Name: att.Name, Reason: reason})
				continue
			}

			files = append(files, &platform.File{
				Name:   att.Name,
				Reader: bytes.NewReader(data),
			})
		}
	}
	return files, skipped
}

// download performs one time-bounded download. It returns the body, or a
// skip reason when the attachment must be excluded.
func (s *Service) download(ctx context.Context, url string, maxBytes int64, timeout time.Duration) ([]byte, SkipReason) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.limiter.Wait(dctx); err != nil {
		return nil, reasonForError(dctx, err)
	}

	req, err := http.NewRequestWithContext(dctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, SkipTransportFailure
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, reasonForError(dctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort.

	if resp.StatusCode != http.StatusOK {
		return nil, SkipTransportFailure
	}

	// Read one byte past the budget so an oversized body is detected
	// without materializing all of it.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, reasonForError(dctx, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, SkipTooLargeAfterDownload
	}
	return data, ""
}

func reasonForError(ctx context.Context, err error) SkipReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return SkipTimeout
	}
	return SkipTransportFailure
}

// SendBatched publishes the archive to the destination. A single message
// can only carry a bounded number of attachments, so files are chunked into
// batchSize groups; the first chunk carries the primary payload, subsequent
// chunks carry only files.
func (s *Service) SendBatched(ctx context.Context, destinationID, firstPayload string, files []*platform.File, batchSize int) error {
	if len(files) == 0 {
		if _, err := s.p.SendFiles(ctx, destinationID, firstPayload, nil); err != nil {
			return fmt.Errorf("sending archive payload: %w", err)
		}
		return nil
	}

	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}

		content := ""
		if i == 0 {
			content = firstPayload
		}
		if _, err := s.p.SendFiles(ctx, destinationID, content, files[i:end]); err != nil {
			return fmt.Errorf("sending archive batch: %w", err)
		}
	}
	return nil
}
