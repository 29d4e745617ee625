package cleanup

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type RestoreRequest struct {
	Credentials Credentials
	// Folder defaults to the quarantine folder.
	Folder string
	// Destination defaults to the inbox.
	Destination string
}

type RestoreResult struct {
	Restored    int
	UIDs        []uint32
	Folder      string
	Destination string
}

// Restore moves every message in the quarantine folder back to the destination,
// expunging the quarantine folder once at the end.
func (s *Service) Restore(ctx context.Context, req RestoreRequest) (result *RestoreResult, err error) {
	folder := strings.TrimSpace(req.Folder)
	if folder == "" {
		folder = s.folders.Quarantine
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		destination = s.folders.Inbox
	}
	result = &RestoreResult{Folder: folder, Destination: destination, UIDs: []uint32{}}

	ctx, span := s.tracer.Start(ctx, "cleanup.Restore", trace.WithAttributes(
		attribute.String("mailtrim.source", folder),
		attribute.String("mailtrim.destination", destination),
	))
	logger := s.logger.With(slog.String("folder", folder), slog.String("destination", destination))
	defer func() {
		if err != nil {
			logger.Error("restore failed", slog.String("kind", string(KindOf(err))), slog.Any("error", err))
		}
		endSpan(span, err)
	}()

	session, err := s.connect(ctx, req.Credentials)
	if err != nil {
		return result, err
	}
	defer s.disconnect(session)

	uids, err := s.listFolder(ctx, session, folder)
	if err != nil {
		return result, err
	}
	if len(uids) == 0 {
		logger.Info("nothing to restore")
		return result, nil
	}

	for _, uid := range uids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = internalError("restore", ctxErr)
			break
		}
		if s.transfer(ctx, session, uid, destination) {
			result.UIDs = append(result.UIDs, uid)
		}
	}
	result.Restored = len(result.UIDs)
	s.restored.Add(ctx, int64(result.Restored), metric.WithAttributes(attribute.String("folder", folder)))

	if result.Restored > 0 && err == nil {
		s.expunge(ctx, session, folder)
	}
	if err != nil {
		return result, err
	}
	logger.Info("restored", slog.Int("restored", result.Restored))
	s.announce(ctx, "restore", destination, result.Restored)
	return result, nil
}
