package cleanup

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Inspect returns the raw RFC 5322 bytes of one message, without marking it seen.
func (s *Service) Inspect(ctx context.Context, creds Credentials, folder string, uid uint32) (raw []byte, err error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = s.folders.Quarantine
	}
	ctx, span := s.tracer.Start(ctx, "cleanup.Inspect", trace.WithAttributes(
		attribute.String("mailtrim.source", folder),
		attribute.Int64("mailtrim.uid", int64(uid)),
	))
	defer func() { endSpan(span, err) }()

	session, err := s.connect(ctx, creds)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(session)

	if err := session.SelectFolder(ctx, folder); err != nil {
		return nil, newError(KindFolder, "select "+folder, err)
	}
	raw, err = session.FetchFull(ctx, uid)
	if err != nil {
		return nil, newError(KindFetch, fmt.Sprintf("fetch uid %d", uid), err)
	}
	return raw, nil
}
