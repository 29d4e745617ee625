package cleanup

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	ActionQuarantine = "quarantine"
	ActionTrash      = "trash"

	DefaultInbox       = "INBOX"
	DefaultQuarantine  = "MailTrim-Quarantine"
	DefaultTrash       = "Trash"
	DefaultSampleLimit = 20

	instrumentationName = "github.com/aaronromeo/mailtrim/internal/cleanup"
)

// Folders names the mailboxes the workflows move messages between.
type Folders struct {
	Inbox      string
	Quarantine string
	Trash      string
}

// Announcer is told about every completed mailbox mutation.
type Announcer interface {
	Do(ctx context.Context, action, folder string, count int) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFolders overrides the default folder names. Empty fields keep their defaults.
func WithFolders(folders Folders) Option {
	return func(s *Service) {
		if name := strings.TrimSpace(folders.Inbox); name != "" {
			s.folders.Inbox = name
		}
		if name := strings.TrimSpace(folders.Quarantine); name != "" {
			s.folders.Quarantine = name
		}
		if name := strings.TrimSpace(folders.Trash); name != "" {
			s.folders.Trash = name
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithAnnouncer(announcer Announcer) Option {
	return func(s *Service) {
		s.announcer = announcer
	}
}

func WithSampleLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.sampleLimit = limit
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(instrumentationName)
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		if mp != nil {
			s.meter = mp.Meter(instrumentationName)
		}
	}
}

// Service runs the mailbox workflows. Each call dials its own session and
// closes it before returning.
type Service struct {
	dial        Dialer
	logger      *slog.Logger
	folders     Folders
	now         func() time.Time
	announcer   Announcer
	sampleLimit int
	tracer      trace.Tracer
	meter       metric.Meter

	scanned  metric.Int64Counter
	matched  metric.Int64Counter
	moved    metric.Int64Counter
	restored metric.Int64Counter
	failures metric.Int64Counter
}

func New(dial Dialer, opts ...Option) (*Service, error) {
	s := &Service{
		dial:   dial,
		logger: slog.Default(),
		folders: Folders{
			Inbox:      DefaultInbox,
			Quarantine: DefaultQuarantine,
			Trash:      DefaultTrash,
		},
		now:         time.Now,
		sampleLimit: DefaultSampleLimit,
		tracer:      otel.GetTracerProvider().Tracer(instrumentationName),
		meter:       otel.GetMeterProvider().Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		return nil, newError(KindInternal, "new service", errMissingDialer)
	}
	if err := s.initInstruments(); err != nil {
		return nil, newError(KindInternal, "init instruments", err)
	}
	return s, nil
}

// Folders returns the effective folder names.
func (s *Service) Folders() Folders {
	return s.folders
}

func (s *Service) initInstruments() error {
	var err error
	if s.scanned, err = s.meter.Int64Counter("mailtrim.messages.scanned",
		metric.WithDescription("Messages whose headers were classified")); err != nil {
		return err
	}
	if s.matched, err = s.meter.Int64Counter("mailtrim.messages.matched",
		metric.WithDescription("Messages matched by a rule")); err != nil {
		return err
	}
	if s.moved, err = s.meter.Int64Counter("mailtrim.messages.moved",
		metric.WithDescription("Messages copied out and flagged deleted")); err != nil {
		return err
	}
	if s.restored, err = s.meter.Int64Counter("mailtrim.messages.restored",
		metric.WithDescription("Messages restored from quarantine")); err != nil {
		return err
	}
	if s.failures, err = s.meter.Int64Counter("mailtrim.messages.failures",
		metric.WithDescription("Per-message failures recovered by skipping the message")); err != nil {
		return err
	}
	return nil
}

func (s *Service) connect(ctx context.Context, creds Credentials) (Session, error) {
	if strings.TrimSpace(creds.User) == "" || creds.Password == "" {
		return nil, newError(KindAuth, "connect", errMissingCredentials)
	}
	session, err := s.dial(ctx, creds)
	if err != nil {
		return nil, newError(KindAuth, "connect", err)
	}
	return session, nil
}

func (s *Service) disconnect(session Session) {
	if err := session.Close(); err != nil {
		s.logger.Warn("disconnect failed", slog.Any("error", err))
	}
}

func (s *Service) recordFailure(ctx context.Context, kind Kind, uid uint32, err error) {
	s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(kind))))
	s.logger.Warn("message skipped",
		slog.String("kind", string(kind)),
		slog.Uint64("uid", uint64(uid)),
		slog.Any("error", err),
	)
}

func (s *Service) announce(ctx context.Context, action, folder string, count int) {
	if s.announcer == nil || count == 0 {
		return
	}
	if err := s.announcer.Do(ctx, action, folder, count); err != nil {
		s.logger.Warn("announce failed", slog.String("action", action), slog.Any("error", err))
	}
}

// listFolder selects the folder and returns every UID in it.
func (s *Service) listFolder(ctx context.Context, session Session, folder string) ([]uint32, error) {
	if err := session.SelectFolder(ctx, folder); err != nil {
		return nil, newError(KindFolder, "select "+folder, err)
	}
	uids, err := session.SearchAllUIDs(ctx)
	if err != nil {
		return nil, newError(KindFolder, "search "+folder, err)
	}
	return uids, nil
}

// transfer copies one message and flags the original deleted only when the copy succeeded.
func (s *Service) transfer(ctx context.Context, session Session, uid uint32, destination string) bool {
	if err := session.Copy(ctx, uid, destination); err != nil {
		s.recordFailure(ctx, KindCopy, uid, err)
		return false
	}
	if err := session.FlagDeleted(ctx, uid); err != nil {
		s.recordFailure(ctx, KindCopy, uid, err)
		return false
	}
	return true
}

// expunge removes flagged messages. A failure leaves them flagged for a later run.
func (s *Service) expunge(ctx context.Context, session Session, folder string) {
	if err := session.Expunge(ctx); err != nil {
		s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(KindExpunge))))
		s.logger.Warn("expunge failed", slog.String("folder", folder), slog.Any("error", err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("mailtrim.error.kind", string(KindOf(err))))
	}
	span.End()
}

func metricAttrs(action string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("action", action))
}
