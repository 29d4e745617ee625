package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aaronromeo/mailtrim/internal/matchers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusNoEmails  Status = "no_emails"
	StatusCancelled Status = "cancelled"
)

type State string

const (
	StateInit        State = "init"
	StateListing     State = "listing"
	StateClassifying State = "classifying"
	StateNoEmails    State = "no_emails"
	StateDryRunDone  State = "dry_run_done"
	StateCancelled   State = "cancelled"
	StateMoving      State = "moving"
	StateMoved       State = "moved"
	StateError       State = "error"
)

// Preview is what a caller sees before any mailbox mutation.
type Preview struct {
	Matches []matchers.MatchResult
	Kept    []matchers.MatchResult
	Target  string
	Expunge bool
}

// ConfirmFunc approves a preview. Returning false cancels the run with no mutation.
type ConfirmFunc func(ctx context.Context, preview Preview) (bool, error)

type QuarantineRequest struct {
	Credentials Credentials
	Rule        matchers.Rule
	// Action is "quarantine", "trash" or the name of a custom target folder.
	Action string
	// Folder is the source folder. Defaults to the inbox.
	Folder  string
	DryRun  bool
	Confirm ConfirmFunc
}

type QuarantineResult struct {
	Status  Status
	State   State
	Message string
	Count   int
	Samples []matchers.MatchResult
	Moved   []matchers.MatchResult
	Source  string
	Target  string
}

// Quarantine classifies every message in the source folder and, unless this is a
// dry run, moves the matches to the action's target folder. The returned result is
// never nil; on error its State is StateError.
func (s *Service) Quarantine(ctx context.Context, req QuarantineRequest) (result *QuarantineResult, err error) {
	action := strings.TrimSpace(req.Action)
	if action == "" {
		action = ActionQuarantine
	}
	source := strings.TrimSpace(req.Folder)
	if source == "" {
		source = s.folders.Inbox
	}
	result = &QuarantineResult{State: StateInit, Source: source, Target: s.resolveTarget(action)}

	ctx, span := s.tracer.Start(ctx, "cleanup.Quarantine", trace.WithAttributes(
		attribute.String("mailtrim.action", action),
		attribute.String("mailtrim.source", source),
		attribute.Bool("mailtrim.dry_run", req.DryRun),
	))
	logger := s.logger.With(slog.String("action", action), slog.String("source", source))
	defer func() {
		if err != nil {
			result.State = StateError
			result.Message = err.Error()
			logger.Error("quarantine failed", slog.String("kind", string(KindOf(err))), slog.Any("error", err))
		}
		span.SetAttributes(attribute.String("mailtrim.state", string(result.State)))
		endSpan(span, err)
	}()

	session, err := s.connect(ctx, req.Credentials)
	if err != nil {
		return result, err
	}
	defer s.disconnect(session)

	result.State = StateListing
	uids, err := s.listFolder(ctx, session, source)
	if err != nil {
		return result, err
	}
	if len(uids) == 0 {
		return s.noEmails(result, logger), nil
	}

	result.State = StateClassifying
	matches, kept, err := s.classify(ctx, session, uids, req.Rule)
	if err != nil {
		return result, err
	}
	logger.Info("classified", slog.Int("scanned", len(uids)), slog.Int("matched", len(matches)))
	if len(matches) == 0 {
		return s.noEmails(result, logger), nil
	}
	result.Count = len(matches)

	if req.DryRun {
		result.Status = StatusSuccess
		result.State = StateDryRunDone
		result.Samples = sample(matches, s.sampleLimit)
		return result, nil
	}

	if req.Confirm != nil {
		approved, confirmErr := req.Confirm(ctx, Preview{
			Matches: matches,
			Kept:    kept,
			Target:  result.Target,
			Expunge: action == ActionTrash,
		})
		if confirmErr != nil {
			return result, internalError("confirm", confirmErr)
		}
		if !approved {
			result.Status = StatusCancelled
			result.State = StateCancelled
			logger.Info("cancelled before moving")
			return result, nil
		}
	}

	result.State = StateMoving
	if err := session.EnsureFolderExists(ctx, result.Target); err != nil {
		return result, newError(KindFolder, "ensure "+result.Target, err)
	}

	moved := make([]matchers.MatchResult, 0, len(matches))
	for _, match := range matches {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Moved = moved
			result.Count = len(moved)
			return result, internalError("move", ctxErr)
		}
		if s.transfer(ctx, session, match.UID, result.Target) {
			moved = append(moved, match)
		}
	}
	s.moved.Add(ctx, int64(len(moved)), metricAttrs(action))

	if action == ActionTrash && len(moved) > 0 {
		s.expunge(ctx, session, source)
	}

	result.Status = StatusSuccess
	result.State = StateMoved
	result.Count = len(moved)
	result.Moved = moved
	logger.Info("moved", slog.String("target", result.Target), slog.Int("moved", len(moved)))
	s.announce(ctx, action, result.Target, len(moved))
	return result, nil
}

// classify fetches headers for each UID and splits them into matches and kept
// messages, both in scan order.
func (s *Service) classify(ctx context.Context, session Session, uids []uint32, rule matchers.Rule) (matches, kept []matchers.MatchResult, err error) {
	now := s.now()
	var (
		fetched  int
		failures int
		lastErr  error
	)
	for _, uid := range uids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, internalError("classify", ctxErr)
		}
		header, fetchErr := session.FetchHeaders(ctx, uid)
		if fetchErr != nil {
			s.recordFailure(ctx, KindFetch, uid, fetchErr)
			failures++
			lastErr = fetchErr
			continue
		}
		if header == nil {
			continue
		}
		fetched++
		summary := matchers.Summarize(uid, *header)
		s.scanned.Add(ctx, 1)
		if matchers.Classify(summary, rule, now) {
			matches = append(matches, summary.Result())
			continue
		}
		kept = append(kept, summary.Result())
	}
	// no header came back at all: the session is gone, not the messages
	if fetched == 0 && failures > 0 {
		return nil, nil, newError(KindInternal, "classify", fmt.Errorf("all %d header fetches failed: %w", failures, lastErr))
	}
	s.matched.Add(ctx, int64(len(matches)))
	return matches, kept, nil
}

func (s *Service) resolveTarget(action string) string {
	switch action {
	case ActionQuarantine:
		return s.folders.Quarantine
	case ActionTrash:
		return s.folders.Trash
	default:
		return action
	}
}

func (s *Service) noEmails(result *QuarantineResult, logger *slog.Logger) *QuarantineResult {
	result.Status = StatusNoEmails
	result.State = StateNoEmails
	result.Count = 0
	logger.Info("no matching messages")
	return result
}

func sample(matches []matchers.MatchResult, limit int) []matchers.MatchResult {
	if len(matches) <= limit {
		return matches
	}
	return matches[:limit]
}
