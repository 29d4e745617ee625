package cleanup_test

import (
	"context"
	"testing"
	"time"

	"github.com/aaronromeo/mailtrim/ftest"
	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/imap"
	"github.com/aaronromeo/mailtrim/internal/imap/sessionmanager"
	"github.com/aaronromeo/mailtrim/internal/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var serverCreds = cleanup.Credentials{User: ftest.DefaultUser, Password: ftest.DefaultPass}

func serverService(t *testing.T, addr string, opts ...cleanup.Option) *cleanup.Service {
	t.Helper()
	dial := imap.NewDialer(
		sessionmanager.WithAddr(addr),
		sessionmanager.WithTLSConfig(ftest.ClientTLSConfig()),
	)
	opts = append([]cleanup.Option{cleanup.WithClock(func() time.Time { return fixedNow })}, opts...)
	svc, err := cleanup.New(dial, opts...)
	require.NoError(t, err)
	return svc
}

func workflowContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func scenarioMessages() []ftest.MailboxMessage {
	return []ftest.MailboxMessage{
		{
			From:    "Promo <promo@deals.example.com>",
			Subject: "Weekly Sale",
			Date:    "Tue, 4 Feb 2025 10:00:00 +0000",
			Body:    "Buy now.",
		},
		{
			From:    "Friend <friend@example.org>",
			Subject: "Lunch?",
			Date:    "Fri, 28 Feb 2025 10:00:00 +0000",
			Body:    "See you.",
		},
	}
}

func TestFortyDayOldPromoMatchesThirtyDayRule(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, []ftest.MailboxMessage{{
		From:    "Promo <promo@deals.example.com>",
		Subject: "Clearance",
		Date:    fixedNow.AddDate(0, 0, -40).Format(time.RFC1123Z),
		Body:    "Everything must go.",
	}})
	t.Cleanup(server.Close)

	result, err := serverService(t, server.Addr).Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule([]string{"deals.example.com"}, nil).WithAge(matchers.Days(30)),
		DryRun:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, cleanup.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Samples, 1)
	assert.Equal(t, "promo <promo@deals.example.com>", result.Samples[0].From)
	assert.Equal(t, "2025-01-20T12:00:00Z", result.Samples[0].Date)
}

func TestDryRunLeavesMailboxUnchanged(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, scenarioMessages())
	t.Cleanup(server.Close)

	result, err := serverService(t, server.Addr).Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule([]string{"deals.example.com"}, nil),
		DryRun:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, cleanup.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Samples, 1)
	assert.Equal(t, "weekly sale", result.Samples[0].Subject)
	assert.Equal(t, "2025-02-04T10:00:00Z", result.Samples[0].Date)

	assert.ElementsMatch(t, []string{"Weekly Sale", "Lunch?"}, ftest.Subjects(ftest.ListMailbox(t, server.Addr, "INBOX")))
}

func TestQuarantineAndRestoreRoundTrip(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, scenarioMessages())
	t.Cleanup(server.Close)
	svc := serverService(t, server.Addr)

	result, err := svc.Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule([]string{"deals.example.com"}, nil),
		Action:      cleanup.ActionQuarantine,
	})
	require.NoError(t, err)
	assert.Equal(t, cleanup.StateMoved, result.State)
	require.Len(t, result.Moved, 1)

	inbox := ftest.ListMailbox(t, server.Addr, "INBOX")
	require.Len(t, inbox, 2, "quarantine does not expunge the source")
	assert.Equal(t, []string{"Lunch?"}, ftest.Subjects(inbox))
	assert.Equal(t, []string{"Weekly Sale"}, ftest.Subjects(ftest.ListMailbox(t, server.Addr, cleanup.DefaultQuarantine)))

	raw, err := svc.Inspect(workflowContext(t), serverCreds, "", ftest.ListMailbox(t, server.Addr, cleanup.DefaultQuarantine)[0].UID)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Buy now.")

	restored, err := svc.Restore(workflowContext(t), cleanup.RestoreRequest{Credentials: serverCreds})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Restored)

	assert.Empty(t, ftest.ListMailbox(t, server.Addr, cleanup.DefaultQuarantine))
	assert.ElementsMatch(t, []string{"Lunch?", "Weekly Sale"}, ftest.Subjects(ftest.ListMailbox(t, server.Addr, "INBOX")))
}

func TestTrashExpungesSource(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, scenarioMessages())
	t.Cleanup(server.Close)

	result, err := serverService(t, server.Addr).Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule(nil, []string{"sale"}),
		Action:      cleanup.ActionTrash,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	inbox := ftest.ListMailbox(t, server.Addr, "INBOX")
	require.Len(t, inbox, 1)
	assert.Equal(t, "Lunch?", inbox[0].Subject)
	assert.Equal(t, []string{"Weekly Sale"}, ftest.Subjects(ftest.ListMailbox(t, server.Addr, cleanup.DefaultTrash)))
}

func TestMalformedDateNeverMatchesByAge(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, []ftest.MailboxMessage{
		{From: "a@example.com", Subject: "no date", Date: "not a date", Body: "x"},
		{From: "b@example.com", Subject: "ancient", Date: "Mon, 1 Jan 2001 00:00:00 +0000", Body: "y"},
	})
	t.Cleanup(server.Close)

	result, err := serverService(t, server.Addr).Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule(nil, nil).WithAge(matchers.Days(30)),
		DryRun:      true,
	})
	require.NoError(t, err)
	require.Len(t, result.Samples, 1)
	assert.Equal(t, "ancient", result.Samples[0].Subject)
}

func TestEmptyMailboxReportsNoEmails(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, nil)
	t.Cleanup(server.Close)

	result, err := serverService(t, server.Addr).Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule([]string{"example.com"}, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, cleanup.StatusNoEmails, result.Status)
}

func TestBadPasswordIsAuthError(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, nil)
	t.Cleanup(server.Close)

	_, err := serverService(t, server.Addr).Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: cleanup.Credentials{User: ftest.DefaultUser, Password: "wrong"},
		Rule:        matchers.NewRule([]string{"example.com"}, nil),
	})
	require.Error(t, err)
	assert.Equal(t, cleanup.KindAuth, cleanup.KindOf(err))
	assert.ErrorIs(t, err, sessionmanager.ErrLoginFailed)
}

func TestQuarantineRecordsMetrics(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, scenarioMessages())
	t.Cleanup(server.Close)

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	svc := serverService(t, server.Addr, cleanup.WithMeterProvider(provider))

	_, err := svc.Quarantine(workflowContext(t), cleanup.QuarantineRequest{
		Credentials: serverCreds,
		Rule:        matchers.NewRule([]string{"deals.example.com"}, nil),
	})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["mailtrim.messages.scanned"])
	assert.Equal(t, int64(1), totals["mailtrim.messages.matched"])
	assert.Equal(t, int64(1), totals["mailtrim.messages.moved"])
}
