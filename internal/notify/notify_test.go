package notify_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/internal/notify"
	"github.com/librovault/library-service/pkg/mail"
)

type fakeLedger struct {
	entries  []model.OverdueBorrow
	notified map[int]bool
	findErr  error
}

func newFakeLedger(entries ...model.OverdueBorrow) *fakeLedger {
	return &fakeLedger{entries: entries, notified: map[int]bool{}}
}

func (f *fakeLedger) FindOverdueUnnotified(_ context.Context, _ time.Time) ([]model.OverdueBorrow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []model.OverdueBorrow
	for _, e := range f.entries {
		if !f.notified[e.BorrowID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkNotified(_ context.Context, borrowID int) error {
	f.notified[borrowID] = true
	return nil
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func title(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func newNotifier(ledger notify.Ledger, sender mail.Sender) *notify.Notifier {
	cfg := notify.Config{Interval: 30 * time.Minute, Grace: 24 * time.Hour}
	n := notify.New(cfg, ledger, sender, zap.NewExample())
	return n.WithClock(func() time.Time {
		return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	})
}

func TestNotifier_AtMostOnce(t *testing.T) {
	t.Parallel()
	ledger := newFakeLedger(model.OverdueBorrow{
		BorrowID: 1, UserName: "Asha", UserEmail: "asha@example.com", BookTitle: title("Dune"),
	})
	sender := &fakeSender{}
	n := newNotifier(ledger, sender)

	n.Notify(context.Background())
	require.Len(t, sender.sent, 1)
	require.Equal(t, "asha@example.com", sender.sent[0].To)
	require.Contains(t, sender.sent[0].HTML, "Dune")
	require.True(t, ledger.notified[1])

	// second pass over the same data must not email again
	n.Notify(context.Background())
	require.Len(t, sender.sent, 1)
}

func TestNotifier_SkipsMissingReferences(t *testing.T) {
	t.Parallel()
	ledger := newFakeLedger(
		model.OverdueBorrow{BorrowID: 1, UserName: "Asha", UserEmail: "asha@example.com"},
		model.OverdueBorrow{BorrowID: 2, UserName: "Ben", BookTitle: title("Dune")},
		model.OverdueBorrow{BorrowID: 3, UserName: "Cleo", UserEmail: "cleo@example.com", BookTitle: title("Solaris")},
	)
	sender := &fakeSender{}
	n := newNotifier(ledger, sender)

	n.Notify(context.Background())

	require.Len(t, sender.sent, 1)
	require.Equal(t, "cleo@example.com", sender.sent[0].To)
	require.False(t, ledger.notified[1])
	require.False(t, ledger.notified[2])
	require.True(t, ledger.notified[3])
}

func TestNotifier_SendFailureRetriedNextPass(t *testing.T) {
	t.Parallel()
	ledger := newFakeLedger(model.OverdueBorrow{
		BorrowID: 7, UserName: "Asha", UserEmail: "asha@example.com", BookTitle: title("Dune"),
	})
	sender := &fakeSender{err: errors.New("smtp down")}
	n := newNotifier(ledger, sender)

	n.Notify(context.Background())
	require.Empty(t, sender.sent)
	require.False(t, ledger.notified[7])

	sender.err = nil
	n.Notify(context.Background())
	require.Len(t, sender.sent, 1)
	require.True(t, ledger.notified[7])
}

func TestNotifier_LedgerErrorIsSoft(t *testing.T) {
	t.Parallel()
	ledger := newFakeLedger()
	ledger.findErr = errors.New("db down")
	sender := &fakeSender{}
	n := newNotifier(ledger, sender)

	n.Notify(context.Background())
	require.Empty(t, sender.sent)
}
