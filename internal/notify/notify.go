package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/librovault/library-service/internal/model"
	"github.com/librovault/library-service/pkg/breaker"
	"github.com/librovault/library-service/pkg/mail"
)

const overdueSubject = "Overdue Book Return Reminder"

// Ledger is the slice of the borrow store the notifier reads and updates.
type Ledger interface {
	FindOverdueUnnotified(ctx context.Context, cutoff time.Time) ([]model.OverdueBorrow, error)
	MarkNotified(ctx context.Context, borrowID int) error
}

// Notifier periodically reminds borrowers about loans overdue by more than
// the grace window. Each ledger entry is emailed at most once: notified is
// persisted only after a successful send, and a failed send leaves the entry
// for the next pass.
type Notifier struct {
	ledger   Ledger
	sender   mail.Sender
	cb       breaker.CircuitBreaker
	log      *zap.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

type Config struct {
	Interval time.Duration `yaml:"interval" envconfig:"NOTIFY_INTERVAL" default:"30m"`
	Grace    time.Duration `yaml:"grace" envconfig:"NOTIFY_GRACE" default:"24h"`
}

func New(cfg Config, ledger Ledger, sender mail.Sender, log *zap.Logger) *Notifier {
	return &Notifier{
		ledger:   ledger,
		sender:   sender,
		cb:       breaker.New(10, time.Minute, 0.5, 3),
		log:      log.Named("notifier"),
		interval: cfg.Interval,
		grace:    cfg.Grace,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

// Run ticks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.Notify(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Notify runs a single notification pass.
func (n *Notifier) Notify(ctx context.Context) {
	cutoff := n.now().Add(-n.grace)
	entries, err := n.ledger.FindOverdueUnnotified(ctx, cutoff)
	if err != nil {
		n.log.Error("find overdue borrows", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.UserEmail == "" || !entry.BookTitle.Valid {
			n.log.Warn("skipping notification due to missing data", zap.Int("borrowId", entry.BorrowID))
			continue
		}

		msg := mail.Message{
			To:      entry.UserEmail,
			Subject: overdueSubject,
			HTML:    mail.OverdueReminderTemplate(entry.UserName, entry.BookTitle.String),
		}
		if err := n.cb.Call(func() error { return n.sender.Send(msg) }); err != nil {
			n.log.Warn("send overdue reminder",
				zap.String("email", entry.UserEmail), zap.Error(err))
			continue
		}

		if err := n.ledger.MarkNotified(ctx, entry.BorrowID); err != nil {
			n.log.Error("mark notified", zap.Int("borrowId", entry.BorrowID), zap.Error(err))
			continue
		}
		n.log.Debug("overdue reminder sent", zap.String("email", entry.UserEmail))
	}
}
