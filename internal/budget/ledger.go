// Package budget tracks daily enrichment spend and enforces the hard ceiling.
package budget

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

// DefaultAlertFraction is the share of the daily limit at which the alert
// fires.
const DefaultAlertFraction = 0.8

// Float comparisons on money tolerate accumulated rounding only.
const epsilon = 1e-9

// Reservation is the result of a TryReserve call. When Granted is false the
// reservation did not apply at all.
type Reservation struct {
	Granted   bool
	Remaining float64
}

// AlertFunc receives the ledger snapshot when spend first crosses the alert
// threshold on a given day.
type AlertFunc func(st entity.BudgetState)

// Ledger is the process-wide spend ledger. TryReserve is the only mutator and
// is a single atomic compare-and-update: concurrent callers can never together
// exceed the daily limit, including across the day rollover.
type Ledger struct {
	mu       sync.Mutex
	limit    float64
	spent    float64
	day      string
	alertAt  float64 // fraction of the limit
	alerted  bool
	onAlert  AlertFunc
	now      func() time.Time
	logger   *zap.Logger
}

// NewLedger creates a ledger with the given daily limit in dollars. onAlert
// may be nil.
func NewLedger(dailyLimit, alertFraction float64, onAlert AlertFunc, logger *zap.Logger) *Ledger {
	if alertFraction <= 0 || alertFraction > 1 {
		alertFraction = DefaultAlertFraction
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		limit:   dailyLimit,
		alertAt: alertFraction,
		onAlert: onAlert,
		now:     time.Now,
		logger:  logger,
	}
	l.day = l.today()
	return l
}

// TryReserve atomically reserves amount against today's remaining budget.
// Rejected reservations do not partially apply.
func (l *Ledger) TryReserve(amount float64) (Reservation, error) {
	if amount < 0 {
		return Reservation{}, fmt.Errorf("negative reservation %.4f", amount)
	}

	l.mu.Lock()
	l.rollover()

	// Spend above the limit is reachable when SetDailyLimit lowered the
	// ceiling below reservations already booked; that rejects here like any
	// other over-limit request.
	if l.spent+amount > l.limit+epsilon {
		res := Reservation{Granted: false, Remaining: headroom(l.limit, l.spent)}
		l.mu.Unlock()
		return res, nil
	}

	l.spent += amount
	res := Reservation{Granted: true, Remaining: headroom(l.limit, l.spent)}

	var alert *entity.BudgetState
	if !l.alerted && l.spent >= l.alertAt*l.limit-epsilon {
		l.alerted = true
		st := l.snapshot()
		alert = &st
	}
	l.mu.Unlock()

	// The alert hook runs outside the lock; it is edge-triggered, once per day.
	if alert != nil {
		l.logger.Warn("daily budget alert threshold crossed",
			zap.Float64("spent", alert.SpentToday),
			zap.Float64("limit", alert.DailyLimit))
		if l.onAlert != nil {
			l.onAlert(*alert)
		}
	}
	return res, nil
}

// Report returns the current ledger snapshot.
func (l *Ledger) Report() entity.BudgetState {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	return l.snapshot()
}

// SetDailyLimit updates the daily ceiling. Already-reserved spend is kept;
// lowering the limit below it only blocks further reservations.
func (l *Ledger) SetDailyLimit(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative daily limit %.4f", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	l.limit = amount
	return nil
}

// rollover must be called with the mutex held.
func (l *Ledger) rollover() {
	d := l.today()
	if d != l.day {
		l.day = d
		l.spent = 0
		l.alerted = false
	}
}

// snapshot must be called with the mutex held.
func (l *Ledger) snapshot() entity.BudgetState {
	return entity.BudgetState{
		DailyLimit:     l.limit,
		SpentToday:     l.spent,
		Remaining:      headroom(l.limit, l.spent),
		AlertThreshold: l.alertAt,
		Date:           l.day,
	}
}

// headroom never reports negative remaining budget; spend can sit above a
// lowered limit until the day rolls over.
func headroom(limit, spent float64) float64 {
	if spent > limit {
		return 0
	}
	return limit - spent
}

func (l *Ledger) today() string {
	return l.now().UTC().Format("2006-01-02")
}
