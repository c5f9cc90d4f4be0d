package clicks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultLogKey is the storage key the serialized click log lives under.
	DefaultLogKey = "loanscout_clicks"

	maxLogEntries     = 1000
	keepAfterTruncate = 500
)

// Click is the caller-supplied part of a recorded click. UserAgent and
// Referrer carry the ambient request context; Extra fields may overwrite
// the standard event fields.
type Click struct {
	ProductID   int
	ProductName string
	Commission  float64
	UserAgent   string
	Referrer    string
	Extra       map[string]any
}

// Stats are the aggregate click totals. "Today" is the local calendar day.
type Stats struct {
	TotalClicks  int     `json:"total_clicks"`
	TodayClicks  int     `json:"today_clicks"`
	TotalRevenue float64 `json:"total_revenue"`
	TodayRevenue float64 `json:"today_revenue"`
}

// ProductStats are the per-product click totals.
type ProductStats struct {
	ProductID    int     `json:"product_id"`
	TotalClicks  int     `json:"total_clicks"`
	TodayClicks  int     `json:"today_clicks"`
	TotalRevenue float64 `json:"total_revenue"`
}

type Config struct {
	Storage  Storage
	Reporter Reporter
	Log      *zap.Logger
	Key      string
	Now      func() time.Time
}

// Recorder appends click events to a bounded in-memory log and persists the
// whole log to Storage after every append. Storage failures are absorbed:
// the in-memory log is the source of truth for the life of the process.
type Recorder struct {
	mu       sync.Mutex
	storage  Storage
	reporter Reporter
	log      *zap.Logger
	key      string
	now      func() time.Time

	events []Event
}

// NewRecorder builds a recorder and eagerly loads the persisted log.
// Missing or corrupt storage content yields an empty log and a warning,
// never an error.
func NewRecorder(ctx context.Context, cfg Config) *Recorder {
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = DefaultLogKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Recorder{
		storage:  cfg.Storage,
		reporter: cfg.Reporter,
		log:      cfg.Log,
		key:      cfg.Key,
		now:      cfg.Now,
	}
	r.events = r.loadPersisted(ctx)
	return r
}

func (r *Recorder) loadPersisted(ctx context.Context) []Event {
	raw, ok, err := r.storage.Load(ctx, r.key)
	if err != nil {
		r.log.Warn("click log load failed, starting empty", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		r.log.Warn("click log corrupt, starting empty", zap.Error(err))
		return nil
	}

	r.log.Info("click log loaded", zap.Int("events", len(events)))
	return events
}

// Record builds the event, appends it, persists the log and reports it.
// The in-memory append always succeeds; persistence and reporting failures
// are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, c Click) Event {
	now := r.now()

	ev := Event{
		ID:          now.UnixMilli(),
		ProductID:   c.ProductID,
		ProductName: c.ProductName,
		Commission:  c.Commission,
		Timestamp:   now.Format(time.RFC3339),
		UserAgent:   c.UserAgent,
		Referrer:    c.Referrer,
	}
	ev.applyExtras(c.Extra)

	r.mu.Lock()
	r.events = append(r.events, ev)
	if len(r.events) > maxLogEntries {
		dropped := len(r.events) - keepAfterTruncate
		r.events = append([]Event(nil), r.events[dropped:]...)
		r.log.Info("click log truncated",
			zap.Int("dropped", dropped),
			zap.Int("kept", keepAfterTruncate))
	}
	snapshot := append([]Event(nil), r.events...)
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	r.report(ctx, ev)

	return ev
}

func (r *Recorder) persist(ctx context.Context, events []Event) {
	raw, err := json.Marshal(events)
	if err != nil {
		r.log.Warn("click log marshal failed", zap.Error(err))
		return
	}
	if err := r.storage.Save(ctx, r.key, raw); err != nil {
		r.log.Warn("click log save failed", zap.Error(err))
	}
}

func (r *Recorder) report(ctx context.Context, ev Event) {
	err := r.reporter.Report(ctx, EventProductClick, map[string]any{
		"product_id":     ev.ProductID,
		"product_name":   ev.ProductName,
		"commission":     ev.Commission,
		"event_category": "affiliate",
		"currency":       "USD",
	})
	if err != nil {
		r.log.Warn("analytics report failed", zap.Error(err))
	}
}

// Stats aggregates the full log.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.now()
	var s Stats
	for _, ev := range r.events {
		s.TotalClicks++
		s.TotalRevenue += ev.Commission
		if r.sameLocalDay(ev, today) {
			s.TodayClicks++
			s.TodayRevenue += ev.Commission
		}
	}
	return s
}

// ProductStatsFor scans the log once per requested product id.
func (r *Recorder) ProductStatsFor(productIDs []int) map[int]ProductStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.now()
	out := make(map[int]ProductStats, len(productIDs))
	for _, id := range productIDs {
		ps := ProductStats{ProductID: id}
		for _, ev := range r.events {
			if ev.ProductID != id {
				continue
			}
			ps.TotalClicks++
			ps.TotalRevenue += ev.Commission
			if r.sameLocalDay(ev, today) {
				ps.TodayClicks++
			}
		}
		out[id] = ps
	}
	return out
}

// Len reports the current log size.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *Recorder) sameLocalDay(ev Event, ref time.Time) bool {
	t, err := time.Parse(time.RFC3339, ev.Timestamp)
	if err != nil {
		return false
	}
	y1, m1, d1 := t.Local().Date()
	y2, m2, d2 := ref.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
