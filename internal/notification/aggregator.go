package notification

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"schooladmin/internal/metrics"
)

// Source labels where a notification came from.
const (
	SourceBulk = "bulk"
	SourcePush = "push"
)

// Aggregator merges the consultation feed and the push channel into one
// deduplicated, newest-arrival-first list. Build one per process and inject it.
type Aggregator struct {
	mu            sync.RWMutex
	items         []*Notification          // arrival order, newest first
	byID          map[string]*Notification // same entries keyed by display id
	consultations map[uint64]Consultation  // last bulk fetch, for detail lookups
	state         ConnectionState
	version       uint64 // bumped on every mutation, under mu

	listenersMu sync.RWMutex
	listeners   []func(Snapshot)

	// one goroutine at a time delivers snapshots; others leave theirs in pending
	dispatchMu  sync.Mutex
	dispatching bool
	pending     *Snapshot
	delivered   uint64

	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Aggregator)

// WithClock overrides the clock used for payment ids and untimed consultations.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		byID:          make(map[string]*Notification),
		consultations: make(map[uint64]Consultation),
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnChange registers a listener called with a fresh snapshot after every mutation.
// Listeners run outside the aggregator lock, one call at a time, and never see a
// snapshot older than one already delivered. Under contention intermediate
// snapshots may be skipped; the newest one is always delivered.
func (a *Aggregator) OnChange(fn func(Snapshot)) {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// IngestConsultations merges a bulk fetch. Known ids are left untouched (read state
// included); new ones are prepended in source order. Returns how many were added.
func (a *Aggregator) IngestConsultations(records []Consultation) int {
	a.mu.Lock()
	fresh := make([]*Notification, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	cache := make(map[uint64]Consultation, len(records))

	for _, rec := range records {
		if rec.ID == 0 {
			a.logger.Warn("consultation_record_skipped", "reason", "missing id")
			continue
		}
		cache[rec.ID] = rec

		id := ConsultationNotificationID(rec.ID)
		if _, exists := a.byID[id]; exists {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		title, message := consultationContent(rec.Name, rec.Course.Menu.Name)
		fresh = append(fresh, &Notification{
			ID:        id,
			Ref:       ConsultationRef(rec.ID),
			Type:      TypeConsultation,
			Title:     title,
			Message:   message,
			Timestamp: rec.CreatedAt,
		})
	}

	a.consultations = cache
	a.prependLocked(fresh...)
	var snap Snapshot
	if len(fresh) > 0 {
		snap = a.bumpLocked()
	}
	a.mu.Unlock()

	if len(fresh) > 0 {
		metrics.NotificationsIngested.WithLabelValues(SourceBulk, string(TypeConsultation)).Add(float64(len(fresh)))
		a.logger.Info("consultations_ingested", "received", len(records), "added", len(fresh))
		a.notify(snap)
	}
	return len(fresh)
}

// Apply merges one push event. It reports whether the list changed; invalid events
// are rejected without touching the list.
func (a *Aggregator) Apply(ev Event) (bool, error) {
	if ev == nil {
		return false, fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}
	if err := ev.Validate(); err != nil {
		return false, err
	}

	var (
		added *Notification
		snap  Snapshot
	)
	switch e := ev.(type) {
	case NewConsultationEvent:
		added, snap = a.applyConsultation(e)
	case PaymentStatusEvent:
		added, snap = a.applyPayment(e)
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name())
	}

	if added == nil {
		a.logger.Debug("push_event_duplicate", "event", ev.Name())
		return false, nil
	}
	metrics.NotificationsIngested.WithLabelValues(SourcePush, string(added.Type)).Inc()
	a.logger.Info("push_event_applied", "event", ev.Name(), "notification_id", added.ID)
	a.notify(snap)
	return true, nil
}

func (a *Aggregator) applyConsultation(e NewConsultationEvent) (*Notification, Snapshot) {
	c := e.Consultation
	id := ConsultationNotificationID(c.ID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byID[id]; exists {
		return nil, Snapshot{}
	}

	ts := a.now()
	if c.Timestamp != nil && !c.Timestamp.IsZero() {
		ts = *c.Timestamp
	}
	title, message := consultationContent(c.Name, c.Course.Menu.Name)
	n := &Notification{
		ID:        id,
		Ref:       ConsultationRef(c.ID),
		Type:      TypeConsultation,
		Title:     title,
		Message:   message,
		Timestamp: ts,
	}
	a.prependLocked(n)
	return n, a.bumpLocked()
}

func (a *Aggregator) applyPayment(e PaymentStatusEvent) (*Notification, Snapshot) {
	p := e.Payment

	a.mu.Lock()
	defer a.mu.Unlock()

	receivedAt := a.now()
	id := PaymentNotificationID(string(p.ID), receivedAt)
	// two deliveries inside the same millisecond still get distinct ids
	for suffix := 1; ; suffix++ {
		if _, exists := a.byID[id]; !exists {
			break
		}
		id = fmt.Sprintf("%s.%d", PaymentNotificationID(string(p.ID), receivedAt), suffix)
	}

	title, message := paymentContent(p)
	n := &Notification{
		ID:        id,
		Ref:       PaymentRef(string(p.ID)),
		Type:      TypePayment,
		Title:     title,
		Message:   message,
		Timestamp: receivedAt,
	}
	a.prependLocked(n)
	return n, a.bumpLocked()
}

func (a *Aggregator) prependLocked(fresh ...*Notification) {
	if len(fresh) == 0 {
		return
	}
	for _, n := range fresh {
		a.byID[n.ID] = n
	}
	items := make([]*Notification, 0, len(fresh)+len(a.items))
	items = append(items, fresh...)
	a.items = append(items, a.items...)
}

// MarkAsRead flips one entry to read. Unknown ids are a no-op.
func (a *Aggregator) MarkAsRead(id string) bool {
	a.mu.Lock()
	n, ok := a.byID[id]
	changed := ok && !n.Read
	var snap Snapshot
	if changed {
		n.Read = true
		snap = a.bumpLocked()
	}
	a.mu.Unlock()

	if changed {
		a.notify(snap)
	}
	return ok
}

// MarkAllAsRead flips every unread entry; used when the notification panel opens.
func (a *Aggregator) MarkAllAsRead() int {
	a.mu.Lock()
	flipped := 0
	for _, n := range a.items {
		if !n.Read {
			n.Read = true
			flipped++
		}
	}
	var snap Snapshot
	if flipped > 0 {
		snap = a.bumpLocked()
	}
	a.mu.Unlock()

	if flipped > 0 {
		a.notify(snap)
	}
	return flipped
}

// ClearAll drops every notification. The consultation cache is kept for lookups.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	a.items = nil
	a.byID = make(map[string]*Notification)
	snap := a.bumpLocked()
	a.mu.Unlock()

	a.notify(snap)
}

// Notifications returns a copy of the list, newest arrival first.
func (a *Aggregator) Notifications() []Notification {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.copyLocked()
}

func (a *Aggregator) copyLocked() []Notification {
	out := make([]Notification, 0, len(a.items))
	for _, n := range a.items {
		out = append(out, *n)
	}
	return out
}

// Get returns one notification by display id.
func (a *Aggregator) Get(id string) (Notification, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, ok := a.byID[id]
	if !ok {
		return Notification{}, false
	}
	return *n, true
}

func (a *Aggregator) UnreadCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.unreadLocked()
}

func (a *Aggregator) unreadLocked() int {
	count := 0
	for _, n := range a.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// ConsultationDetail resolves a consultation notification against the last bulk fetch.
// It returns false when the notification is unknown, is not consultation-typed, or the
// record is no longer in the cached list.
func (a *Aggregator) ConsultationDetail(notificationID string) (ConsultationDetail, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n, ok := a.byID[notificationID]
	if !ok {
		return ConsultationDetail{}, false
	}
	cid, ok := n.Ref.Consultation()
	if !ok {
		return ConsultationDetail{}, false
	}
	rec, ok := a.consultations[cid]
	if !ok {
		return ConsultationDetail{}, false
	}
	return rec.Detail(), true
}

// SetConnectionState records the push channel state. It never touches the list.
func (a *Aggregator) SetConnectionState(state ConnectionState) {
	a.mu.Lock()
	changed := a.state != state
	a.state = state
	var snap Snapshot
	if changed {
		snap = a.bumpLocked()
	}
	a.mu.Unlock()

	metrics.PushConnectionState.Set(float64(state))
	if changed {
		a.notify(snap)
	}
}

func (a *Aggregator) ConnectionState() ConnectionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() Snapshot {
	return Snapshot{
		Notifications:   a.copyLocked(),
		UnreadCount:     a.unreadLocked(),
		IsConnected:     a.state == Connected,
		ConnectionState: a.state,
		Version:         a.version,
	}
}

// bumpLocked stamps a mutation and captures the state it produced.
func (a *Aggregator) bumpLocked() Snapshot {
	a.version++
	return a.snapshotLocked()
}

func (a *Aggregator) notify(snap Snapshot) {
	a.dispatchMu.Lock()
	if a.pending == nil || snap.Version > a.pending.Version {
		a.pending = &snap
	}
	if a.dispatching {
		a.dispatchMu.Unlock()
		return
	}
	a.dispatching = true

	for a.pending != nil {
		next := *a.pending
		a.pending = nil
		if next.Version <= a.delivered {
			continue
		}
		a.delivered = next.Version

		a.dispatchMu.Unlock()
		a.deliver(next)
		a.dispatchMu.Lock()
	}
	a.dispatching = false
	a.dispatchMu.Unlock()
}

func (a *Aggregator) deliver(snap Snapshot) {
	metrics.UnreadNotifications.Set(float64(snap.UnreadCount))

	a.listenersMu.RLock()
	listeners := slices.Clone(a.listeners)
	a.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
