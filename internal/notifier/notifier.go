package notifier

import (
	"context"
	"time"
	"tildes-client/internal/assert"
	"tildes-client/internal/components/telemetry"
	"tildes-client/internal/scrapers/tildes"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	report_poll    = "notifier.poll"
	report_deliver = "notifier.deliver"
	report_new     = "notifier.new"
)

// Source is where unread notifications come from, *tildes.Client is one.
type Source interface {
	LoadNotifications(ctx context.Context, unreadOnly bool) ([]tildes.Notification, error)
}

// Sink delivers notifications somewhere a person will see them.
type Sink interface {
	Deliver(ctx context.Context, notifications []tildes.Notification) error
}

type WatcherOptions struct {
	// Interval defaults to 5 minutes.
	Interval time.Duration
	// Remember is how many delivered comments are remembered, 1000 by
	// default. A forgotten comment that is still unread is delivered again.
	Remember int
	// RememberFor defaults to a week.
	RememberFor time.Duration
}

// Watcher polls the unread notifications and hands every notification it
// has not seen before to its sinks.
type Watcher struct {
	source   Source
	sinks    []Sink
	interval time.Duration
	tel      telemetry.API

	// keyed by comment id, the notification ids are not stable across fetches
	seen *expirable.LRU[string, struct{}]
}

func NewWatcher(source Source, sinks []Sink, opts WatcherOptions, tel telemetry.API) *Watcher {
	assert.NotNil(source)
	assert.NotNil(tel)

	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	remember := opts.Remember
	if remember <= 0 {
		remember = 1000
	}
	rememberFor := opts.RememberFor
	if rememberFor <= 0 {
		rememberFor = 7 * 24 * time.Hour
	}

	return &Watcher{
		source:   source,
		sinks:    sinks,
		interval: interval,
		tel:      telemetry.NewScopedAPI("notifier", tel),
		seen:     expirable.NewLRU[string, struct{}](remember, nil, rememberFor),
	}
}

// Poll fetches the unread notifications once and returns the ones that were
// new. A sink that fails does not stop the others, its error is reported.
func (w *Watcher) Poll(ctx context.Context) ([]tildes.Notification, error) {
	notifications, err := w.source.LoadNotifications(ctx, true)
	if err != nil {
		w.tel.ReportWarning(report_poll, err)
		return nil, err
	}

	var fresh []tildes.Notification
	for _, n := range notifications {
		key := n.Comment.Id
		if w.seen.Contains(key) {
			continue
		}
		w.seen.Add(key, struct{}{})
		fresh = append(fresh, n)
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	w.tel.ReportCount(report_new, int64(len(fresh)))

	for _, sink := range w.sinks {
		err := sink.Deliver(ctx, fresh)
		if err != nil {
			w.tel.ReportBroken(report_deliver, err)
		}
	}
	return fresh, nil
}

// Run polls immediately and then on every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.tel.ReportDebug("start watching notifications", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.Poll(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
