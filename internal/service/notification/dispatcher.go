package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-api/internal/channel"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 10 * time.Second

	errPatientNotFound = "Patient not found"

	EventSent   = "notification.sent"
	EventFailed = "notification.failed"
)

// RetryPolicy bounds delivery attempts within one drain cycle.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

type Config struct {
	Interval time.Duration
	// Timeout applies to each delivery attempt.
	Timeout time.Duration
	Retry   RetryPolicy
}

// SettingsSource yields the current delivery gate.
type SettingsSource interface {
	Notifications(ctx context.Context) model.NotificationSettings
}

// DrainResult summarizes one cycle.
type DrainResult struct {
	Skipped   bool
	Processed int
	Sent      int
	Failed    int
}

type Dispatcher struct {
	store     repository.RecordStore
	settings  SettingsSource
	channel   channel.Channel
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
	config    Config
	now       func() time.Time
	newID     func() string
}

type Option func(*Dispatcher)

func WithPublisher(p messaging.Publisher) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.publisher = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(store repository.RecordStore, settings SettingsSource, ch channel.Channel, config Config, log *logger.Logger, opts ...Option) *Dispatcher {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		store:     store,
		settings:  settings,
		channel:   ch,
		publisher: messaging.Nop(),
		log:       log.With("component", "dispatcher"),
		config:    config,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue records a pending intent when notifications are enabled. It
// reports whether an intent was written.
func (d *Dispatcher) Enqueue(ctx context.Context, t model.NotificationType, data model.Record) (bool, error) {
	if !d.settings.Notifications(ctx).Ready() {
		return false, nil
	}
	intent := model.Record{
		model.FieldID:               d.newID(),
		model.FieldNotificationType: string(t),
		model.FieldData:             data,
		model.FieldCreatedAt:        model.Timestamp(d.now()),
		model.FieldStatus:           string(model.NotificationStatusPending),
		model.FieldAttempts:         0,
	}
	err := d.store.Mutate(ctx, model.CollectionNotifications, func(rs []model.Record) ([]model.Record, error) {
		return append(rs, intent), nil
	})
	if err != nil {
		return false, err
	}
	if d.metrics != nil {
		d.metrics.NotificationsEnqueued.Inc()
	}
	d.log.Debug("notification enqueued", "id", intent.ID(), "type", string(t))
	return true, nil
}

// AppointmentCreated is registered as a post-create action for appointments.
func (d *Dispatcher) AppointmentCreated(ctx context.Context, appointment model.Record) error {
	_, err := d.Enqueue(ctx, model.NotificationAppointmentScheduled, appointment)
	return err
}

// Run drains on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	d.log.Info("Starting notification dispatcher", "interval", d.config.Interval.String(), "channel", d.channel.Name())

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Shutting down notification dispatcher")
			return
		case <-ticker.C:
			if _, err := d.Drain(ctx); err != nil {
				d.log.Error(err, "Failed to drain notifications")
			}
		}
	}
}

// Drain processes every pending intent once and writes the collection back
// in a single mutation.
func (d *Dispatcher) Drain(ctx context.Context) (DrainResult, error) {
	if d.metrics != nil {
		timer := prometheus.NewTimer(d.metrics.DrainDuration)
		defer timer.ObserveDuration()
	}

	gate := d.settings.Notifications(ctx)
	if !gate.Ready() {
		if d.metrics != nil {
			d.metrics.DrainCyclesSkipped.Inc()
		}
		d.log.Debug("notifications disabled or unconfigured, skipping drain")
		return DrainResult{Skipped: true}, nil
	}
	creds := channel.Credentials{APIKey: gate.APIKey, Sender: gate.Sender}

	intents := d.store.Load(ctx, model.CollectionNotifications)
	patients := make(map[string]model.Record)
	for _, p := range d.store.Load(ctx, model.CollectionPatients) {
		patients[p.ID()] = p
	}

	var result DrainResult
	updated := make(map[string]model.Record)
	var order []string

	for _, r := range intents {
		intent := model.Intent{Record: r}
		if intent.Status() != model.NotificationStatusPending {
			continue
		}
		if intent.ID() == "" {
			d.log.Warn("skipping notification without id")
			continue
		}
		if ctx.Err() != nil {
			break
		}
		next, done := d.process(ctx, intent, patients, creds)
		if !done {
			continue
		}
		updated[intent.ID()] = next
		order = append(order, intent.ID())
		result.Processed++
		if (model.Intent{Record: next}).Status() == model.NotificationStatusSent {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	if len(updated) == 0 {
		return result, nil
	}

	err := d.store.Mutate(ctx, model.CollectionNotifications, func(rs []model.Record) ([]model.Record, error) {
		for i, r := range rs {
			next, ok := updated[r.ID()]
			if !ok {
				continue
			}
			// never leave a terminal state written by another cycle
			if (model.Intent{Record: r}).Status().Terminal() {
				delete(updated, r.ID())
				continue
			}
			rs[i] = next
		}
		return rs, nil
	})
	if err != nil {
		return result, err
	}

	for _, id := range order {
		if next, ok := updated[id]; ok {
			d.publish(ctx, model.Intent{Record: next})
		}
	}
	d.log.Info("notification drain complete",
		"processed", result.Processed, "sent", result.Sent, "failed", result.Failed)
	return result, nil
}

// process returns the intent's next state. done is false when the cycle was
// cancelled mid-delivery and the intent should stay pending.
func (d *Dispatcher) process(ctx context.Context, intent model.Intent, patients map[string]model.Record, creds channel.Credentials) (model.Record, bool) {
	next := intent.Clone()
	data := intent.Data()

	patient, ok := patients[data.String("patient_id")]
	if !ok {
		return d.fail(next, errPatientNotFound, "patient_not_found"), true
	}
	recipient, err := d.channel.Recipient(patient)
	if err != nil {
		return d.fail(next, err.Error(), "no_contact"), true
	}

	message := Format(intent.Type(), data, patient)
	subject := Subject(intent.Type())

	attempts, _ := intent.Number(model.FieldAttempts)
	for i := 0; i < d.config.Retry.MaxAttempts; i++ {
		if i > 0 && !sleep(ctx, d.config.Retry.Delay) {
			return nil, false
		}
		attemptCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
		err = d.channel.Send(attemptCtx, recipient, subject, message, creds)
		cancel()
		attempts++
		if d.metrics != nil {
			d.metrics.DeliveryAttempts.Inc()
		}
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, false
		}
		d.log.Warn("delivery attempt failed", "id", intent.ID(), "attempt", i+1, "error", err.Error())
	}
	next[model.FieldAttempts] = attempts

	if err != nil {
		return d.fail(next, err.Error(), "delivery"), true
	}
	next[model.FieldStatus] = string(model.NotificationStatusSent)
	next[model.FieldSentAt] = model.Timestamp(d.now())
	delete(next, model.FieldError)
	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}
	return next, true
}

func (d *Dispatcher) fail(next model.Record, reason, label string) model.Record {
	next[model.FieldStatus] = string(model.NotificationStatusFailed)
	next[model.FieldError] = reason
	if d.metrics != nil {
		d.metrics.NotificationsFailed.WithLabelValues(label).Inc()
	}
	return next
}

func (d *Dispatcher) publish(ctx context.Context, intent model.Intent) {
	event := messaging.Event{
		Type:           EventFailed,
		NotificationID: intent.ID(),
		Notification:   string(intent.Type()),
		Error:          intent.String(model.FieldError),
		OccurredAt:     d.now(),
	}
	if intent.Status() == model.NotificationStatusSent {
		event.Type = EventSent
	}
	if err := d.publisher.Publish(ctx, messaging.NotificationChannel, event); err != nil && !errors.Is(err, context.Canceled) {
		d.log.Error(err, "failed to publish notification event", "id", intent.ID())
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
