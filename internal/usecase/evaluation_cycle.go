package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
	"SignalWatch/internal/services/rules"
	applogger "SignalWatch/pkg/logger"

	"github.com/google/uuid"
)

// MarkPolicy decides when a signal id enters its cooldown.
type MarkPolicy int

const (
	// MarkAfterAttempt marks after every send attempt, delivered or not.
	MarkAfterAttempt MarkPolicy = iota
	// MarkOnDelivered marks only when the push API accepted the message.
	MarkOnDelivered
)

func ParseMarkPolicy(s string) MarkPolicy {
	if strings.EqualFold(s, "delivered") {
		return MarkOnDelivered
	}
	return MarkAfterAttempt
}

func (p MarkPolicy) String() string {
	if p == MarkOnDelivered {
		return "delivered"
	}
	return "attempt"
}

const (
	DefaultCooldown    = 12 * time.Hour
	DefaultRetention   = 12 * time.Hour
	DefaultSendTimeout = 5 * time.Second
	DefaultTimeout     = time.Minute
)

type CycleOptions struct {
	Cooldown    time.Duration
	Retention   time.Duration
	SendTimeout time.Duration
	// Timeout bounds a whole cycle. Caller cancellation does not stop a cycle.
	Timeout time.Duration
	Policy  MarkPolicy
}

// EvaluationCycle runs snapshot, rules, dedup, push and publish once per call.
type EvaluationCycle struct {
	source   drepo.IndicatorSource
	engine   *rules.Engine
	dedup    drepo.DedupStore
	notifier drepo.Notifier
	store    drepo.SignalStore
	recorder drepo.CycleRecorder
	metrics  drepo.Metrics
	logger   *applogger.Logger
	opts     CycleOptions
	now      func() time.Time
	newID    func() string
}

func NewEvaluationCycle(
	source drepo.IndicatorSource,
	engine *rules.Engine,
	dedup drepo.DedupStore,
	notifier drepo.Notifier,
	store drepo.SignalStore,
	recorder drepo.CycleRecorder,
	metrics drepo.Metrics,
	l *applogger.Logger,
	opts CycleOptions,
) *EvaluationCycle {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &EvaluationCycle{
		source:   source,
		engine:   engine,
		dedup:    dedup,
		notifier: notifier,
		store:    store,
		recorder: recorder,
		metrics:  metrics,
		logger:   l,
		opts:     opts,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// RunCycle returns every signal the snapshot triggered, including suppressed ones.
// A snapshot or dedup store failure clears the published set and returns the error;
// a delivery failure only affects its own signal. The cycle runs to completion even
// when ctx is cancelled, so an accepted push is always marked.
func (c *EvaluationCycle) RunCycle(ctx context.Context) ([]models.Signal, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	defer cancel()

	report := &models.CycleReport{RunID: c.newID(), StartedAt: c.now()}
	l := c.logger.With(applogger.String("run_id", report.RunID))

	signals, err := c.run(ctx, l, report)

	report.FinishedAt = c.now()
	elapsed := report.FinishedAt.Sub(report.StartedAt)
	if err != nil {
		report.Error = err.Error()
		c.metrics.RecordCycle("failed", elapsed)
		l.Error("evaluation cycle failed", applogger.Error(err), applogger.Duration("duration_ms", elapsed))
		if cerr := c.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			l.Error("clear published signals", applogger.Error(cerr))
		}
	} else {
		c.metrics.RecordCycle("ok", elapsed)
		c.metrics.RecordSignalsFound(len(signals))
		l.Info("evaluation cycle done",
			applogger.Int("found", len(signals)),
			applogger.Int("sent", report.Count(models.OutcomeSent)),
			applogger.Int("suppressed", report.Count(models.OutcomeSuppressed)),
			applogger.Duration("duration_ms", elapsed),
		)
	}

	if c.recorder != nil {
		if rerr := c.recorder.Record(context.WithoutCancel(ctx), report); rerr != nil {
			l.Warn("record cycle report", applogger.Error(rerr))
		}
	}

	if err != nil {
		return nil, err
	}
	return signals, nil
}

func (c *EvaluationCycle) run(ctx context.Context, l *applogger.Logger, report *models.CycleReport) ([]models.Signal, error) {
	start := c.now()
	snap, err := c.source.Snapshot(ctx)
	c.metrics.RecordLatency("snapshot", c.now().Sub(start))
	if err != nil {
		c.metrics.RecordError("snapshot")
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	report.Snapshot = snap

	signals := c.engine.Evaluate(snap)
	for _, s := range signals {
		outcome, err := c.notify(ctx, l, s)
		if err != nil {
			return nil, err
		}
		report.Decisions = append(report.Decisions, models.SignalDecision{Signal: s, Outcome: outcome})
		c.metrics.RecordNotification(s.ID, string(outcome))
	}

	if err := c.store.Publish(ctx, signals, c.opts.Retention); err != nil {
		c.metrics.RecordError("publish")
		return nil, fmt.Errorf("publish signals: %w", err)
	}
	return signals, nil
}

// notify returns an error only for store failures.
func (c *EvaluationCycle) notify(ctx context.Context, l *applogger.Logger, s models.Signal) (models.NotificationOutcome, error) {
	recent, err := c.dedup.HasRecentNotification(ctx, s.ID)
	if err != nil {
		c.metrics.RecordError("dedup")
		return "", fmt.Errorf("dedup check %s: %w", s.ID, err)
	}
	if recent {
		l.Debug("signal in cooldown", applogger.String("signal", s.ID))
		return models.OutcomeSuppressed, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.opts.SendTimeout)
	start := c.now()
	sendErr := c.notifier.Send(sendCtx, FormatMessage(s))
	cancel()
	c.metrics.RecordLatency("send", c.now().Sub(start))

	outcome := models.OutcomeSent
	switch {
	case sendErr == nil:
	case errors.Is(sendErr, domain.ErrConfiguration):
		outcome = models.OutcomeUnconfigured
	default:
		outcome = models.OutcomeFailed
		c.metrics.RecordError("delivery")
		l.Warn("signal delivery failed", applogger.String("signal", s.ID), applogger.Error(sendErr))
	}

	if sendErr != nil && c.opts.Policy == MarkOnDelivered {
		return outcome, nil
	}
	if err := c.dedup.MarkNotified(ctx, s.ID, c.opts.Cooldown); err != nil {
		c.metrics.RecordError("dedup")
		return "", fmt.Errorf("mark %s: %w", s.ID, err)
	}
	return outcome, nil
}

const disclaimer = "[免責聲明：本通知僅為資訊參考，不構成任何投資建議。]"

// FormatMessage renders the push text for one signal.
func FormatMessage(s models.Signal) string {
	var b strings.Builder
	b.WriteString("📈 股市進場機會警報 📉\n\n")
	b.WriteString("訊號類型: " + s.Indicator + "\n")
	b.WriteString("目前狀態: " + s.Value + "\n")
	b.WriteString("投資觀點: " + s.Title + "\n")
	b.WriteString("適用標的: " + strings.Join(s.ApplicableTo, ", ") + "\n\n")
	b.WriteString(disclaimer)
	return b.String()
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, time.Duration)   {}
func (nopMetrics) RecordSignalsFound(int)              {}
func (nopMetrics) RecordNotification(string, string)   {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLastPrice(string, float64)     {}
func (nopMetrics) RecordLatency(string, time.Duration) {}

var _ drepo.Metrics = nopMetrics{}
