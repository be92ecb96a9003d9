package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/jasirilabs/lats-backend/internal/whatsapp"
	"github.com/jasirilabs/lats-backend/pkg/config"
	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/logger"
	"github.com/jasirilabs/lats-backend/pkg/metrics"
	"github.com/jasirilabs/lats-backend/pkg/redis"
)

const (
	dispatchLockName = "whatsapp-dispatch"
	workerName       = "whatsapp_dispatcher"

	// Messages stuck in sending past this age are requeued on the next tick.
	staleSendingAge = 10 * time.Minute
)

type messageStore interface {
	ClaimBatch(ctx context.Context, limit int) ([]models.WhatsAppMessage, error)
	Instance(ctx context.Context, id uuid.UUID) (*models.WhatsAppInstance, error)
	MarkSent(ctx context.Context, id uuid.UUID, attempts int, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type gateway interface {
	SendMessage(ctx context.Context, instance *models.WhatsAppInstance, recipient, body string) error
}

// Dispatcher drains the outbound queue. A redis lease keeps a single
// dispatcher active across replicas.
type Dispatcher struct {
	store   messageStore
	gw      gateway
	locker  redis.Locker
	logg    *logger.Logger
	metrics *metrics.WorkerMetrics
	cfg     config.WhatsAppConfig
	holder  string
	now     func() time.Time
}

// NewDispatcher wires the queue dispatcher.
func NewDispatcher(store messageStore, gw gateway, locker redis.Locker, logg *logger.Logger, workerMetrics *metrics.WorkerMetrics, cfg config.WhatsAppConfig, holder string) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("message store is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("redis locker is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if holder == "" {
		holder = "whatsapp-worker-0"
	}
	return &Dispatcher{
		store:   store,
		gw:      gw,
		locker:  locker,
		logg:    logg,
		metrics: workerMetrics,
		cfg:     cfg,
		holder:  holder,
		now:     time.Now,
	}, nil
}

// Run polls for queued messages until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logg.Error(ctx, "dispatch tick failed", err)
			}
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) error {
	acquired, err := d.locker.AcquireLock(ctx, dispatchLockName, d.holder, d.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !acquired {
		return nil
	}
	defer func() {
		if err := d.locker.ReleaseLock(context.WithoutCancel(ctx), dispatchLockName); err != nil {
			d.logg.Warn(ctx, "failed to release dispatch lock")
		}
	}()

	if released, err := d.store.ReleaseStale(ctx, staleSendingAge); err != nil {
		d.logg.Error(ctx, "failed to requeue stale messages", err)
	} else if released > 0 {
		d.logg.Warn(d.logg.WithField(ctx, "count", released), "requeued stale sending messages")
	}

	return d.dispatchBatch(ctx)
}

func (d *Dispatcher) dispatchBatch(ctx context.Context) error {
	batch, err := d.store.ClaimBatch(ctx, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("claim batch: %w", err)
	}

	// Instances repeat within a batch, one lookup each is enough.
	instances := map[uuid.UUID]*models.WhatsAppInstance{}
	var errs []error
	for i := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.dispatch(ctx, &batch[i], instances); err != nil {
			errs = append(errs, fmt.Errorf("message %s: %w", batch[i].ID, err))
		}
	}
	return multierr.Combine(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, message *models.WhatsAppMessage, instances map[uuid.UUID]*models.WhatsAppInstance) error {
	msgCtx := d.logg.WithFields(ctx, map[string]any{
		"message_id":  message.ID.String(),
		"instance_id": message.InstanceID.String(),
	})

	instance, ok := instances[message.InstanceID]
	if !ok {
		loaded, err := d.store.Instance(ctx, message.InstanceID)
		if err != nil {
			d.fail(msgCtx, message, message.AttemptCount, "instance not found")
			return fmt.Errorf("load instance %s: %w", message.InstanceID, err)
		}
		instance = loaded
		instances[message.InstanceID] = instance
	}

	started := d.now()
	attempts := message.AttemptCount

	backoff := retry.WithMaxRetries(uint64(d.cfg.MaxRetries), retry.NewConstant(d.cfg.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()

		sendErr := d.gw.SendMessage(sendCtx, instance, message.Recipient, message.Body)
		if sendErr == nil {
			return nil
		}
		if whatsapp.Classify(sendErr) {
			d.metrics.IncRetry(workerName)
			return retry.RetryableError(sendErr)
		}
		return sendErr
	})

	d.metrics.ObserveDuration(workerName, d.now().Sub(started))

	if err != nil {
		d.fail(msgCtx, message, attempts, err.Error())
		return fmt.Errorf("deliver: %w", err)
	}

	if err := d.store.MarkSent(ctx, message.ID, attempts, d.now()); err != nil {
		return fmt.Errorf("record sent message: %w", err)
	}
	d.metrics.IncSuccess(workerName)
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, message *models.WhatsAppMessage, attempts int, reason string) {
	d.metrics.IncFailure(workerName)
	if err := d.store.MarkFailed(ctx, message.ID, attempts, reason); err != nil {
		d.logg.Error(ctx, "failed to record failed message", err)
	}
}
