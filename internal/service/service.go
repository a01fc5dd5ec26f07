package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expenses/internal/log"
	"expenses/internal/model"
	"expenses/internal/notify"
	"expenses/internal/repository"
	"expenses/pkg/reference"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// referenceAttempts bounds generate+insert retries when a concurrent insert
// takes the same reference first.
const referenceAttempts = 3

// Option customises a service.
type Option func(*core)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

// WithNotifier sets where lifecycle events go. Events are dropped by default.
func WithNotifier(n notify.Notifier) Option {
	return func(c *core) { c.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(c *core) { c.logger = l }
}

// WithReferenceGenerator replaces the random reference generator.
func WithReferenceGenerator(g *reference.Generator) Option {
	return func(c *core) { c.refs = g }
}

// core is shared by the services: transactions, audit trail, notifications,
// references and the clock.
type core struct {
	tx       repository.TransactionManager
	audit    repository.AuditRepository
	notifier notify.Notifier
	logger   *log.Logger
	refs     *reference.Generator
	now      func() time.Time
}

func newCore(tx repository.TransactionManager, audit repository.AuditRepository, opts []Option) core {
	c := core{
		tx:       tx,
		audit:    audit,
		notifier: notify.Nop{},
		logger:   log.Discard(),
		refs:     reference.NewGenerator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *core) clock() time.Time {
	return c.now().UTC()
}

func (c *core) writeAudit(ctx context.Context, actorID uuid.UUID, action, entityID string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	entry := &model.AuditLog{
		Action:    action,
		EntityID:  entityID,
		Details:   datatypes.JSON(raw),
		CreatedAt: c.clock(),
	}
	// uuid.Nil is the system actor, e.g. bootstrap provisioning.
	if actorID != uuid.Nil {
		entry.UserID = &actorID
	}
	if err := c.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// publish runs after commit. Delivery failures are logged, never returned.
func (c *core) publish(ctx context.Context, event notify.Event) {
	if len(event.Recipients) == 0 {
		return
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "claim notification failed",
			"action", event.Action,
			"reference", event.Reference,
			"error", err)
	}
}

// withReference generates a fresh reference and hands it to insert, retrying
// when the insert loses a race on the unique index.
func (c *core) withReference(ctx context.Context, store reference.Checker, prefix string, insert func(ref string) error) error {
	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		var ref string
		ref, err = c.refs.Generate(ctx, store, prefix, model.ReferenceDigits)
		if err != nil {
			return fmt.Errorf("generate %s reference: %w", prefix, err)
		}
		err = insert(ref)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		c.logger.DebugContext(ctx, "reference collision, retrying", "reference", ref, "attempt", attempt+1)
	}
	return fmt.Errorf("insert with fresh %s reference: %w", prefix, err)
}
