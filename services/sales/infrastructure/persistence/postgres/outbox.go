package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/events"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

const outboxEventVersion = 1

// outbox writes events into the Watermill SQL tables through the caller's
// transaction, so an event exists if and only if the state change commits.
type outbox struct {
	tx  *sql.Tx
	bus *events.EventBus
}

func newOutbox(tx *sql.Tx, bus *events.EventBus) repositories.Outbox {
	if bus == nil {
		return discardOutbox{}
	}
	return &outbox{tx: tx, bus: bus}
}

func (o *outbox) Append(ctx context.Context, topic string, eventID uuid.UUID, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := events.NewEventMessage(eventID.String(), outboxEventVersion, payload)
	if err := o.bus.PublishTx(ctx, o.tx, topic, msg); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}
	return nil
}

type discardOutbox struct{}

func (discardOutbox) Append(context.Context, string, uuid.UUID, any) error { return nil }
