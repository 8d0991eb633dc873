// Package workflow drives ticket editing sessions. The same line item and
// payment operations run under the front-desk flows: the normal flow stages
// everything and creates the ticket in one shot, the quick sale flow stages
// items only, creates the ticket open, and then must collect payments and
// close in a mandatory second step, and the self-service and continuation
// flows mutate a live ticket and refresh after every change.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"salon-backend/internal/model"
	"salon-backend/internal/service"

	"github.com/google/uuid"
)

type FlowMode string

const (
	FlowNormal       FlowMode = "normal"
	FlowQuickSale    FlowMode = "quick_sale"
	FlowSelfService  FlowMode = "self_service"
	FlowContinuation FlowMode = "continuation"
)

var (
	ErrUnknownFlow   = errors.New("unknown flow mode")
	ErrNoTicket      = errors.New("session has no ticket yet")
	ErrAlreadyClosed = errors.New("session already committed")
	ErrNeedsTicketID = errors.New("continuation flow requires a ticket id")
	ErrNeedsClose    = errors.New("quick sale must finish through the close step")
)

// Session is one in-progress editing pass over a ticket. Sessions are not
// safe for concurrent use; each operator interaction owns one.
type Session struct {
	Mode    FlowMode
	SalonID uuid.UUID
	Actor   service.Actor

	// TicketID is nil while a create-capable flow is still staging.
	TicketID *uuid.UUID

	staged    service.CreateTicketRequest
	committed bool
}

// Staging reports whether mutations accumulate client-side, before any ticket
// row exists.
func (s *Session) Staging() bool {
	return s.TicketID == nil && (s.Mode == FlowNormal || s.Mode == FlowQuickSale)
}

// BeginOptions selects what the session starts from.
type BeginOptions struct {
	TicketID   *uuid.UUID // required for continuation
	ClientID   *uuid.UUID // used by self-service to find the client's open ticket
	ClientName string
}

type Controller struct {
	tickets service.TicketService
}

func NewController(tickets service.TicketService) *Controller {
	return &Controller{tickets: tickets}
}

// Begin opens a session. Normal and quick sale start staging; continuation
// attaches to the given open ticket; self-service attaches to the client's
// open ticket when one exists and otherwise defers creation to the first item.
func (c *Controller) Begin(ctx context.Context, mode FlowMode, salonID uuid.UUID, actor service.Actor, opts BeginOptions) (*Session, error) {
	sess := &Session{Mode: mode, SalonID: salonID, Actor: actor}

	switch mode {
	case FlowNormal, FlowQuickSale:
		if opts.ClientID != nil {
			id := opts.ClientID.String()
			sess.staged.ClientID = id
		}
		sess.staged.ClientName = opts.ClientName
	case FlowContinuation:
		if opts.TicketID == nil {
			return nil, ErrNeedsTicketID
		}
		if _, err := c.tickets.GetTicket(ctx, salonID, *opts.TicketID); err != nil {
			return nil, err
		}
		sess.TicketID = opts.TicketID
	case FlowSelfService:
		if opts.ClientID != nil {
			ticket, err := c.tickets.FindOpenTicketForClient(ctx, salonID, *opts.ClientID)
			switch {
			case err == nil:
				id, parseErr := uuid.Parse(ticket.ID)
				if parseErr != nil {
					return nil, parseErr
				}
				sess.TicketID = &id
			case errors.Is(err, service.ErrTicketNotFound):
				// First item will open a fresh ticket for this client.
				id := opts.ClientID.String()
				sess.staged.ClientID = id
			default:
				return nil, err
			}
		}
		sess.staged.ClientName = opts.ClientName
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, mode)
	}

	return sess, nil
}

// AddItem stages the item in create-capable flows, opens the ticket on the
// first self-service item, and otherwise applies the change immediately and
// returns the refreshed ticket.
func (c *Controller) AddItem(ctx context.Context, sess *Session, req service.TicketItemRequest) (*service.TicketResponse, error) {
	if sess.committed {
		return nil, ErrAlreadyClosed
	}

	if sess.Staging() {
		sess.staged.Items = append(sess.staged.Items, req)
		return nil, nil
	}

	if sess.TicketID == nil {
		// Self-service: the first item creates the ticket.
		create := sess.staged
		create.Items = []service.TicketItemRequest{req}
		ticket, err := c.tickets.CreateTicket(ctx, sess.SalonID, sess.Actor, create)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(ticket.ID)
		if err != nil {
			return nil, err
		}
		sess.TicketID = &id
		return ticket, nil
	}

	if _, err := c.tickets.AddItem(ctx, sess.SalonID, sess.Actor, *sess.TicketID, req); err != nil {
		return nil, err
	}
	return c.Refresh(ctx, sess)
}

// RemoveItem applies immediately on an attached ticket. Staged items are
// identified by index, since they have no ids yet.
func (c *Controller) RemoveItem(ctx context.Context, sess *Session, itemID uuid.UUID) (*service.TicketResponse, error) {
	if sess.committed {
		return nil, ErrAlreadyClosed
	}
	if sess.TicketID == nil {
		return nil, ErrNoTicket
	}
	if err := c.tickets.RemoveItem(ctx, sess.SalonID, sess.Actor, *sess.TicketID, itemID); err != nil {
		return nil, err
	}
	return c.Refresh(ctx, sess)
}

// RemoveStagedItem drops a not-yet-persisted line by its position.
func (c *Controller) RemoveStagedItem(sess *Session, index int) error {
	if !sess.Staging() {
		return ErrNoTicket
	}
	if index < 0 || index >= len(sess.staged.Items) {
		return fmt.Errorf("staged item index %d out of range", index)
	}
	sess.staged.Items = append(sess.staged.Items[:index], sess.staged.Items[index+1:]...)
	return nil
}

// AddPayment stages in the normal flow and applies immediately on an attached
// ticket. The quick sale collects payments only in its close step, after the
// ticket exists.
func (c *Controller) AddPayment(ctx context.Context, sess *Session, req service.TicketPaymentRequest) (*service.TicketResponse, error) {
	if sess.committed {
		return nil, ErrAlreadyClosed
	}

	if sess.Staging() {
		if sess.Mode == FlowQuickSale {
			return nil, ErrNoTicket
		}
		sess.staged.Payments = append(sess.staged.Payments, req)
		return nil, nil
	}
	if sess.TicketID == nil {
		return nil, ErrNoTicket
	}

	if _, err := c.tickets.AddPayment(ctx, sess.SalonID, sess.Actor, *sess.TicketID, req); err != nil {
		return nil, err
	}
	return c.Refresh(ctx, sess)
}

// RemovePayment applies immediately on an attached ticket.
func (c *Controller) RemovePayment(ctx context.Context, sess *Session, paymentID uuid.UUID) (*service.TicketResponse, error) {
	if sess.committed {
		return nil, ErrAlreadyClosed
	}
	if sess.TicketID == nil {
		return nil, ErrNoTicket
	}
	if err := c.tickets.RemovePayment(ctx, sess.SalonID, sess.Actor, *sess.TicketID, paymentID); err != nil {
		return nil, err
	}
	return c.Refresh(ctx, sess)
}

// Commit finishes the staging step. The normal flow creates the ticket with
// whatever the actor staged and ends the session; the quick sale creates it
// open with the staged items only and keeps the session live, so the ticket
// is visible at the front desk while payments are collected, and Close is the
// only way to finish it. Attached flows end with a final authoritative fetch.
func (c *Controller) Commit(ctx context.Context, sess *Session) (*service.TicketResponse, error) {
	if sess.committed {
		return nil, ErrAlreadyClosed
	}

	switch {
	case sess.Staging():
		create := sess.staged
		if sess.Mode == FlowQuickSale {
			create.Status = model.StatusOpen
			create.Payments = nil
		}
		ticket, err := c.tickets.CreateTicket(ctx, sess.SalonID, sess.Actor, create)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(ticket.ID)
		if err != nil {
			return nil, err
		}
		sess.TicketID = &id
		sess.committed = sess.Mode != FlowQuickSale
		return ticket, nil
	case sess.TicketID != nil:
		if sess.Mode == FlowQuickSale {
			return nil, ErrNeedsClose
		}
		sess.committed = true
		return c.tickets.GetTicket(ctx, sess.SalonID, *sess.TicketID)
	default:
		return nil, ErrNoTicket
	}
}

// Close settles the attached ticket: it runs the guarded paid transition and
// ends the session. An unsettled balance fails with the remaining amount and
// leaves the ticket open, payments included.
func (c *Controller) Close(ctx context.Context, sess *Session) (*service.TicketResponse, error) {
	if sess.committed {
		return nil, ErrAlreadyClosed
	}
	if sess.TicketID == nil {
		return nil, ErrNoTicket
	}
	ticket, err := c.tickets.MarkPaid(ctx, sess.SalonID, sess.Actor, *sess.TicketID)
	if err != nil {
		return nil, err
	}
	sess.committed = true
	return ticket, nil
}

// Refresh returns the current server-side state of the session's ticket.
func (c *Controller) Refresh(ctx context.Context, sess *Session) (*service.TicketResponse, error) {
	if sess.TicketID == nil {
		return nil, ErrNoTicket
	}
	return c.tickets.GetTicket(ctx, sess.SalonID, *sess.TicketID)
}
