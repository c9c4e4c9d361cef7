package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/roles"
)

// TokenOwner pairs a push token with the personnel record it belongs to, so
// invalid tokens can be pruned from their owner.
type TokenOwner struct {
	Token   string
	OwnerID uuid.UUID
}

// Store is the persistence surface the dispatcher needs.
type Store interface {
	// ListApproverTokens returns the push tokens of everyone holding an
	// approver-eligible role, excluding the given user.
	ListApproverTokens(ctx context.Context, eligible []roles.Role, excludeUserID uuid.UUID) ([]TokenOwner, error)
	// RemoveTokens strips each token from its owner in one batched
	// transaction.
	RemoveTokens(ctx context.Context, tokens []TokenOwner) error
}

// SendResult is one token's delivery outcome.
type SendResult struct {
	Token string
	// PermanentlyInvalid marks tokens the platform reports as unregistered;
	// these are pruned. Transient failures are left for the next event.
	PermanentlyInvalid bool
	Err                error
}

// PushClient delivers one payload to many tokens.
type PushClient interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]SendResult, error)
}

// Dispatcher fans new-request notifications out to approvers. Every failure
// is logged and swallowed; dispatch must never propagate an error into the
// write path that triggered it.
type Dispatcher struct {
	store  Store
	client PushClient
	res    *clock.Resolver
	logger *zap.Logger
}

func NewDispatcher(st Store, client PushClient, res *clock.Resolver, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{store: st, client: client, res: res, logger: logger}
}

// NotifyNewRequest pushes a new pending liberty request to approver-eligible
// personnel, never including the requester's own tokens.
func (d *Dispatcher) NotifyNewRequest(ctx context.Context, req *models.LibertyRequest) {
	owners, err := d.store.ListApproverTokens(ctx, roles.ApproverRoles(), req.RequesterID)
	if err != nil {
		d.logger.Error("failed to collect approver tokens", zap.Error(err))
		return
	}
	if len(owners) == 0 {
		return
	}

	tokens := make([]string, len(owners))
	byToken := make(map[string]TokenOwner, len(owners))
	for i, o := range owners {
		tokens[i] = o.Token
		byToken[o.Token] = o
	}

	title := fmt.Sprintf("Pass request at %s from %s", d.res.LocalizedTime(), req.RequesterName)
	body := buildBody(req)
	data := map[string]string{
		"type":       "liberty_request",
		"request_id": req.ID.String(),
	}

	results, err := d.client.SendMulticast(ctx, tokens, title, body, data)
	if err != nil {
		d.logger.Error("push delivery failed", zap.Error(err),
			zap.String("request_id", req.ID.String()))
		return
	}

	var stale []TokenOwner
	for _, r := range results {
		if r.PermanentlyInvalid {
			stale = append(stale, byToken[r.Token])
		} else if r.Err != nil {
			// transient; retried implicitly on the next event
			d.logger.Debug("push token failed transiently", zap.Error(r.Err))
		}
	}
	if len(stale) > 0 {
		if err := d.store.RemoveTokens(ctx, stale); err != nil {
			d.logger.Error("failed to prune invalid push tokens", zap.Error(err))
			return
		}
		d.logger.Info("pruned invalid push tokens", zap.Int("count", len(stale)))
	}
}

// buildBody aggregates the request details present on the document.
func buildBody(req *models.LibertyRequest) string {
	parts := []string{"Destination: " + req.Destination}
	if req.ReturnTime != nil && *req.ReturnTime != "" {
		parts = append(parts, "Return: "+*req.ReturnTime)
	}
	if len(req.Companions) > 0 {
		names := make([]string, len(req.Companions))
		for i, c := range req.Companions {
			names[i] = c.Name
		}
		parts = append(parts, "With: "+strings.Join(names, ", "))
	}
	if req.Notes != nil && *req.Notes != "" {
		parts = append(parts, "Notes: "+*req.Notes)
	}
	return strings.Join(parts, " | ")
}
