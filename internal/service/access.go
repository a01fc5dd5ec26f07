package service

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/model"
	"expenses/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Access is an actor's relationship to one claim. The claim must have
// Owner.Manager loaded.
type Access struct {
	ActorID uuid.UUID
	Claim   *model.Claim
}

func (a Access) IsOwner() bool {
	return a.Claim.OwnerID == a.ActorID
}

// ManagesDirectly: the claim owner reports to the actor.
func (a Access) ManagesDirectly() bool {
	owner := a.Claim.Owner
	return owner != nil && owner.ManagerID != nil && *owner.ManagerID == a.ActorID
}

// ManagesAsSubstitute: the actor stands in for the owner's manager.
func (a Access) ManagesAsSubstitute() bool {
	owner := a.Claim.Owner
	if owner == nil || owner.Manager == nil {
		return false
	}
	sub := owner.Manager.SubstituteID
	return sub != nil && *sub == a.ActorID
}

// Manages: the actor reviews the claim. Nobody reviews their own claims.
func (a Access) Manages() bool {
	return !a.IsOwner() && (a.ManagesDirectly() || a.ManagesAsSubstitute())
}

func (a Access) CanView() bool {
	return a.IsOwner() || a.Manages()
}

// CanEdit also governs delete, submit and receipt changes.
func (a Access) CanEdit() bool {
	return a.IsOwner() && a.Claim.Status.Editable()
}

func (a Access) CanApprove() bool {
	return a.Manages() && a.Claim.Status == model.StatusPending
}

func (a Access) CanReturn() bool {
	return a.CanApprove()
}

// Capabilities is what the actor may do with a claim right now.
type Capabilities struct {
	CanEdit    bool `json:"can_edit"`
	CanSubmit  bool `json:"can_submit"`
	CanDelete  bool `json:"can_delete"`
	CanApprove bool `json:"can_approve"`
	CanReturn  bool `json:"can_return"`
}

func (a Access) Capabilities() Capabilities {
	return Capabilities{
		CanEdit:    a.CanEdit(),
		CanSubmit:  a.CanEdit() && len(a.Claim.Receipts) > 0,
		CanDelete:  a.CanEdit(),
		CanApprove: a.CanApprove(),
		CanReturn:  a.CanReturn(),
	}
}

// claimRule is one authorization rule: who may act, and from which statuses.
type claimRule struct {
	relation func(Access) bool
	status   func(model.ClaimStatus) bool
}

var (
	ruleView   = claimRule{relation: Access.CanView}
	ruleOwner  = claimRule{relation: Access.IsOwner, status: model.ClaimStatus.Editable}
	ruleReview = claimRule{relation: Access.Manages, status: func(s model.ClaimStatus) bool { return s == model.StatusPending }}
)

// authorizeClaim loads the claim and checks existence, then relationship, then
// status. The first failing check decides and every failure is ErrAccessDenied.
func authorizeClaim(ctx context.Context, claims repository.ClaimRepository, actorID uuid.UUID, ref string, rule claimRule) (*model.Claim, error) {
	claim, err := claims.FindByReference(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("load claim %s: %w", ref, err)
	}
	if err := checkClaim(actorID, claim, rule); err != nil {
		return nil, err
	}
	return claim, nil
}

func checkClaim(actorID uuid.UUID, claim *model.Claim, rule claimRule) error {
	if !rule.relation(Access{ActorID: actorID, Claim: claim}) {
		return ErrAccessDenied
	}
	if rule.status != nil && !rule.status(claim.Status) {
		return fmt.Errorf("%w: %w", ErrAccessDenied, model.ErrInvalidTransition)
	}
	return nil
}
