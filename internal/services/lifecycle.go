package services

import (
	"fmt"

	"github.com/assetcatalog/backend/internal/models"
)

const (
	TransitionModePermissive = "permissive"
	TransitionModeStrict     = "strict"
)

// TransitionRule defines an allowed status transition.
type TransitionRule struct {
	From models.AssetStatus
	To   models.AssetStatus
}

// StrictTransitions is the review workflow: submit, then publish or reject.
var StrictTransitions = []TransitionRule{
	{From: models.AssetStatusDraft, To: models.AssetStatusPending},
	{From: models.AssetStatusPending, To: models.AssetStatusPublished},
	{From: models.AssetStatusPending, To: models.AssetStatusRejected},
	{From: models.AssetStatusPending, To: models.AssetStatusDraft},
	{From: models.AssetStatusRejected, To: models.AssetStatusDraft},
	{From: models.AssetStatusRejected, To: models.AssetStatusPending},
	{From: models.AssetStatusPublished, To: models.AssetStatusDraft},
	{From: models.AssetStatusPublished, To: models.AssetStatusRejected},
}

// PermissiveTransitions connects every status to every other status.
func PermissiveTransitions() []TransitionRule {
	var rules []TransitionRule
	for _, from := range models.AssetStatuses {
		for _, to := range models.AssetStatuses {
			if from != to {
				rules = append(rules, TransitionRule{From: from, To: to})
			}
		}
	}
	return rules
}

// LifecycleMachine validates asset status transitions against a table.
type LifecycleMachine struct {
	transitions []TransitionRule
}

func NewLifecycleMachine(rules []TransitionRule) *LifecycleMachine {
	return &LifecycleMachine{transitions: rules}
}

// NewLifecycleMachineForMode returns the machine for a configured mode.
// Unknown modes fall back to permissive.
func NewLifecycleMachineForMode(mode string) *LifecycleMachine {
	if mode == TransitionModeStrict {
		return NewLifecycleMachine(StrictTransitions)
	}
	return NewLifecycleMachine(PermissiveTransitions())
}

// ValidateTransition returns nil if from->to is allowed.
func (m *LifecycleMachine) ValidateTransition(from, to models.AssetStatus) error {
	if !to.Valid() {
		return &TransitionError{From: from, To: to, Message: fmt.Sprintf("unknown status %s", to)}
	}
	if from == to {
		return nil
	}
	for _, t := range m.transitions {
		if t.From == from && t.To == to {
			return nil
		}
	}
	return &TransitionError{
		From:    from,
		To:      to,
		Message: fmt.Sprintf("transition from %s to %s is not allowed", from, to),
	}
}

// AllowedTransitions returns all valid target states from the given state.
func (m *LifecycleMachine) AllowedTransitions(from models.AssetStatus) []models.AssetStatus {
	var allowed []models.AssetStatus
	for _, t := range m.transitions {
		if t.From == from {
			allowed = append(allowed, t.To)
		}
	}
	return allowed
}

// TransitionError is a rejected status change.
type TransitionError struct {
	From    models.AssetStatus `json:"from"`
	To      models.AssetStatus `json:"to"`
	Message string             `json:"message"`
}

func (e *TransitionError) Error() string {
	return e.Message
}
