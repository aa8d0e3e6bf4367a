package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownKind       = errors.New("domain: unknown entity kind")
	ErrUnknownAction     = errors.New("domain: action not supported for entity kind")
	ErrIllegalTransition = errors.New("domain: illegal status transition")
)

// Status is the lifecycle state of an entity. Values are shared across kinds
// ("pending" exists for bookings and orders), so a Status is only meaningful
// together with its Kind.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOutOfStock Status = "out_of_stock"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
)

// Action is a one-shot status change requested from the backend.
type Action string

const (
	ActionConfirm        Action = "confirm"
	ActionCancel         Action = "cancel"
	ActionComplete       Action = "complete"
	ActionNoShow         Action = "no-show"
	ActionReschedule     Action = "reschedule"
	ActionActivate       Action = "activate"
	ActionDeactivate     Action = "deactivate"
	ActionMarkOutOfStock Action = "mark-out-of-stock"
	ActionProcess        Action = "process"
	ActionShip           Action = "ship"
	ActionDeliver        Action = "deliver"
)

type transitionRule struct {
	from []Status
	to   Status
}

func (r transitionRule) allows(s Status) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

var transitions = map[Kind]map[Action]transitionRule{
	KindBooking: {
		ActionConfirm:    {from: []Status{StatusPending}, to: StatusConfirmed},
		ActionCancel:     {from: []Status{StatusPending, StatusConfirmed}, to: StatusCancelled},
		ActionComplete:   {from: []Status{StatusConfirmed}, to: StatusCompleted},
		ActionNoShow:     {from: []Status{StatusConfirmed}, to: StatusNoShow},
		ActionReschedule: {from: []Status{StatusPending, StatusConfirmed}, to: StatusPending},
	},
	KindProduct: {
		ActionActivate:       {from: []Status{StatusInactive, StatusOutOfStock}, to: StatusActive},
		ActionDeactivate:     {from: []Status{StatusActive, StatusOutOfStock}, to: StatusInactive},
		ActionMarkOutOfStock: {from: []Status{StatusActive}, to: StatusOutOfStock},
	},
	KindService: {
		ActionActivate:   {from: []Status{StatusInactive}, to: StatusActive},
		ActionDeactivate: {from: []Status{StatusActive}, to: StatusInactive},
	},
	KindOrder: {
		ActionProcess: {from: []Status{StatusPending}, to: StatusProcessing},
		ActionShip:    {from: []Status{StatusProcessing}, to: StatusShipped},
		ActionDeliver: {from: []Status{StatusShipped}, to: StatusDelivered},
		ActionCancel:  {from: []Status{StatusPending, StatusProcessing}, to: StatusCancelled},
	},
}

// TransitionError describes an action that is not legal from the entity's
// current status.
type TransitionError struct {
	Kind   Kind
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Kind, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// Transition returns the status an entity of the given kind ends up in after
// action, or an error if the action is unknown for the kind or not allowed from
// the current status.
func Transition(kind Kind, from Status, action Action) (Status, error) {
	rules, ok := transitions[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	rule, ok := rules[action]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, kind)
	}
	if !rule.allows(from) {
		return "", &TransitionError{Kind: kind, From: from, Action: action}
	}
	return rule.to, nil
}

// Actions lists, in lexical order, the actions legal for kind from status.
func Actions(kind Kind, from Status) []Action {
	var out []Action
	for a, rule := range transitions[kind] {
		if rule.allows(from) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
