package service

import (
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
)

type transitionRule struct {
	providerOnly bool
}

// transitions lists every legal status change. Anything absent is rejected.
var transitions = map[model.AppointmentStatus]map[model.AppointmentStatus]transitionRule{
	model.StatusPending: {
		model.StatusConfirmed: {providerOnly: true},
		model.StatusCancelled: {},
	},
	model.StatusConfirmed: {
		model.StatusCancelled: {},
		model.StatusCompleted: {providerOnly: true},
	},
}

func checkTransition(actor model.Actor, appt *model.Appointment, to model.AppointmentStatus) error {
	rule, ok := transitions[appt.Status][to]
	if !ok {
		return apperrors.InvalidTransition(string(appt.Status), string(to))
	}
	if rule.providerOnly && !actor.IsProviderOf(appt) {
		return apperrors.Forbidden("Only the provider can move an appointment to " + string(to))
	}
	return nil
}
