package tracker

import (
	"context"
	"errors"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

type Step string

const (
	StepFetch           Step = "fetch"
	StepLoadSnapshot    Step = "load-snapshot"
	StepSaveSnapshot    Step = "save-snapshot"
	StepLoadSubscribers Step = "load-subscribers"
	StepNotify          Step = "notify"
)

type Action int

const (
	// Continue treats the error as an expected empty value, e.g. the very first run.
	Continue Action = iota
	// Degrade treats the error as an empty value and records the step in RunSummary.Degraded.
	Degrade
	// Abort stops the run and returns the error to the caller.
	Abort
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Degrade:
		return "degrade"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

type rule struct {
	step   Step
	kind   error
	action Action
}

var policy = []rule{
	{StepFetch, domain.ErrSourceUnavailable, Degrade},
	{StepLoadSnapshot, domain.ErrNotFound, Continue},
	{StepLoadSnapshot, domain.ErrStoreUnavailable, Degrade},
	{StepSaveSnapshot, domain.ErrStoreUnavailable, Degrade},
	{StepLoadSubscribers, domain.ErrNotFound, Continue},
	{StepLoadSubscribers, domain.ErrStoreUnavailable, Degrade},
	{StepNotify, domain.ErrDeliveryFailed, Degrade},
	{StepNotify, domain.ErrMailUnconfigured, Degrade},
}

// Decide picks what a run does when step fails with err. Cancellation of the caller's context
// aborts regardless of the step; errors absent from the table degrade.
func Decide(ctx context.Context, step Step, err error) Action {
	if ctx.Err() != nil {
		return Abort
	}
	for _, r := range policy {
		if r.step == step && errors.Is(err, r.kind) {
			return r.action
		}
	}
	return Degrade
}
