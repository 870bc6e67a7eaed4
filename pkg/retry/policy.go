/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package retry parameterizes the Controller's bounded exponential backoff
// between reconciliation attempts.
package retry

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Policy is {maxAttempts, initialDelayMs, delayMultiplier} from the
// Operator Configuration. The zero value is not meaningful; use
// DefaultPolicy or construct explicitly.
type Policy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	DelayMultiplier float64
}

// DefaultPolicy matches the configuration-surface defaults: one attempt, no
// delay, multiplier 2 (the multiplier is moot with a single attempt, but
// keeps the shape sane if a caller bumps MaxAttempts without touching it).
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 1, InitialDelay: 0, DelayMultiplier: 2}
}

// Backoff returns a wait.Backoff primed from this policy: Duration is the
// initial delay, Factor is the multiplier, Steps is the attempt budget.
// wait.Backoff.Step() then hands back successive delays the same way the
// spec describes delay *= multiplier after each attempt.
func (p Policy) Backoff() wait.Backoff {
	steps := p.MaxAttempts
	if steps < 1 {
		steps = 1
	}
	factor := p.DelayMultiplier
	if factor < 1 {
		factor = 1
	}
	return wait.Backoff{
		Duration: p.InitialDelay,
		Factor:   factor,
		Steps:    steps,
	}
}

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
// Returns ctx.Err() if cancellation won the race.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
