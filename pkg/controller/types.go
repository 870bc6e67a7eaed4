/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"context"

	"github.com/sap/component-operator-runtime/internal/events"
	"github.com/sap/component-operator-runtime/pkg/resource"
	"github.com/sap/component-operator-runtime/pkg/retry"
)

// HookFunc is a user-supplied reconciliation callback. Default
// implementations are no-ops; the core never assumes more than what this
// signature promises. ctx carries the Operator's cancellation signal;
// implementations are expected to honour it promptly, though the core
// never forcibly aborts a hook that doesn't.
type HookFunc func(ctx context.Context, obj *resource.Object) error

func noopHook(context.Context, *resource.Object) error { return nil }

// Options configures a Controller for one resource type.
type Options struct {
	// AddOrModify is called on the add/modify path once the finalizer is
	// present and the generation gate has passed. Defaults to a no-op.
	AddOrModify HookFunc
	// Delete is called on the deletion path while the finalizer is still
	// present. Defaults to a no-op.
	Delete HookFunc
	// DiscardDuplicateGenerations gates redundant AddOrModify calls via the
	// Change Tracker. Defaults to true, matching the configuration surface.
	DiscardDuplicateGenerations *bool
	// FieldManager is passed to status patches. Full replaces do not carry a
	// field manager.
	FieldManager string
	// RetryPolicy bounds the exponential backoff applied between failed
	// reconciliation attempts of the same event. Defaults to
	// retry.DefaultPolicy() (a single attempt, no retry).
	RetryPolicy retry.Policy
	// Recorder, if set, receives a Warning event whenever a 409 conflict is
	// swallowed (no internal retry, per the open design question) and
	// whenever an event exhausts its retry budget. Nil means no events are
	// recorded.
	Recorder *events.DeduplicatingRecorder
}

func (o Options) withDefaults() Options {
	if o.AddOrModify == nil {
		o.AddOrModify = noopHook
	}
	if o.Delete == nil {
		o.Delete = noopHook
	}
	if o.DiscardDuplicateGenerations == nil {
		t := true
		o.DiscardDuplicateGenerations = &t
	}
	if o.FieldManager == "" {
		o.FieldManager = "operator"
	}
	if o.RetryPolicy.MaxAttempts == 0 {
		o.RetryPolicy = retry.DefaultPolicy()
	}
	return o
}
