/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/sap/component-operator-runtime/pkg/controller"
	"github.com/sap/component-operator-runtime/pkg/resource"
	"github.com/sap/component-operator-runtime/pkg/retry"
)

// reconcileWidget is a placeholder AddOrModify hook: a real operator binary
// would reconcile whatever dependent objects the widget's spec describes. It
// demonstrates the contract hooks must honor (idempotent, ctx-aware, returns
// a retriable error on transient failure) and reports completion through the
// status subresource via ctrl.UpdateStatus, the merge-patch path.
func reconcileWidget(ctx context.Context, obj *resource.Object, ctrl *controller.Controller) error {
	logr.FromContext(ctx).V(1).Info("reconciling widget", "name", obj.GetName(), "generation", obj.GetGeneration())
	status := map[string]any{
		"observedGeneration": obj.GetGeneration(),
		"phase":              "Ready",
	}
	if _, err := ctrl.UpdateStatus(ctx, obj, status); err != nil {
		return err
	}
	return nil
}

// deleteWidget is a placeholder Delete hook, invoked while the finalizer is
// still present and the resource carries a deletionTimestamp.
func deleteWidget(ctx context.Context, obj *resource.Object) error {
	logr.FromContext(ctx).V(1).Info("cleaning up widget", "name", obj.GetName())
	return nil
}

func retryPolicy(maxAttempts int) retry.Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retry.Policy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    time.Second,
		DelayMultiplier: 2,
	}
}
