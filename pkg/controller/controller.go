/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package controller implements the per-resource-type reconciliation
// engine: the event queue drain loop, the finalizer/generation state
// machine, and bounded retry. This is the heart of the framework described
// in §4.4 of the design.
package controller

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	corev1 "k8s.io/api/core/v1"
	apitypes "k8s.io/apimachinery/pkg/types"

	ioclient "github.com/sap/component-operator-runtime/pkg/client"
	"github.com/sap/component-operator-runtime/pkg/event"
	"github.com/sap/component-operator-runtime/pkg/resource"
	"github.com/sap/component-operator-runtime/pkg/retry"
	"github.com/sap/component-operator-runtime/pkg/types"

	"github.com/sap/component-operator-runtime/internal/metrics"
	"github.com/sap/component-operator-runtime/internal/queue"
	"github.com/sap/component-operator-runtime/internal/tracker"
)

// Controller drives the reconciliation loop for a single resource type. It
// owns its Event Queue and Change Tracker exclusively; both are guarded by
// mutex, the same single-lock-per-controller posture the teacher uses for
// its inventory/reconcile state.
type Controller struct {
	name       string
	descriptor resource.Descriptor
	client     ioclient.Client
	options    Options

	mutex   sync.Mutex
	queue   *queue.Queue
	tracker *tracker.Tracker

	wg sync.WaitGroup
}

// New creates a Controller for the given resource type. name identifies the
// controller in logs and metrics; it should be unique within the operator.
func New(name string, descriptor resource.Descriptor, clnt ioclient.Client, options Options) *Controller {
	options = options.withDefaults()
	return &Controller{
		name:       name,
		descriptor: descriptor,
		client:     clnt,
		options:    options,
		queue:      queue.New(),
		tracker:    tracker.New(*options.DiscardDuplicateGenerations),
	}
}

// Descriptor returns the resource type this controller reconciles.
func (c *Controller) Descriptor() resource.Descriptor {
	return c.descriptor
}

// ProcessEvent is the entry point called by a Watcher. It never blocks the
// caller on reconciliation and never panics the caller: filtering and
// enqueueing happen synchronously, and the drain loop that actually calls
// into user code runs on its own goroutine, joined by Wait.
func (c *Controller) ProcessEvent(ctx context.Context, e event.Event) {
	log := logr.FromContext(ctx).WithValues("controller", c.name)

	switch e.Type {
	case event.Error:
		log.Error(errors.New("watch delivered an error event"), "ignoring error event")
		return
	case event.Deleted, event.Bookmark:
		// Deleted is the terminal notification after our own
		// deletionTimestamp+finalizer path already drove deletion; Bookmark
		// carries no payload. Both are no-ops by design (see open question
		// in the design notes: a hard-deleted, finalizer-stripped object
		// never gets a Delete hook call).
		return
	}

	uid := e.UID()
	c.mutex.Lock()
	c.queue.Enqueue(e)
	metrics.QueueDepth.WithLabelValues(c.name).Set(float64(c.queue.Len()))
	c.mutex.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.drain(ctx, uid)
	}()
}

// Wait blocks until every in-flight drain loop this controller has spawned
// has returned. Used by tests and by a careful shutdown sequence; the core
// itself does not require it (cancelled reconciliations are allowed to
// terminate early per §5).
func (c *Controller) Wait() {
	c.wg.Wait()
}

// drain repeatedly dequeues the next pending event for uid and reconciles
// it, until none remains or the context is cancelled. Because dequeue
// refuses to hand out a new event while one is already being handled, at
// most one goroutine per uid is ever actively reconciling (P1); any other
// goroutine racing to drain the same uid sees dequeue return false and
// exits immediately, leaving the winner's loop to pick up whatever arrives
// next (P2).
func (c *Controller) drain(ctx context.Context, uid apitypes.UID) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.mutex.Lock()
		next, ok := c.queue.Dequeue(uid)
		metrics.QueueDepth.WithLabelValues(c.name).Set(float64(c.queue.Len()))
		c.mutex.Unlock()
		if !ok {
			return
		}
		c.handleEvent(ctx, next)
	}
}

// handleEvent runs the attempt/backoff loop for a single event.
func (c *Controller) handleEvent(ctx context.Context, e event.Event) {
	log := logr.FromContext(ctx).WithValues("controller", c.name, "uid", e.UID())

	c.mutex.Lock()
	c.queue.BeginHandle(e)
	c.mutex.Unlock()
	defer func() {
		c.mutex.Lock()
		c.queue.EndHandle(e)
		c.mutex.Unlock()
	}()

	backoff := c.options.RetryPolicy.Backoff()
	attempt := 0
	for {
		attempt++
		metrics.Reconciles.WithLabelValues(c.name).Inc()
		handled, err := c.tryHandle(ctx, e)
		if handled {
			return
		}
		if err != nil {
			metrics.ReconcileErrors.WithLabelValues(c.name, "transient").Inc()
			log.V(1).Info("reconciliation attempt failed", "attempt", attempt, "error", err.Error())
		}
		switch c.evaluateRetry(ctx, e, attempt) {
		case retryAllowed:
			// fall through to the delay below
		case retryAttemptsExhausted:
			if err != nil {
				c.recordf(e.Resource, corev1.EventTypeWarning, "ReconcileFailed", "giving up after %d attempts: %s", attempt, err.Error())
			}
			return
		default:
			return
		}
		delay := backoff.Step()
		if err := retry.Sleep(ctx, delay); err != nil {
			return
		}
	}
}

// retryDecision distinguishes why an attempt may not be retried, so callers
// can tell genuine attempt-cap exhaustion apart from a superseded or
// cancelled event.
type retryDecision int

const (
	retryAllowed retryDecision = iota
	retryCtxCancelled
	retrySuperseded
	retryAttemptsExhausted
)

// evaluateRetry implements the superseded-retry and attempt-cap gates (P3, P4).
func (c *Controller) evaluateRetry(ctx context.Context, e event.Event, attempt int) retryDecision {
	if ctx.Err() != nil {
		return retryCtxCancelled
	}
	c.mutex.Lock()
	_, superseded := c.queue.Peek(e.UID())
	c.mutex.Unlock()
	if superseded {
		return retrySuperseded
	}
	if attempt >= c.options.RetryPolicy.MaxAttempts {
		return retryAttemptsExhausted
	}
	return retryAllowed
}

// recordf emits a deduplicated event through the configured Recorder, if
// any. A nil Recorder (the default) makes this a no-op.
func (c *Controller) recordf(obj *resource.Object, eventType, reason, messageFmt string, args ...any) {
	if c.options.Recorder == nil {
		return
	}
	c.options.Recorder.Eventf(obj, eventType, reason, messageFmt, args...)
}

// tryHandle runs the finalizer/generation state machine for a single event.
// The returned bool is "handled" in the spec's sense: true means no further
// attempt should be made for this event, independent of whether err is nil.
func (c *Controller) tryHandle(ctx context.Context, e event.Event) (handled bool, err error) {
	obj := e.Resource
	log := logr.FromContext(ctx).WithValues("controller", c.name, "resource", types.ObjectKeyToString(obj))

	if resource.IsMarkedForDeletion(obj) {
		return c.tryHandleDelete(ctx, obj, log)
	}
	return c.tryHandleAddOrModify(ctx, obj, log)
}

func (c *Controller) tryHandleDelete(ctx context.Context, obj *resource.Object, log logr.Logger) (bool, error) {
	if !resource.HasFinalizer(obj, c.descriptor.Finalizer()) {
		// some other controller owns this deletion
		return true, nil
	}

	if err := c.options.Delete(ctx, obj); err != nil {
		if ctx.Err() != nil {
			return true, nil
		}
		if ioclient.IsConflict(err) {
			c.recordf(obj, corev1.EventTypeWarning, "ConflictSwallowed", "delete hook reported a conflict, not retrying this event: %s", err.Error())
			return true, nil
		}
		return false, errors.Wrap(err, "delete hook failed")
	}

	c.mutex.Lock()
	c.tracker.TrackDeleted(obj.GetUID())
	c.mutex.Unlock()

	// work on a copy so that a failed replace leaves the event's object (and
	// thus any retry of it) still carrying the finalizer
	updated := obj.DeepCopy()
	if resource.RemoveFinalizer(updated, c.descriptor.Finalizer()) {
		if _, err := c.replace(ctx, updated); err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			if ioclient.IsConflict(err) {
				c.recordf(obj, corev1.EventTypeWarning, "ConflictSwallowed", "removing finalizer hit a conflict, not retrying this event: %s", err.Error())
				return true, nil
			}
			return false, errors.Wrap(err, "error removing finalizer")
		}
	}
	log.V(1).Info("deletion complete")
	return true, nil
}

func (c *Controller) tryHandleAddOrModify(ctx context.Context, obj *resource.Object, log logr.Logger) (bool, error) {
	if !resource.HasFinalizer(obj, c.descriptor.Finalizer()) {
		updated := obj.DeepCopy()
		resource.AddFinalizer(updated, c.descriptor.Finalizer())
		if _, err := c.replace(ctx, updated); err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			if ioclient.IsConflict(err) {
				c.recordf(obj, corev1.EventTypeWarning, "ConflictSwallowed", "adding finalizer hit a conflict, not retrying this event: %s", err.Error())
				return true, nil
			}
			return false, errors.Wrap(err, "error adding finalizer")
		}
		// the replace above triggers a Modified event carrying the
		// finalizer; addOrModify runs on that round trip, not this one.
		return true, nil
	}

	c.mutex.Lock()
	alreadyHandled := c.tracker.IsAlreadyHandled(obj.GetUID(), obj.GetGeneration())
	c.mutex.Unlock()
	if alreadyHandled {
		return true, nil
	}

	if err := c.options.AddOrModify(ctx, obj); err != nil {
		if ctx.Err() != nil {
			return true, nil
		}
		if ioclient.IsConflict(err) {
			c.recordf(obj, corev1.EventTypeWarning, "ConflictSwallowed", "addOrModify hook reported a conflict, not retrying this event: %s", err.Error())
			return true, nil
		}
		return false, errors.Wrap(err, "addOrModify hook failed")
	}

	c.mutex.Lock()
	c.tracker.TrackHandled(obj.GetUID(), obj.GetGeneration())
	c.mutex.Unlock()
	log.V(2).Info("addOrModify complete")
	return true, nil
}

// UpdateStatus merge-patches the status subresource of obj with the given
// value, matching the spec's requirement that status updates use JSON
// merge-patch and never full replace.
func (c *Controller) UpdateStatus(ctx context.Context, obj *resource.Object, status any) (*resource.Object, error) {
	metrics.Operations.WithLabelValues(c.name, "patch").Inc()
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return nil, errors.Wrap(err, "error marshalling status")
	}
	mergePatch, err := json.Marshal(map[string]json.RawMessage{"status": statusJSON})
	if err != nil {
		return nil, errors.Wrap(err, "error building merge patch")
	}
	gvr := c.descriptor.GroupVersionResource()
	if obj.GetNamespace() == "" {
		return c.client.PatchClusterStatus(ctx, gvr, obj.GetName(), mergePatch, c.options.FieldManager)
	}
	return c.client.PatchNamespacedStatus(ctx, gvr, obj.GetNamespace(), obj.GetName(), mergePatch, c.options.FieldManager)
}

// ReplaceResource performs a full replace of obj, relying on server-side
// optimistic concurrency (resourceVersion). Used for spec/metadata changes
// such as finalizer bookkeeping; never mixed with status merge-patches.
func (c *Controller) ReplaceResource(ctx context.Context, obj *resource.Object) (*resource.Object, error) {
	return c.replace(ctx, obj)
}

func (c *Controller) replace(ctx context.Context, obj *resource.Object) (*resource.Object, error) {
	metrics.Operations.WithLabelValues(c.name, "replace").Inc()
	gvr := c.descriptor.GroupVersionResource()
	if obj.GetNamespace() == "" {
		return c.client.ReplaceCluster(ctx, gvr, obj.GetName(), obj)
	}
	return c.client.ReplaceNamespaced(ctx, gvr, obj.GetNamespace(), obj.GetName(), obj)
}
