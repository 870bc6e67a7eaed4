/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package queue implements the per-controller, single-slot, coalescing
// Event Queue keyed by resource uid, plus the disjoint "currently handling"
// set that gives the controller back-pressure.
//
// Queue is not safe for concurrent use by itself; the owning controller
// serializes all access through its single per-controller mutex (see
// pkg/controller), the same way the teacher guards its reconcile/inventory
// maps with one lock per reconciler.
package queue

import (
	apitypes "k8s.io/apimachinery/pkg/types"

	"github.com/sap/component-operator-runtime/pkg/event"
)

// Queue holds at most one pending event per uid, plus the set of uids
// currently under reconciliation.
type Queue struct {
	pending  map[apitypes.UID]event.Event
	handling map[apitypes.UID]event.Event
}

func New() *Queue {
	return &Queue{
		pending:  make(map[apitypes.UID]event.Event),
		handling: make(map[apitypes.UID]event.Event),
	}
}

// Enqueue unconditionally overwrites any previously pending event for
// e.UID(): only the latest observation matters for a level-triggered
// reconciler.
func (q *Queue) Enqueue(e event.Event) {
	q.pending[e.UID()] = e
}

// Peek returns the pending event for uid without removing it, and whether
// one exists.
func (q *Queue) Peek(uid apitypes.UID) (event.Event, bool) {
	e, ok := q.pending[uid]
	return e, ok
}

// Dequeue returns false if a reconciliation for uid is already in flight
// (back-pressure: never start a second one). Otherwise it removes and
// returns the pending event for uid, if any.
func (q *Queue) Dequeue(uid apitypes.UID) (event.Event, bool) {
	if _, busy := q.handling[uid]; busy {
		return event.Event{}, false
	}
	e, ok := q.pending[uid]
	if !ok {
		return event.Event{}, false
	}
	delete(q.pending, uid)
	return e, true
}

// BeginHandle marks e's uid as currently under reconciliation.
func (q *Queue) BeginHandle(e event.Event) {
	q.handling[e.UID()] = e
}

// EndHandle clears the "currently handling" mark for e's uid.
func (q *Queue) EndHandle(e event.Event) {
	delete(q.handling, e.UID())
}

// Len returns the number of distinct uids currently sitting in the pending
// map, for the queue-depth gauge.
func (q *Queue) Len() int {
	return len(q.pending)
}
