/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package tracker implements the Change Tracker: a per-controller record of
// the last successfully reconciled generation per resource uid, used to
// suppress redundant Modified events (status updates, relist resyncs).
package tracker

import (
	apitypes "k8s.io/apimachinery/pkg/types"
)

// Tracker records lastProcessedGen[uid] for one controller. The zero value
// is not usable; construct with New.
type Tracker struct {
	discardDuplicateGenerations bool
	lastProcessedGen            map[apitypes.UID]int64
}

func New(discardDuplicateGenerations bool) *Tracker {
	return &Tracker{
		discardDuplicateGenerations: discardDuplicateGenerations,
		lastProcessedGen:            make(map[apitypes.UID]int64),
	}
}

// IsAlreadyHandled reports whether uid at generation gen has already been
// reconciled at least that far. If discardDuplicateGenerations is false,
// this always returns false. A gen <= 0 (generation absent on the wire
// object) is never considered already handled.
func (t *Tracker) IsAlreadyHandled(uid apitypes.UID, gen int64) bool {
	if !t.discardDuplicateGenerations {
		return false
	}
	if gen <= 0 {
		return false
	}
	last, ok := t.lastProcessedGen[uid]
	return ok && last >= gen
}

// TrackHandled records that uid has been successfully reconciled through
// generation gen. A gen <= 0 is a no-op (nothing to suppress later).
func (t *Tracker) TrackHandled(uid apitypes.UID, gen int64) {
	if gen <= 0 {
		return
	}
	t.lastProcessedGen[uid] = gen
}

// TrackDeleted forgets uid entirely, e.g. after its finalizer has been
// removed and the resource is gone for good.
func (t *Tracker) TrackDeleted(uid apitypes.UID) {
	delete(t.lastProcessedGen, uid)
}
