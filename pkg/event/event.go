/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package event defines the watch-event shape that flows from an Event
// Watcher into a Controller.
package event

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apitypes "k8s.io/apimachinery/pkg/types"
)

// Type is the kind of change a watch session observed.
type Type string

const (
	Added    Type = "ADDED"
	Modified Type = "MODIFIED"
	Deleted  Type = "DELETED"
	Bookmark Type = "BOOKMARK"
	Error    Type = "ERROR"
)

// Event is a single observation delivered by a Watcher. Identity for
// queueing purposes is Resource.GetUID(); events are handed off by value,
// never shared mutably across components.
type Event struct {
	Type     Type
	Resource *unstructured.Unstructured
}

// UID returns the queueing identity of the event, or the empty UID if the
// event carries no resource (as is the case for Error events).
func (e Event) UID() apitypes.UID {
	if e.Resource == nil {
		return ""
	}
	return e.Resource.GetUID()
}
