/*
SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package events

import (
	"fmt"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
)

// Object is the minimum shape the recorder needs from a reconciled
// resource: enough identity for dedup and a runtime.Object for the
// underlying client-go recorder. *unstructured.Unstructured satisfies this.
type Object interface {
	metav1.Object
	runtime.Object
}

// DeduplicatingRecorder wraps a client-go EventRecorder and drops events that
// are identical (by annotations, type, reason and message) to the last event
// emitted for the same object uid within the dedup window. Only that last
// event is remembered per uid, so an event that differs from it is emitted
// even if an identical one was emitted earlier in the window.
type DeduplicatingRecorder struct {
	recorder record.EventRecorder
	mutex    sync.Mutex
	events   map[string]event
}

type event struct {
	digest    string
	timestamp time.Time
}

func NewDeduplicatingRecorder(recorder record.EventRecorder) *DeduplicatingRecorder {
	return &DeduplicatingRecorder{
		recorder: recorder,
		events:   make(map[string]event),
	}
}

func (r *DeduplicatingRecorder) Event(object Object, eventType string, reason string, message string) {
	if r.isDuplicate(object, nil, eventType, reason, message) {
		return
	}
	r.recorder.Event(object, eventType, reason, message)
}

func (r *DeduplicatingRecorder) Eventf(object Object, eventType string, reason string, messageFmt string, args ...any) {
	if r.isDuplicate(object, nil, eventType, reason, fmt.Sprintf(messageFmt, args...)) {
		return
	}
	r.recorder.Eventf(object, eventType, reason, messageFmt, args...)
}

func (r *DeduplicatingRecorder) AnnotatedEventf(object Object, annotations map[string]string, eventType string, reason string, messageFmt string, args ...any) {
	if r.isDuplicate(object, annotations, eventType, reason, fmt.Sprintf(messageFmt, args...)) {
		return
	}
	r.recorder.AnnotatedEventf(object, annotations, eventType, reason, messageFmt, args...)
}

func (r *DeduplicatingRecorder) isDuplicate(object metav1.Object, annotations map[string]string, eventType, reason, message string) bool {
	uid := string(object.GetUID())
	digest := calculateDigest(annotations, eventType, reason, message)
	now := time.Now()
	exp := now.Add(-5 * time.Minute)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for uid, event := range r.events {
		if event.timestamp.Before(exp) {
			delete(r.events, uid)
		}
	}
	if r.events[uid].digest == digest {
		return true
	}
	r.events[uid] = event{
		digest:    digest,
		timestamp: now,
	}
	return false
}
