/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package watcher implements the Event Watcher: one long-lived list+watch
// session per (resource type, namespace-scope, label-selector), forwarding
// decoded events to a Controller. Grounded on the list+watch shape shown by
// client-go's own informer example (cache.NewListWatchFromClient +
// watch.Interface.ResultChan), minus the local cache: the core has no need
// to keep a copy of cluster state, only to funnel deltas to the Controller.
package watcher

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apiwatch "k8s.io/apimachinery/pkg/watch"

	ioclient "github.com/sap/component-operator-runtime/pkg/client"
	"github.com/sap/component-operator-runtime/pkg/event"
	"github.com/sap/component-operator-runtime/pkg/resource"
)

// sessionTimeout is the server-side watch timeout. It is intentionally not
// configurable: a shorter-lived session just means more frequent relists,
// a longer one risks sitting on a half-dead connection.
const sessionTimeout = 60 * time.Minute

// Sink receives decoded events. *controller.Controller.ProcessEvent
// satisfies this signature.
type Sink func(ctx context.Context, e event.Event)

// Watcher is the long-lived list+watch session for one (resource type,
// namespace, label selector) combination.
type Watcher struct {
	descriptor    resource.Descriptor
	namespace     string
	labelSelector string
	client        ioclient.Client
	sink          Sink
}

// New creates a Watcher. An empty namespace means cluster-wide.
func New(descriptor resource.Descriptor, namespace string, labelSelector string, clnt ioclient.Client, sink Sink) *Watcher {
	return &Watcher{
		descriptor:    descriptor,
		namespace:     namespace,
		labelSelector: labelSelector,
		client:        clnt,
		sink:          sink,
	}
}

// Run opens exactly one list+watch session and forwards events until the
// session ends. It returns nil only if ctx was cancelled; any other
// termination (stream error, graceful remote EOF, or the 60-minute
// server-side timeout elapsing) is reported as an error so the Operator can
// treat it as unexpected termination and let the host orchestrator restart
// the process. The Watcher deliberately does not reconnect itself (see the
// design notes: avoids split-brain on persistent connectivity failures).
func (w *Watcher) Run(ctx context.Context) error {
	log := logr.FromContext(ctx).WithValues("resource", w.descriptor.String(), "namespace", w.namespace)
	log.V(1).Info("starting watch session")

	gvr := w.descriptor.GroupVersionResource()
	var wi apiwatch.Interface
	var err error
	if w.namespace == "" {
		wi, err = w.client.ListAndWatchCluster(ctx, gvr, w.labelSelector, sessionTimeout)
	} else {
		wi, err = w.client.ListAndWatchNamespaced(ctx, gvr, w.namespace, w.labelSelector, sessionTimeout)
	}
	if err != nil {
		return errors.Wrap(err, "error starting watch session")
	}
	defer wi.Stop()

	ch := wi.ResultChan()
	for {
		select {
		case <-ctx.Done():
			log.V(1).Info("watch session cancelled")
			return nil
		case rawEvent, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watch stream closed unexpectedly")
			}
			if err := w.deliver(ctx, rawEvent); err != nil {
				log.Error(err, "dropping unparseable watch event")
			}
		}
	}
}

func (w *Watcher) deliver(ctx context.Context, raw apiwatch.Event) error {
	if raw.Type == apiwatch.Error {
		w.sink(ctx, event.Event{Type: event.Error})
		return nil
	}

	obj, ok := raw.Object.(*unstructured.Unstructured)
	if !ok {
		return errors.Errorf("unexpected watch object type %T", raw.Object)
	}

	var typ event.Type
	switch raw.Type {
	case apiwatch.Added:
		typ = event.Added
	case apiwatch.Modified:
		typ = event.Modified
	case apiwatch.Deleted:
		typ = event.Deleted
	case apiwatch.Bookmark:
		typ = event.Bookmark
	default:
		return errors.Errorf("unexpected watch event type %q", raw.Type)
	}

	w.sink(ctx, event.Event{Type: typ, Resource: obj})
	return nil
}
