/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package operator implements the Operator root: registration of
// Controllers, concurrent start of their Watchers, and a single
// cancellation source shared by everything underneath. See §4.6 of the
// design.
package operator

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	ioclient "github.com/sap/component-operator-runtime/pkg/client"
	"github.com/sap/component-operator-runtime/pkg/controller"
	"github.com/sap/component-operator-runtime/pkg/watcher"
)

// State is one of the Operator's lifecycle states.
type State int

const (
	StateNew State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

type registration struct {
	controller *controller.Controller
	watcher    *watcher.Watcher
}

// Operator owns every Watcher and Controller registered with it, and the
// single cancellation source they all observe read-only.
type Operator struct {
	mutex         sync.Mutex
	state         State
	registrations []registration
	cancel        context.CancelFunc
}

// New creates an Operator in the New state.
func New() *Operator {
	return &Operator{state: StateNew}
}

// State returns the Operator's current lifecycle state.
func (o *Operator) State() State {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.state
}

// AddController registers a Controller together with the client, namespace
// scope and label selector its Watcher should use. Allowed only while the
// Operator is in the New state.
func (o *Operator) AddController(ctrl *controller.Controller, clnt ioclient.Client, namespace string, labelSelector string) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.state != StateNew {
		return errors.New("usage error: addController is only allowed before start")
	}
	if ctrl == nil {
		return errors.New("usage error: controller must not be nil")
	}

	w := watcher.New(ctrl.Descriptor(), namespace, labelSelector, clnt, ctrl.ProcessEvent)
	o.registrations = append(o.registrations, registration{controller: ctrl, watcher: w})
	return nil
}

// Start transitions the Operator to Running and spawns one goroutine per
// registered Watcher. If no controllers were registered, it returns
// immediately with exit code 0. Otherwise it blocks until every watcher
// goroutine has returned: a watcher returning a non-nil error (unexpected
// termination) cancels the shared context via errgroup, so the remaining
// watchers wind down too. Returns exit code 1 iff any watcher terminated
// unexpectedly while Running, 0 otherwise. A non-nil error return means a
// usage/registration error, not a reconciliation outcome.
func (o *Operator) Start(ctx context.Context) (int, error) {
	o.mutex.Lock()
	if o.state != StateNew {
		o.mutex.Unlock()
		return 0, errors.New("usage error: start must not be called more than once")
	}
	o.state = StateRunning
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	regs := append([]registration(nil), o.registrations...)
	o.mutex.Unlock()

	log := logr.FromContext(ctx)

	if len(regs) == 0 {
		log.V(1).Info("no controllers registered; exiting")
		o.finish()
		return 0, nil
	}

	var failuresMutex sync.Mutex
	var failures []error
	g, gctx := errgroup.WithContext(runCtx)
	for _, r := range regs {
		r := r
		g.Go(func() error {
			err := r.watcher.Run(gctx)
			if err != nil {
				err = errors.Wrapf(err, "watcher for %s terminated unexpectedly", r.controller.Descriptor().String())
				failuresMutex.Lock()
				failures = append(failures, err)
				failuresMutex.Unlock()
				log.Error(err, "watcher terminated unexpectedly", "controller", r.controller.Descriptor().String())
			}
			return err
		})
	}
	_ = g.Wait()

	o.finish()
	if agg := utilerrors.NewAggregate(failures); agg != nil {
		log.Error(agg, "operator stopped due to one or more watcher failures", "count", len(failures))
		return 1, nil
	}
	return 0, nil
}

func (o *Operator) finish() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.state != StateStopped {
		o.state = StateStopped
	}
}

// Stop signals cancellation to every watcher and in-flight reconciliation.
// Idempotent (P8): calling it more than once, or before Start, has the
// effect of at most one cancellation and never panics.
func (o *Operator) Stop() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.state == StateStopped || o.state == StateStopping {
		return
	}
	if o.state == StateRunning {
		o.state = StateStopping
	}
	if o.cancel != nil {
		o.cancel()
	}
}
