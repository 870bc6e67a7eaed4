/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/record"

	"github.com/sap/component-operator-runtime/internal/events"
	"github.com/sap/component-operator-runtime/internal/metrics"
	ioclient "github.com/sap/component-operator-runtime/pkg/client"
	"github.com/sap/component-operator-runtime/pkg/controller"
	"github.com/sap/component-operator-runtime/pkg/operator"
	"github.com/sap/component-operator-runtime/pkg/resource"
)

const rootUsage = `Run the sample operator binary.

This wires one Controller watching widgets.acme.example/v1 cluster-wide,
registers it with an Operator, and serves Prometheus metrics on
--metrics-addr until interrupted.
`

type rootOptions struct {
	kubeconfig    string
	metricsAddr   string
	labelSelector string
	maxAttempts   int
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "operator",
		Short:        "Sample custom-resource operator",
		Long:         rootUsage,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context())
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&o.kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"), "path to a kubeconfig file; empty means in-cluster config")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", ":8080", "address the /metrics endpoint listens on")
	cmd.Flags().StringVar(&o.labelSelector, "label-selector", "", "label selector restricting which widgets are watched")
	cmd.Flags().IntVar(&o.maxAttempts, "max-attempts", 5, "maximum reconciliation attempts per event before giving up")

	return cmd
}

func (o *rootOptions) run(ctx context.Context) error {
	log := logr.FromContext(ctx)

	restConfig, err := buildRestConfig(o.kubeconfig)
	if err != nil {
		return fmt.Errorf("error building kube config: %w", err)
	}
	dynClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("error building dynamic client: %w", err)
	}
	clnt := ioclient.NewDynamicClient(dynClient)

	recorder, err := newEventRecorder(restConfig, log)
	if err != nil {
		return fmt.Errorf("error building event recorder: %w", err)
	}

	descriptor, err := resource.NewDescriptor("acme.example", "v1", "widgets", "")
	if err != nil {
		return fmt.Errorf("error building resource descriptor: %w", err)
	}

	// ctrl is captured by the AddOrModify closure before it is assigned;
	// the closure only runs once New has returned and ctrl is non-nil.
	var ctrl *controller.Controller
	ctrl = controller.New("widgets", descriptor, clnt, controller.Options{
		AddOrModify: func(ctx context.Context, obj *resource.Object) error {
			return reconcileWidget(ctx, obj, ctrl)
		},
		Delete:      deleteWidget,
		RetryPolicy: retryPolicy(o.maxAttempts),
		Recorder:    recorder,
	})

	op := operator.New()
	if err := op.AddController(ctrl, clnt, "", o.labelSelector); err != nil {
		return fmt.Errorf("error registering controller: %w", err)
	}

	srv := serveMetrics(log, o.metricsAddr)
	defer func() { _ = srv.Close() }()

	log.Info("starting operator", "metricsAddr", o.metricsAddr)
	exitCode, err := op.Start(ctx)
	if err != nil {
		return fmt.Errorf("operator start failed: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("operator terminated with exit code %d", exitCode)
	}
	return nil
}

func serveMetrics(log logr.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "metrics server stopped unexpectedly")
		}
	}()
	return srv
}

func buildRestConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		return rest.InClusterConfig()
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

// newEventRecorder builds a client-go EventRecorder backed by the apiserver's
// core/v1 Events sink and wraps it with the dedup layer, so a conflict
// swallowed on every reconciliation attempt of a hot object doesn't spam the
// object's event list.
func newEventRecorder(restConfig *rest.Config, log logr.Logger) (*events.DeduplicatingRecorder, error) {
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, err
	}
	broadcaster := record.NewBroadcaster()
	broadcaster.StartRecordingToSink(&typedcorev1.EventSinkImpl{Interface: clientset.CoreV1().Events("")})
	broadcaster.StartEventWatcher(func(e *corev1.Event) {
		log.V(2).Info("recorded event", "reason", e.Reason, "object", e.InvolvedObject.Name)
	})
	recorder := broadcaster.NewRecorder(scheme.Scheme, corev1.EventSource{Component: "sample-operator"})
	return events.NewDeduplicatingRecorder(recorder), nil
}

// Execute runs the root command, wiring SIGINT/SIGTERM into ctx cancellation.
// Operator.Start derives its own cancellation from ctx, so a signal winds
// down every watcher the same way an explicit Operator.Stop() call would
// (P8: both paths are idempotent and converge on the Stopped state).
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logr.NewContext(ctx, logr.Discard())
	return newRootCmd().ExecuteContext(ctx)
}
