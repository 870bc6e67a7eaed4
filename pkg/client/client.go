/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

// Package client defines the Kubernetes API surface the core consumes as an
// abstract collaborator (§6 of the design): list+watch, full replace, and
// merge-patch of the status subresource, both cluster-scoped and
// namespaced. The core never talks to the apiserver directly; everything
// goes through this interface, so tests can substitute a fake.
package client

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
)

// Client is the injected Kubernetes client abstraction. cancel is folded
// into ctx, the idiomatic Go way to thread the Operator's single
// cancellation source through a blocking call.
type Client interface {
	// ListAndWatchCluster opens a cluster-scoped list+watch session for the
	// given resource, with a server-side timeout.
	ListAndWatchCluster(ctx context.Context, gvr schema.GroupVersionResource, labelSelector string, timeout time.Duration) (watch.Interface, error)
	// ListAndWatchNamespaced opens a namespaced list+watch session.
	ListAndWatchNamespaced(ctx context.Context, gvr schema.GroupVersionResource, namespace string, labelSelector string, timeout time.Duration) (watch.Interface, error)
	// ReplaceCluster performs a full replace (PUT) of a cluster-scoped
	// object, relying on server-side optimistic concurrency.
	ReplaceCluster(ctx context.Context, gvr schema.GroupVersionResource, name string, body *unstructured.Unstructured) (*unstructured.Unstructured, error)
	// ReplaceNamespaced performs a full replace of a namespaced object.
	ReplaceNamespaced(ctx context.Context, gvr schema.GroupVersionResource, namespace string, name string, body *unstructured.Unstructured) (*unstructured.Unstructured, error)
	// PatchClusterStatus applies a JSON merge-patch to the status
	// subresource of a cluster-scoped object.
	PatchClusterStatus(ctx context.Context, gvr schema.GroupVersionResource, name string, mergePatch []byte, fieldManager string) (*unstructured.Unstructured, error)
	// PatchNamespacedStatus applies a JSON merge-patch to the status
	// subresource of a namespaced object.
	PatchNamespacedStatus(ctx context.Context, gvr schema.GroupVersionResource, namespace string, name string, mergePatch []byte, fieldManager string) (*unstructured.Unstructured, error)
}
