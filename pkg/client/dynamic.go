/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"time"

	"github.com/pkg/errors"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	apitypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
)

// DynamicClient implements Client against a real apiserver using a
// generic (unstructured) dynamic client, so the core stays agnostic of any
// particular CRD's Go type. This mirrors the posture of the teacher's
// pkg/cluster.Client adapter, minus the controller-runtime cache layer the
// core has no use for.
type DynamicClient struct {
	dynamic dynamic.Interface
}

var _ Client = &DynamicClient{}

// NewDynamicClient wraps an already-constructed dynamic.Interface (built
// from a rest.Config via dynamic.NewForConfig).
func NewDynamicClient(dyn dynamic.Interface) *DynamicClient {
	return &DynamicClient{dynamic: dyn}
}

func (c *DynamicClient) ListAndWatchCluster(ctx context.Context, gvr schema.GroupVersionResource, labelSelector string, timeout time.Duration) (watch.Interface, error) {
	w, err := c.dynamic.Resource(gvr).Watch(ctx, listOptions(labelSelector, timeout))
	return w, errors.Wrapf(err, "error watching %s", gvr)
}

func (c *DynamicClient) ListAndWatchNamespaced(ctx context.Context, gvr schema.GroupVersionResource, namespace string, labelSelector string, timeout time.Duration) (watch.Interface, error) {
	w, err := c.dynamic.Resource(gvr).Namespace(namespace).Watch(ctx, listOptions(labelSelector, timeout))
	return w, errors.Wrapf(err, "error watching %s in namespace %s", gvr, namespace)
}

func (c *DynamicClient) ReplaceCluster(ctx context.Context, gvr schema.GroupVersionResource, name string, body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	obj, err := c.dynamic.Resource(gvr).Update(ctx, body, metav1.UpdateOptions{})
	return obj, errors.Wrapf(err, "error replacing %s %s", gvr, name)
}

func (c *DynamicClient) ReplaceNamespaced(ctx context.Context, gvr schema.GroupVersionResource, namespace string, name string, body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	obj, err := c.dynamic.Resource(gvr).Namespace(namespace).Update(ctx, body, metav1.UpdateOptions{})
	return obj, errors.Wrapf(err, "error replacing %s %s/%s", gvr, namespace, name)
}

func (c *DynamicClient) PatchClusterStatus(ctx context.Context, gvr schema.GroupVersionResource, name string, mergePatch []byte, fieldManager string) (*unstructured.Unstructured, error) {
	obj, err := c.dynamic.Resource(gvr).Patch(ctx, name, apitypes.MergePatchType, mergePatch, patchOptions(fieldManager), "status")
	return obj, errors.Wrapf(err, "error patching status of %s %s", gvr, name)
}

func (c *DynamicClient) PatchNamespacedStatus(ctx context.Context, gvr schema.GroupVersionResource, namespace string, name string, mergePatch []byte, fieldManager string) (*unstructured.Unstructured, error) {
	obj, err := c.dynamic.Resource(gvr).Namespace(namespace).Patch(ctx, name, apitypes.MergePatchType, mergePatch, patchOptions(fieldManager), "status")
	return obj, errors.Wrapf(err, "error patching status of %s %s/%s", gvr, namespace, name)
}

func listOptions(labelSelector string, timeout time.Duration) metav1.ListOptions {
	opts := metav1.ListOptions{LabelSelector: labelSelector}
	if timeout > 0 {
		seconds := int64(timeout.Seconds())
		opts.TimeoutSeconds = &seconds
	}
	return opts
}

func patchOptions(fieldManager string) metav1.PatchOptions {
	opts := metav1.PatchOptions{}
	if fieldManager != "" {
		opts.FieldManager = fieldManager
	}
	return opts
}
