/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package controller_test

import (
	"context"
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"

	ioclient "github.com/sap/component-operator-runtime/pkg/client"
)

// fakeClient is a minimal in-memory stand-in for pkg/client.Client, enough
// to exercise the Controller's replace and status-patch call sites. List+
// watch is never invoked by the Controller directly (that's the Watcher's
// job), so it panics if called.
type fakeClient struct {
	mutex sync.Mutex

	replaceCalls int
	patchCalls   int
	conflictOnce bool // if set, the next replace call fails with a conflict, then clears itself
	lastReplaced *unstructured.Unstructured
}

var _ ioclient.Client = &fakeClient{}

func (c *fakeClient) ListAndWatchCluster(ctx context.Context, gvr schema.GroupVersionResource, labelSelector string, timeout time.Duration) (watch.Interface, error) {
	panic("not used by the controller under test")
}

func (c *fakeClient) ListAndWatchNamespaced(ctx context.Context, gvr schema.GroupVersionResource, namespace string, labelSelector string, timeout time.Duration) (watch.Interface, error) {
	panic("not used by the controller under test")
}

func (c *fakeClient) ReplaceCluster(ctx context.Context, gvr schema.GroupVersionResource, name string, body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return c.replace(body)
}

func (c *fakeClient) ReplaceNamespaced(ctx context.Context, gvr schema.GroupVersionResource, namespace string, name string, body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	return c.replace(body)
}

func (c *fakeClient) replace(body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.replaceCalls++
	if c.conflictOnce {
		c.conflictOnce = false
		return nil, apierrors.NewConflict(schema.GroupResource{Group: "acme.example", Resource: "widgets"}, body.GetName(), nil)
	}
	c.lastReplaced = body.DeepCopy()
	return c.lastReplaced, nil
}

func (c *fakeClient) PatchClusterStatus(ctx context.Context, gvr schema.GroupVersionResource, name string, mergePatch []byte, fieldManager string) (*unstructured.Unstructured, error) {
	return c.patchStatus()
}

func (c *fakeClient) PatchNamespacedStatus(ctx context.Context, gvr schema.GroupVersionResource, namespace string, name string, mergePatch []byte, fieldManager string) (*unstructured.Unstructured, error) {
	return c.patchStatus()
}

func (c *fakeClient) patchStatus() (*unstructured.Unstructured, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.patchCalls++
	return &unstructured.Unstructured{}, nil
}

func (c *fakeClient) counts() (replace int, patch int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.replaceCalls, c.patchCalls
}
