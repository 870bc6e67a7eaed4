/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package resource

import (
	"github.com/pkg/errors"
	"github.com/sap/go-generics/slices"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apitypes "k8s.io/apimachinery/pkg/types"
)

// Object is the wire shape of a custom resource: an untyped JSON tree with
// mandatory metadata. *unstructured.Unstructured implements metav1.Object,
// so generation, uid, deletionTimestamp and finalizers are all reachable
// through the standard accessors.
type Object = unstructured.Unstructured

// HasFinalizer reports whether obj carries the given finalizer token.
func HasFinalizer(obj metav1.Object, finalizer string) bool {
	return slices.Contains(obj.GetFinalizers(), finalizer)
}

// AddFinalizer appends finalizer to obj's finalizer list if not already
// present. Returns true if the list was changed.
func AddFinalizer(obj metav1.Object, finalizer string) bool {
	if HasFinalizer(obj, finalizer) {
		return false
	}
	obj.SetFinalizers(append(obj.GetFinalizers(), finalizer))
	return true
}

// RemoveFinalizer removes finalizer from obj's finalizer list. Returns true
// if the list was changed.
func RemoveFinalizer(obj metav1.Object, finalizer string) bool {
	if !HasFinalizer(obj, finalizer) {
		return false
	}
	obj.SetFinalizers(slices.Remove(obj.GetFinalizers(), finalizer))
	return true
}

// IsMarkedForDeletion reports whether obj's deletionTimestamp is set, i.e.
// the API server is waiting for finalizers to clear before garbage
// collecting it.
func IsMarkedForDeletion(obj metav1.Object) bool {
	ts := obj.GetDeletionTimestamp()
	return ts != nil && !ts.IsZero()
}

// Key renders the namespace/name identity of obj the way it is used in log
// lines and as a map key for per-resource state.
func Key(obj metav1.Object) apitypes.NamespacedName {
	return apitypes.NamespacedName{Namespace: obj.GetNamespace(), Name: obj.GetName()}
}

// DecodeInto converts the whole Object into a typed Go value T, for callers
// that prefer a typed view over the unstructured map; T selects spec, status
// or metadata through its own fields (e.g. a `json:"spec"` field). It is a thin convenience layer; the core never requires
// user code to go through it.
func DecodeInto[T any](obj *Object) (T, error) {
	var out T
	if obj == nil {
		return out, errors.New("resource is nil")
	}
	if err := runtimeConvert(obj.Object, &out); err != nil {
		return out, errors.Wrap(err, "error decoding resource")
	}
	return out, nil
}
