/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package resource_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/sap/component-operator-runtime/pkg/resource"
)

func newWidget() *resource.Object {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "acme.example/v1",
		"kind":       "Widget",
		"metadata": map[string]any{
			"name":       "foo",
			"namespace":  "default",
			"generation": int64(1),
		},
		"spec": map[string]any{
			"size": "large",
		},
	}}
}

var _ = Describe("testing: resource.go", func() {
	Context("testing: HasFinalizer(), AddFinalizer(), RemoveFinalizer()", func() {
		It("should report false on an object without finalizers", func() {
			obj := newWidget()
			Expect(resource.HasFinalizer(obj, "f")).To(BeFalse())
		})

		It("should add a finalizer exactly once", func() {
			obj := newWidget()
			Expect(resource.AddFinalizer(obj, "f")).To(BeTrue())
			Expect(resource.AddFinalizer(obj, "f")).To(BeFalse())
			Expect(obj.GetFinalizers()).To(Equal([]string{"f"}))
		})

		It("should remove a finalizer, leaving unrelated ones intact", func() {
			obj := newWidget()
			obj.SetFinalizers([]string{"a", "f", "b"})
			Expect(resource.RemoveFinalizer(obj, "f")).To(BeTrue())
			Expect(obj.GetFinalizers()).To(Equal([]string{"a", "b"}))
			Expect(resource.RemoveFinalizer(obj, "f")).To(BeFalse())
		})
	})

	Context("testing: IsMarkedForDeletion()", func() {
		It("should report false when deletionTimestamp is unset", func() {
			Expect(resource.IsMarkedForDeletion(newWidget())).To(BeFalse())
		})

		It("should report true once deletionTimestamp is set", func() {
			obj := newWidget()
			now := metav1.NewTime(time.Now())
			obj.SetDeletionTimestamp(&now)
			Expect(resource.IsMarkedForDeletion(obj)).To(BeTrue())
		})
	})

	Context("testing: Key()", func() {
		It("should extract namespace and name", func() {
			key := resource.Key(newWidget())
			Expect(key.Namespace).To(Equal("default"))
			Expect(key.Name).To(Equal("foo"))
		})
	})

	Context("testing: DecodeInto()", func() {
		type widgetSpec struct {
			Spec struct {
				Size string `json:"size"`
			} `json:"spec"`
		}

		It("should decode the unstructured tree into a typed value", func() {
			v, err := resource.DecodeInto[widgetSpec](newWidget())
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Spec.Size).To(Equal("large"))
		})

		It("should error on a nil resource", func() {
			_, err := resource.DecodeInto[widgetSpec](nil)
			Expect(err).To(HaveOccurred())
		})
	})
})
