/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apitypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/sap/component-operator-runtime/internal/queue"
	"github.com/sap/component-operator-runtime/pkg/event"
)

func evt(uid apitypes.UID) event.Event {
	return event.Event{
		Type: event.Added,
		Resource: &unstructured.Unstructured{Object: map[string]any{
			"metadata": map[string]any{"uid": string(uid)},
		}},
	}
}

var _ = Describe("testing: queue.go", func() {
	var q *queue.Queue

	BeforeEach(func() {
		q = queue.New()
	})

	Context("testing: Enqueue() and Dequeue()", func() {
		It("should return false when nothing is pending", func() {
			_, ok := q.Dequeue("foo")
			Expect(ok).To(BeFalse())
		})

		It("should hand back an enqueued event", func() {
			q.Enqueue(evt("foo"))
			e, ok := q.Dequeue("foo")
			Expect(ok).To(BeTrue())
			Expect(e.UID()).To(Equal(apitypes.UID("foo")))
		})

		It("should coalesce repeated enqueues of the same uid into one pending event", func() {
			first := evt("foo")
			second := evt("foo")
			second.Resource.Object["spec"] = map[string]any{"size": "xl"}
			q.Enqueue(first)
			q.Enqueue(second)
			e, ok := q.Dequeue("foo")
			Expect(ok).To(BeTrue())
			Expect(e.Resource.Object["spec"]).To(Equal(second.Resource.Object["spec"]))
			_, ok = q.Dequeue("foo")
			Expect(ok).To(BeFalse())
		})

		It("should not let two different uids interfere", func() {
			q.Enqueue(evt("foo"))
			q.Enqueue(evt("bar"))
			_, ok := q.Dequeue("foo")
			Expect(ok).To(BeTrue())
			_, ok = q.Dequeue("bar")
			Expect(ok).To(BeTrue())
		})
	})

	Context("testing: BeginHandle() and EndHandle()", func() {
		It("should refuse to dequeue while the uid is marked as handling", func() {
			e := evt("foo")
			q.BeginHandle(e)
			q.Enqueue(evt("foo"))
			_, ok := q.Dequeue("foo")
			Expect(ok).To(BeFalse())
		})

		It("should allow dequeue again once handling ends", func() {
			e := evt("foo")
			q.BeginHandle(e)
			q.Enqueue(evt("foo"))
			q.EndHandle(e)
			_, ok := q.Dequeue("foo")
			Expect(ok).To(BeTrue())
		})
	})

	Context("testing: Peek()", func() {
		It("should observe a pending event without consuming it", func() {
			q.Enqueue(evt("foo"))
			_, ok := q.Peek("foo")
			Expect(ok).To(BeTrue())
			_, ok = q.Dequeue("foo")
			Expect(ok).To(BeTrue())
		})
	})
})
