/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package tracker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sap/component-operator-runtime/internal/tracker"
)

var _ = Describe("testing: tracker.go", func() {
	Context("testing: IsAlreadyHandled() and TrackHandled(), discarding enabled", func() {
		var t *tracker.Tracker

		BeforeEach(func() {
			t = tracker.New(true)
		})

		It("should not consider an unseen uid already handled", func() {
			Expect(t.IsAlreadyHandled("foo", 1)).To(BeFalse())
		})

		It("should suppress a generation at or below the last handled one", func() {
			t.TrackHandled("foo", 3)
			Expect(t.IsAlreadyHandled("foo", 3)).To(BeTrue())
			Expect(t.IsAlreadyHandled("foo", 2)).To(BeTrue())
		})

		It("should not suppress a newer generation", func() {
			t.TrackHandled("foo", 3)
			Expect(t.IsAlreadyHandled("foo", 4)).To(BeFalse())
		})

		It("should never suppress a non-positive generation", func() {
			t.TrackHandled("foo", 3)
			Expect(t.IsAlreadyHandled("foo", 0)).To(BeFalse())
			Expect(t.IsAlreadyHandled("foo", -1)).To(BeFalse())
		})

		It("should forget a uid once tracked as deleted", func() {
			t.TrackHandled("foo", 3)
			t.TrackDeleted("foo")
			Expect(t.IsAlreadyHandled("foo", 3)).To(BeFalse())
		})
	})

	Context("testing: IsAlreadyHandled(), discarding disabled", func() {
		It("should always report false regardless of tracked generations", func() {
			t := tracker.New(false)
			t.TrackHandled("foo", 3)
			Expect(t.IsAlreadyHandled("foo", 3)).To(BeFalse())
		})
	})
})
