/*
SPDX-FileCopyrightText: 2023 SAP SE or an SAP affiliate company and component-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package operator_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sap/component-operator-runtime/pkg/controller"
	"github.com/sap/component-operator-runtime/pkg/operator"
	"github.com/sap/component-operator-runtime/pkg/resource"
)

func newTestDescriptor() resource.Descriptor {
	d, err := resource.NewDescriptor("acme.example", "v1", "widgets", "")
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("testing: operator.go", func() {
	Context("testing: State() lifecycle", func() {
		It("should start out New", func() {
			op := operator.New()
			Expect(op.State()).To(Equal(operator.StateNew))
		})
	})

	Context("testing: AddController() usage errors", func() {
		It("should reject a nil controller", func() {
			op := operator.New()
			err := op.AddController(nil, newFakeWatchClient(), "", "")
			Expect(err).To(HaveOccurred())
		})

		It("should reject registration after Start", func() {
			op := operator.New()
			clnt := newFakeWatchClient()
			ctrl := controller.New("widgets", newTestDescriptor(), clnt, controller.Options{})
			Expect(op.AddController(ctrl, clnt, "", "")).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				_, _ = op.Start(ctx)
				close(done)
			}()
			Eventually(func() operator.State { return op.State() }).Should(Equal(operator.StateRunning))

			err := op.AddController(ctrl, clnt, "", "")
			Expect(err).To(HaveOccurred())

			cancel()
			Eventually(done).Should(BeClosed())
		})
	})

	Context("testing: Start() with no registered controllers", func() {
		It("should return immediately with exit code 0", func() {
			op := operator.New()
			code, err := op.Start(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(0))
			Expect(op.State()).To(Equal(operator.StateStopped))
		})
	})

	Context("testing: Start() called twice", func() {
		It("should reject the second call as a usage error", func() {
			op := operator.New()
			_, err := op.Start(context.Background())
			Expect(err).NotTo(HaveOccurred())
			_, err = op.Start(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	Context("testing: Stop() idempotence (P8)", func() {
		It("should be a harmless no-op before Start", func() {
			op := operator.New()
			Expect(func() { op.Stop() }).NotTo(Panic())
			Expect(op.State()).To(Equal(operator.StateNew))
		})

		It("should cancel a running operator and tolerate repeated calls", func() {
			op := operator.New()
			clnt := newFakeWatchClient()
			ctrl := controller.New("widgets", newTestDescriptor(), clnt, controller.Options{})
			Expect(op.AddController(ctrl, clnt, "", "")).To(Succeed())

			resultCh := make(chan int, 1)
			go func() {
				code, err := op.Start(context.Background())
				Expect(err).NotTo(HaveOccurred())
				resultCh <- code
			}()
			Eventually(func() operator.State { return op.State() }).Should(Equal(operator.StateRunning))

			op.Stop()
			op.Stop()
			op.Stop()

			var code int
			Eventually(resultCh, time.Second).Should(Receive(&code))
			Expect(code).To(Equal(0))
			Expect(op.State()).To(Equal(operator.StateStopped))
		})
	})

	Context("testing: a watcher failure stops the whole operator", func() {
		It("should return exit code 1 when a watch stream closes unexpectedly", func() {
			op := operator.New()
			clnt := newFakeWatchClient()
			ctrl := controller.New("widgets", newTestDescriptor(), clnt, controller.Options{})
			Expect(op.AddController(ctrl, clnt, "", "")).To(Succeed())

			resultCh := make(chan int, 1)
			go func() {
				code, err := op.Start(context.Background())
				Expect(err).NotTo(HaveOccurred())
				resultCh <- code
			}()

			Eventually(func() bool {
				select {
				case fw := <-clnt.watchers:
					fw.Stop()
					return true
				default:
					return false
				}
			}, time.Second).Should(BeTrue())

			var code int
			Eventually(resultCh, time.Second).Should(Receive(&code))
			Expect(code).To(Equal(1))
		})
	})
})
