package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		ctx context.Context
		bus *events.EventBus
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(logger.Discard())
	})

	It("delivers only to handlers of the published type", func() {
		var created, updated int32
		bus.Subscribe(events.EventTypeProfileCreated, func(context.Context, events.Event) error {
			atomic.AddInt32(&created, 1)
			return nil
		})
		bus.Subscribe(events.EventTypeProfileUpdated, func(context.Context, events.Event) error {
			atomic.AddInt32(&updated, 1)
			return nil
		})

		Expect(bus.PublishSync(ctx, events.NewProfileChangedEvent(events.EventTypeProfileCreated, "p-1"))).To(Succeed())

		Expect(atomic.LoadInt32(&created)).To(Equal(int32(1)))
		Expect(atomic.LoadInt32(&updated)).To(Equal(int32(0)))
	})

	It("stops delivering after unsubscribe", func() {
		var calls int32
		unsubscribe := bus.Subscribe(events.EventTypeProfileUpdated, func(context.Context, events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		Expect(bus.PublishSync(ctx, events.NewProfileChangedEvent(events.EventTypeProfileUpdated, "p-1"))).To(Succeed())
		unsubscribe()
		unsubscribe()
		Expect(bus.PublishSync(ctx, events.NewProfileChangedEvent(events.EventTypeProfileUpdated, "p-1"))).To(Succeed())

		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
	})

	It("joins handler errors on synchronous publish", func() {
		boom := errors.New("boom")
		var second int32
		bus.Subscribe(events.EventTypeCreditRequestApproved, func(context.Context, events.Event) error { return boom })
		bus.Subscribe(events.EventTypeCreditRequestApproved, func(context.Context, events.Event) error {
			atomic.AddInt32(&second, 1)
			return nil
		})

		err := bus.PublishSync(ctx, events.NewCreditRequestApprovedEvent("r-1", "a-1", "e-1", 40, "lead-1"))
		Expect(err).To(MatchError(boom))
		Expect(atomic.LoadInt32(&second)).To(Equal(int32(1)))
	})

	It("runs asynchronous handlers after the caller's context is cancelled", func() {
		var seen atomic.Value
		bus.Subscribe(events.EventTypeCreditRequestApproved, func(hctx context.Context, e events.Event) error {
			seen.Store(hctx.Err() == nil)
			return nil
		})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(bus.Publish(cctx, events.NewCreditRequestApprovedEvent("r-1", "a-1", "e-1", 40, "lead-1"))).To(Succeed())
		bus.Wait()

		Expect(seen.Load()).To(Equal(true))
	})

	It("carries typed payload fields", func() {
		e := events.NewCreditRequestApprovedEvent("r-1", "a-1", "e-1", 40, "lead-1")
		Expect(e.EventType()).To(Equal(events.EventTypeCreditRequestApproved))
		Expect(e.Payload()).To(HaveKeyWithValue("assignment_id", "a-1"))
		Expect(e.EventID()).NotTo(BeEmpty())
	})
})
