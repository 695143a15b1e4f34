package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/zhar/internal/scheduler"
	"github.com/frahmantamala/zhar/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestScheduler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scheduler Suite")
}

type fakeSessions struct {
	mu         sync.Mutex
	sweeps     int
	purges     int
	retentions []time.Duration
	purgeErr   error
}

func (f *fakeSessions) Sweep(context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 1
}

func (f *fakeSessions) PurgeExpiredSessions(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges++
	f.retentions = append(f.retentions, retention)
	return 2, f.purgeErr
}

func (f *fakeSessions) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps, f.purges
}

var _ = Describe("SessionSweepJob", func() {
	var sessions *fakeSessions

	BeforeEach(func() {
		sessions = &fakeSessions{}
	})

	It("sweeps memory then purges stored sessions with the retention", func() {
		job := scheduler.NewSessionSweepJob(sessions, sessions, time.Minute, 48*time.Hour, logger.Discard())
		job.Execute(context.Background())

		sweeps, purges := sessions.counts()
		Expect(sweeps).To(Equal(1))
		Expect(purges).To(Equal(1))
		Expect(sessions.retentions).To(Equal([]time.Duration{48 * time.Hour}))
	})

	It("still sweeps when the purge fails", func() {
		sessions.purgeErr = errors.New("db down")
		job := scheduler.NewSessionSweepJob(sessions, sessions, time.Minute, time.Hour, logger.Discard())

		Expect(func() { job.Execute(context.Background()) }).NotTo(Panic())
		sweeps, _ := sessions.counts()
		Expect(sweeps).To(Equal(1))
	})
})

var _ = Describe("Manager", func() {
	It("runs registered jobs until stopped", func() {
		sessions := &fakeSessions{}
		m, err := scheduler.NewManager(logger.Discard())
		Expect(err).NotTo(HaveOccurred())

		job := scheduler.NewSessionSweepJob(sessions, sessions, 20*time.Millisecond, time.Hour, logger.Discard())
		Expect(m.Register(job)).To(Succeed())
		m.Start()

		Eventually(func() int {
			sweeps, _ := sessions.counts()
			return sweeps
		}, 2*time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 2))

		Expect(m.Stop()).To(Succeed())
		stopped, _ := sessions.counts()
		Consistently(func() int {
			sweeps, _ := sessions.counts()
			return sweeps
		}, 100*time.Millisecond, 20*time.Millisecond).Should(Equal(stopped))
	})
})
