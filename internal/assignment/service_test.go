package assignment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/zhar/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/zhar/internal/assignment/postgres"
	"github.com/frahmantamala/zhar/internal/core/common/dbtest"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/profile"
	profilePostgres "github.com/frahmantamala/zhar/internal/profile/postgres"
	"github.com/frahmantamala/zhar/internal/project"
	projectPostgres "github.com/frahmantamala/zhar/internal/project/postgres"
	"github.com/frahmantamala/zhar/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestAssignment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Assignment Suite")
}

var _ = Describe("Status", func() {
	It("walks forward one step at a time", func() {
		next, ok := assignment.StatusNotStarted.Next()
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(assignment.StatusInProgress))

		next, _ = next.Next()
		Expect(next).To(Equal(assignment.StatusReadyForReview))

		next, _ = next.Next()
		Expect(next).To(Equal(assignment.StatusCompleted))

		_, ok = next.Next()
		Expect(ok).To(BeFalse())
	})

	It("parses known values only", func() {
		_, err := assignment.ParseStatus("done")
		Expect(err).To(HaveOccurred())
		s, err := assignment.ParseStatus("ready_for_review")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.IsActive()).To(BeTrue())
	})
})

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		db  *gorm.DB
		svc *assignment.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = dbtest.OpenSchema()
		Expect(err).NotTo(HaveOccurred())

		Expect(dbtest.SeedProfile(db, "emp-1", "Eve", "employee", "Web Development")).To(Succeed())
		Expect(dbtest.SeedProfile(db, "emp-2", "Sam", "employee", "Web Development")).To(Succeed())
		Expect(dbtest.SeedProfile(db, "admin-1", "Ada", "admin", "")).To(Succeed())
		Expect(dbtest.SeedProject(db, "proj-1", "Website", 40)).To(Succeed())

		projects := project.NewService(projectPostgres.NewRepository(db), logger.Discard())
		profiles := profile.NewService(profilePostgres.NewRepository(db), nil, nil, logger.Discard())
		svc = assignment.NewService(assignmentPostgres.NewRepository(db), projects, profiles, logger.Discard())
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	assign := func(employeeID string) *assignment.Assignment {
		a, err := svc.Assign(ctx, "lead-1", assignment.AssignDTO{ProjectID: "proj-1", EmployeeID: employeeID})
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	Describe("Assign", func() {
		It("starts not_started with zero progress", func() {
			a := assign("emp-1")
			Expect(a.Status).To(Equal(assignment.StatusNotStarted))
			Expect(a.Progress).To(BeZero())
			Expect(*a.AssignedBy).To(Equal("lead-1"))
		})

		It("reports a duplicate assignment as a conflict", func() {
			assign("emp-1")
			_, err := svc.Assign(ctx, "lead-1", assignment.AssignDTO{ProjectID: "proj-1", EmployeeID: "emp-1"})
			Expect(errors.Is(err, assignment.ErrAlreadyAssigned)).To(BeTrue())
		})

		It("refuses unknown projects and admins", func() {
			_, err := svc.Assign(ctx, "lead-1", assignment.AssignDTO{ProjectID: "nope", EmployeeID: "emp-1"})
			Expect(errors.Is(err, project.ErrProjectNotFound)).To(BeTrue())

			_, err = svc.Assign(ctx, "lead-1", assignment.AssignDTO{ProjectID: "proj-1", EmployeeID: "admin-1"})
			Expect(errors.Is(err, assignment.ErrNotAssignable)).To(BeTrue())
		})
	})

	Describe("Advance", func() {
		It("reaches completed after three steps and then stays put", func() {
			a := assign("emp-1")

			expected := []assignment.Status{
				assignment.StatusInProgress,
				assignment.StatusReadyForReview,
				assignment.StatusCompleted,
			}
			for _, want := range expected {
				got, err := svc.Advance(ctx, "emp-1", a.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Status).To(Equal(want))
			}

			before, err := svc.Get(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(before.Progress).To(Equal(100))

			after, err := svc.Advance(ctx, "emp-1", a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Status).To(Equal(assignment.StatusCompleted))
			Expect(after.UpdatedAt).To(Equal(before.UpdatedAt))
		})

		It("is reserved to the owner", func() {
			a := assign("emp-1")
			_, err := svc.Advance(ctx, "emp-2", a.ID)
			Expect(errors.Is(err, assignment.ErrNotOwner)).To(BeTrue())
		})

		It("reports unknown assignments", func() {
			_, err := svc.Advance(ctx, "emp-1", "missing")
			Expect(errors.Is(err, assignment.ErrAssignmentNotFound)).To(BeTrue())
		})
	})

	Describe("SetProgress", func() {
		It("stores a valid percentage", func() {
			a := assign("emp-1")
			got, err := svc.SetProgress(ctx, "emp-1", a.ID, assignment.ProgressDTO{Progress: 55})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Progress).To(Equal(55))
		})

		It("rejects out of range values", func() {
			a := assign("emp-1")
			_, err := svc.SetProgress(ctx, "emp-1", a.ID, assignment.ProgressDTO{Progress: 101})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("HandleCreditApproved", func() {
		It("completes the assignment with the approved credits", func() {
			a := assign("emp-1")
			event := events.NewCreditRequestApprovedEvent("req-1", a.ID, "emp-1", 40, "admin-1")
			Expect(svc.HandleCreditApproved(ctx, event)).To(Succeed())

			got, err := svc.Get(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(assignment.StatusCompleted))
			Expect(*got.CreditsEarned).To(Equal(int64(40)))

			active, err := svc.CountActive(ctx, "emp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeZero())
		})

		It("fails for a missing assignment", func() {
			event := events.NewCreditRequestApprovedEvent("req-1", "missing", "emp-1", 40, "admin-1")
			err := svc.HandleCreditApproved(ctx, event)
			Expect(errors.Is(err, assignment.ErrAssignmentNotFound)).To(BeTrue())
		})

		It("rejects other event types", func() {
			event := events.NewProfileChangedEvent(events.EventTypeProfileUpdated, "emp-1")
			Expect(svc.HandleCreditApproved(ctx, event)).NotTo(Succeed())
		})
	})

	It("lists assignments per employee and per project", func() {
		assign("emp-1")
		assign("emp-2")

		mine, err := svc.ListMine(ctx, "emp-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(HaveLen(1))

		all, err := svc.ListForProjects(ctx, []string{"proj-1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
	})
})
