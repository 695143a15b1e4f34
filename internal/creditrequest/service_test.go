package creditrequest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/zhar/internal/assignment/postgres"
	"github.com/frahmantamala/zhar/internal/core/common/dbtest"
	creditDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/credit"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	creditPostgres "github.com/frahmantamala/zhar/internal/creditrequest/postgres"
	"github.com/frahmantamala/zhar/internal/profile"
	profilePostgres "github.com/frahmantamala/zhar/internal/profile/postgres"
	"github.com/frahmantamala/zhar/internal/project"
	projectPostgres "github.com/frahmantamala/zhar/internal/project/postgres"
	"github.com/frahmantamala/zhar/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestCreditRequest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Credit Request Suite")
}

var _ = Describe("Service", func() {
	var (
		ctx         context.Context
		db          *gorm.DB
		bus         *events.EventBus
		repo        *creditPostgres.Repository
		assignments *assignment.Service
		svc         *creditrequest.Service
		assigned    *assignment.Assignment
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = dbtest.OpenSchema()
		Expect(err).NotTo(HaveOccurred())

		Expect(dbtest.SeedProfile(db, "emp-1", "Eve", "employee", "Web Development")).To(Succeed())
		Expect(dbtest.SeedProfile(db, "emp-2", "Sam", "employee", "Web Development")).To(Succeed())
		Expect(dbtest.SeedProject(db, "proj-1", "Website", 40)).To(Succeed())

		projects := project.NewService(projectPostgres.NewRepository(db), logger.Discard())
		profiles := profile.NewService(profilePostgres.NewRepository(db), nil, nil, logger.Discard())
		assignments = assignment.NewService(assignmentPostgres.NewRepository(db), projects, profiles, logger.Discard())

		bus = events.NewEventBus(logger.Discard())
		bus.Subscribe(events.EventTypeCreditRequestApproved, assignments.HandleCreditApproved)

		repo = creditPostgres.NewRepository(db)
		svc = creditrequest.NewService(repo, assignments, projects, bus, logger.Discard())

		assigned, err = assignments.Assign(ctx, "lead-1", assignment.AssignDTO{ProjectID: "proj-1", EmployeeID: "emp-1"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(dbtest.Close(db)).To(Succeed())
	})

	request := func() *creditrequest.CreditRequest {
		req, err := svc.Create(ctx, "emp-1", creditrequest.CreateDTO{AssignmentID: assigned.ID})
		Expect(err).NotTo(HaveOccurred())
		return req
	}

	Describe("Create", func() {
		It("copies the expected credits and defaults the notes", func() {
			req := request()
			Expect(req.Status).To(Equal(approval.StatusPending))
			Expect(req.CreditsRequested).To(Equal(int64(40)))
			Expect(*req.Notes).To(Equal("Credit request for Website"))
			Expect(req.EmployeeID).To(Equal("emp-1"))
		})

		It("keeps the copied credits when the project changes later", func() {
			req := request()
			Expect(db.Table("projects").Where("id = ?", "proj-1").Update("expected_credits", 99).Error).To(Succeed())

			got, err := svc.Get(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CreditsRequested).To(Equal(int64(40)))
		})

		It("only lets the owner request credit", func() {
			_, err := svc.Create(ctx, "emp-2", creditrequest.CreateDTO{AssignmentID: assigned.ID})
			Expect(errors.Is(err, assignment.ErrNotOwner)).To(BeTrue())
		})

		It("refuses a second pending request", func() {
			request()
			_, err := svc.Create(ctx, "emp-1", creditrequest.CreateDTO{AssignmentID: assigned.ID})
			Expect(errors.Is(err, creditrequest.ErrAlreadyRequested)).To(BeTrue())
		})

		It("refuses once the assignment has been credited", func() {
			req := request()
			_, err := svc.Approve(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Create(ctx, "emp-1", creditrequest.CreateDTO{AssignmentID: assigned.ID})
			Expect(errors.Is(err, creditrequest.ErrAlreadyCredited)).To(BeTrue())

			var n int64
			Expect(db.Model(&creditDatamodel.CreditRequest{}).Count(&n).Error).To(Succeed())
			Expect(n).To(Equal(int64(1)))
		})

		It("allows a new request after a rejection", func() {
			req := request()
			_, err := svc.Reject(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())

			again := request()
			Expect(again.ID).NotTo(Equal(req.ID))
		})

		It("backs the guard with the live request index", func() {
			request()
			now := time.Now().UTC()
			err := repo.Create(ctx, &creditDatamodel.CreditRequest{
				ID:               "dup",
				AssignmentID:     assigned.ID,
				EmployeeID:       "emp-1",
				CreditsRequested: 40,
				Status:           string(approval.StatusPending),
				CreatedAt:        now,
				UpdatedAt:        now,
			})
			Expect(errors.Is(err, creditrequest.ErrAlreadyRequested)).To(BeTrue())
		})
	})

	Describe("Approve", func() {
		It("completes the linked assignment", func() {
			req := request()
			approved, err := svc.Approve(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(approval.StatusApproved))
			Expect(*approved.ReviewedBy).To(Equal("admin-1"))
			Expect(approved.ReviewedAt).NotTo(BeNil())

			a, err := assignments.Get(ctx, assigned.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Status).To(Equal(assignment.StatusCompleted))
			Expect(*a.CreditsEarned).To(Equal(int64(40)))

			ids, err := svc.ApprovedAssignmentIDs(ctx, "emp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(HaveKey(assigned.ID))
		})

		It("treats a repeated approval as a no-op", func() {
			req := request()
			first, err := svc.Approve(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())

			second, err := svc.Approve(ctx, "admin-2", req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Status).To(Equal(approval.StatusApproved))
			Expect(*second.ReviewedBy).To(Equal("admin-1"))
			Expect(second.ReviewedAt.Equal(*first.ReviewedAt)).To(BeTrue())
		})

		It("refuses the opposite decision on a reviewed request", func() {
			req := request()
			_, err := svc.Approve(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Reject(ctx, "admin-1", req.ID)
			Expect(errors.Is(err, approval.ErrRequestFinalized)).To(BeTrue())
		})

		It("keeps the approval when the assignment update fails", func() {
			bus.Subscribe(events.EventTypeCreditRequestApproved, func(context.Context, events.Event) error {
				return errors.New("downstream unavailable")
			})
			req := request()

			approved, err := svc.Approve(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(approval.StatusApproved))
		})

		It("reports unknown requests", func() {
			_, err := svc.Approve(ctx, "admin-1", "missing")
			Expect(errors.Is(err, creditrequest.ErrRequestNotFound)).To(BeTrue())
		})
	})

	Describe("Reject", func() {
		It("leaves the assignment untouched", func() {
			req := request()
			rejected, err := svc.Reject(ctx, "admin-1", req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(approval.StatusRejected))

			a, err := assignments.Get(ctx, assigned.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Status).To(Equal(assignment.StatusNotStarted))
			Expect(a.CreditsEarned).To(BeNil())
		})
	})

	It("lists and counts by status", func() {
		req := request()

		pending, err := svc.CountPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal(int64(1)))

		_, err = svc.Approve(ctx, "admin-1", req.ID)
		Expect(err).NotTo(HaveOccurred())

		list, err := svc.List(ctx, creditrequest.ListFilter{Status: approval.StatusApproved})
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))

		pending, err = svc.CountPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeZero())
	})
})
