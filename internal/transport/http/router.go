package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	id "hostelcore/pkg/domain"

	admissionmodels "hostelcore/internal/admission/models"
	admissionservice "hostelcore/internal/admission/service"
	allocationmodels "hostelcore/internal/allocation/models"
	allocationservice "hostelcore/internal/allocation/service"
	billingmodels "hostelcore/internal/billing/models"
	billingservice "hostelcore/internal/billing/service"
	facilitymodels "hostelcore/internal/facility/models"
	facilityservice "hostelcore/internal/facility/service"
	identitymodels "hostelcore/internal/identity/models"
	identityservice "hostelcore/internal/identity/service"
	incidentmodels "hostelcore/internal/incident/models"
	incidentservice "hostelcore/internal/incident/service"
	"hostelcore/internal/platform/middleware"
)

// IdentityService is the identity surface the transport needs.
type IdentityService interface {
	RegisterStudent(ctx context.Context, req identityservice.RegisterStudentRequest) (*identitymodels.Student, error)
	GetStudent(ctx context.Context, studentID id.StudentID) (*identitymodels.Student, error)
	VerifyStudent(ctx context.Context, studentID id.StudentID) error
	DeleteStudent(ctx context.Context, studentID id.StudentID) error
	AddGuardian(ctx context.Context, req identityservice.AddGuardianRequest) (*identitymodels.Guardian, error)
	ListGuardians(ctx context.Context, studentID id.StudentID) ([]*identitymodels.Guardian, error)
	RegisterWarden(ctx context.Context, req identityservice.RegisterWardenRequest) (*identitymodels.Warden, error)
	CreateAddress(ctx context.Context, req identityservice.CreateAddressRequest) (*identitymodels.Address, error)
}

// FacilityService is the catalog surface the transport needs.
type FacilityService interface {
	CreateHostel(ctx context.Context, req facilityservice.CreateHostelRequest) (*facilitymodels.Hostel, error)
	GetHostel(ctx context.Context, hostelID id.HostelID) (*facilitymodels.Hostel, error)
	ListHostels(ctx context.Context) ([]*facilitymodels.Hostel, error)
	AssignWarden(ctx context.Context, hostelID id.HostelID, wardenID id.WardenID) error
	AddRoom(ctx context.Context, hostelID id.HostelID, roomNumber string, capacity int) (*facilitymodels.Room, error)
	AddBed(ctx context.Context, roomID id.RoomID, bedNumber string) (*facilitymodels.Bed, error)
	FindAvailableBed(ctx context.Context, hostelID id.HostelID, gender identitymodels.Gender) (*facilitymodels.Bed, error)
}

type applicationDecision func(ctx context.Context, applicationID id.ApplicationID) (*admissionmodels.Application, error)

// AdmissionService is the application surface the transport needs.
type AdmissionService interface {
	SubmitApplication(ctx context.Context, req admissionservice.SubmitApplicationRequest) (*admissionmodels.Application, error)
	GetApplication(ctx context.Context, applicationID id.ApplicationID) (*admissionmodels.Application, error)
	Approve(ctx context.Context, applicationID id.ApplicationID) (*admissionmodels.Application, error)
	Reject(ctx context.Context, applicationID id.ApplicationID) (*admissionmodels.Application, error)
	Waitlist(ctx context.Context, applicationID id.ApplicationID) (*admissionmodels.Application, error)
}

// AllocationService is the engine surface the transport needs.
type AllocationService interface {
	Allocate(ctx context.Context, applicationID id.ApplicationID) (*allocationmodels.Allocation, error)
	Checkout(ctx context.Context, allocationID id.AllocationID, checkoutDate time.Time) (*allocationmodels.Allocation, error)
	GetAllocation(ctx context.Context, allocationID id.AllocationID) (*allocationmodels.Allocation, error)
	ActiveByStudent(ctx context.Context, studentID id.StudentID) (*allocationmodels.Allocation, error)
}

// Auditor runs the occupancy reconciliation sweep.
type Auditor interface {
	Reconcile(ctx context.Context) (*allocationservice.Report, error)
}

// BillingService is the billing surface the transport needs.
type BillingService interface {
	CreateFeeStructure(ctx context.Context, req billingservice.CreateFeeStructureRequest) (*billingmodels.FeeStructure, error)
	ApplicableFee(ctx context.Context, hostelID id.HostelID, day time.Time) (*billingmodels.FeeStructure, error)
	RecordPayment(ctx context.Context, req billingservice.RecordPaymentRequest) (*billingmodels.Payment, error)
	MarkCompleted(ctx context.Context, paymentID id.PaymentID, txReference string) (*billingmodels.Payment, error)
	MarkFailed(ctx context.Context, paymentID id.PaymentID) (*billingmodels.Payment, error)
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*billingmodels.Payment, error)
	ListPaymentsByStudent(ctx context.Context, studentID id.StudentID) ([]*billingmodels.Payment, error)
}

// IncidentService is the incident surface the transport needs.
type IncidentService interface {
	FileComplaint(ctx context.Context, req incidentservice.FileComplaintRequest) (*incidentmodels.Complaint, error)
	StartProgress(ctx context.Context, complaintID id.ComplaintID) (*incidentmodels.Complaint, error)
	Resolve(ctx context.Context, complaintID id.ComplaintID) (*incidentmodels.Complaint, error)
	GetComplaint(ctx context.Context, complaintID id.ComplaintID) (*incidentmodels.Complaint, error)
	ListComplaintsByHostel(ctx context.Context, hostelID id.HostelID) ([]*incidentmodels.Complaint, error)
	CheckInVisitor(ctx context.Context, req incidentservice.CheckInVisitorRequest) (*incidentmodels.Visitor, error)
	CheckOutVisitor(ctx context.Context, visitorID id.VisitorID) (*incidentmodels.Visitor, error)
	ListVisitorsByStudent(ctx context.Context, studentID id.StudentID) ([]*incidentmodels.Visitor, error)
}

// Handler carries the domain services the routes delegate to.
type Handler struct {
	logger     *slog.Logger
	identity   IdentityService
	facility   FacilityService
	admission  AdmissionService
	allocation AllocationService
	auditor    Auditor
	billing    BillingService
	incident   IncidentService
}

func NewHandler(logger *slog.Logger, identity IdentityService, facility FacilityService, admission AdmissionService, allocation AllocationService, auditor Auditor, billing BillingService, incident IncidentService) *Handler {
	return &Handler{
		logger:     logger,
		identity:   identity,
		facility:   facility,
		admission:  admission,
		allocation: allocation,
		auditor:    auditor,
		billing:    billing,
		incident:   incident,
	}
}

// NewRouter wires every endpoint. Staff-only mutations sit behind the admin
// JWT middleware; student-facing reads and submissions do not.
func NewRouter(h *Handler, validator middleware.JWTValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Public surface.
		r.Post("/addresses", h.handleCreateAddress)
		r.Post("/students", h.handleRegisterStudent)
		r.Get("/students/{studentID}", h.handleGetStudent)
		r.Post("/students/{studentID}/guardians", h.handleAddGuardian)
		r.Get("/students/{studentID}/guardians", h.handleListGuardians)
		r.Get("/students/{studentID}/allocation", h.handleActiveAllocation)
		r.Get("/students/{studentID}/payments", h.handleListPayments)
		r.Get("/students/{studentID}/visitors", h.handleListVisitors)

		r.Get("/hostels", h.handleListHostels)
		r.Get("/hostels/{hostelID}", h.handleGetHostel)
		r.Get("/hostels/{hostelID}/available-bed", h.handleFindAvailableBed)
		r.Get("/hostels/{hostelID}/fees/applicable", h.handleApplicableFee)
		r.Get("/hostels/{hostelID}/complaints", h.handleListComplaints)

		r.Post("/applications", h.handleSubmitApplication)
		r.Get("/applications/{applicationID}", h.handleGetApplication)
		r.Get("/allocations/{allocationID}", h.handleGetAllocation)

		r.Post("/payments", h.handleRecordPayment)
		r.Get("/payments/{paymentID}", h.handleGetPayment)

		r.Post("/complaints", h.handleFileComplaint)
		r.Get("/complaints/{complaintID}", h.handleGetComplaint)
		r.Post("/visitors", h.handleCheckInVisitor)
		r.Post("/visitors/{visitorID}/checkout", h.handleCheckOutVisitor)

		// Staff surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(validator, h.logger))

			r.Post("/students/{studentID}/verify", h.handleVerifyStudent)
			r.Delete("/students/{studentID}", h.handleDeleteStudent)
			r.Post("/wardens", h.handleRegisterWarden)

			r.Post("/hostels", h.handleCreateHostel)
			r.Post("/hostels/{hostelID}/warden", h.handleAssignWarden)
			r.Post("/hostels/{hostelID}/rooms", h.handleAddRoom)
			r.Post("/rooms/{roomID}/beds", h.handleAddBed)
			r.Post("/hostels/{hostelID}/fees", h.handleCreateFeeStructure)

			r.Post("/applications/{applicationID}/approve", h.handleApproveApplication)
			r.Post("/applications/{applicationID}/reject", h.handleRejectApplication)
			r.Post("/applications/{applicationID}/waitlist", h.handleWaitlistApplication)

			r.Post("/allocations", h.handleAllocate)
			r.Post("/allocations/{allocationID}/checkout", h.handleCheckout)
			r.Post("/occupancy/reconcile", h.handleReconcile)

			r.Post("/payments/{paymentID}/complete", h.handleCompletePayment)
			r.Post("/payments/{paymentID}/fail", h.handleFailPayment)

			r.Post("/complaints/{complaintID}/progress", h.handleStartComplaintProgress)
			r.Post("/complaints/{complaintID}/resolve", h.handleResolveComplaint)
		})
	})

	return r
}
