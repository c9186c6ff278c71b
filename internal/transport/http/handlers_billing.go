package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/money"
	"hostelcore/pkg/requestcontext"

	billingmodels "hostelcore/internal/billing/models"
	billingservice "hostelcore/internal/billing/service"
)

type createFeeStructureRequest struct {
	MonthlyRent     string `json:"monthly_rent"`
	SecurityDeposit string `json:"security_deposit"`
	MaintenanceFee  string `json:"maintenance_fee"`
	EffectiveFrom   string `json:"effective_from"`
}

func (h *Handler) handleCreateFeeStructure(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req createFeeStructureRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	monthlyRent, err := money.Parse(req.MonthlyRent)
	if err != nil {
		writeError(w, err)
		return
	}
	securityDeposit, err := money.Parse(req.SecurityDeposit)
	if err != nil {
		writeError(w, err)
		return
	}
	var maintenanceFee *money.Amount
	if req.MaintenanceFee != "" {
		fee, err := money.Parse(req.MaintenanceFee)
		if err != nil {
			writeError(w, err)
			return
		}
		maintenanceFee = &fee
	}
	effectiveFrom, err := parseDate(req.EffectiveFrom, "effective_from")
	if err != nil {
		writeError(w, err)
		return
	}
	fee, err := h.billing.CreateFeeStructure(r.Context(), billingservice.CreateFeeStructureRequest{
		HostelID:        hostelID,
		MonthlyRent:     monthlyRent,
		SecurityDeposit: securityDeposit,
		MaintenanceFee:  maintenanceFee,
		EffectiveFrom:   effectiveFrom,
	})
	if err != nil {
		h.logAndWrite(w, r, "create fee structure", err)
		return
	}
	writeJSON(w, http.StatusCreated, fee)
}

// handleApplicableFee resolves the fee row in force on a date, defaulting to
// the request time.
func (h *Handler) handleApplicableFee(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	day := requestcontext.Now(r.Context())
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = parseDate(raw, "date")
		if err != nil {
			writeError(w, err)
			return
		}
	}
	fee, err := h.billing.ApplicableFee(r.Context(), hostelID, day)
	if err != nil {
		h.logAndWrite(w, r, "applicable fee", err)
		return
	}
	writeJSON(w, http.StatusOK, fee)
}

type recordPaymentRequest struct {
	StudentID    string `json:"student_id"`
	AllocationID string `json:"allocation_id"`
	Amount       string `json:"amount"`
	Type         string `json:"payment_type"`
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	studentID, err := id.ParseStudentID(req.StudentID)
	if err != nil {
		writeError(w, err)
		return
	}
	var allocationID *id.AllocationID
	if req.AllocationID != "" {
		parsed, err := id.ParseAllocationID(req.AllocationID)
		if err != nil {
			writeError(w, err)
			return
		}
		allocationID = &parsed
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	payment, err := h.billing.RecordPayment(r.Context(), billingservice.RecordPaymentRequest{
		StudentID:    studentID,
		AllocationID: allocationID,
		Amount:       amount,
		Type:         billingmodels.PaymentType(req.Type),
	})
	if err != nil {
		h.logAndWrite(w, r, "record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

type completePaymentRequest struct {
	TransactionReference string `json:"transaction_reference"`
}

func (h *Handler) handleCompletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req completePaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	payment, err := h.billing.MarkCompleted(r.Context(), paymentID, req.TransactionReference)
	if err != nil {
		h.logAndWrite(w, r, "complete payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) handleFailPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	payment, err := h.billing.MarkFailed(r.Context(), paymentID)
	if err != nil {
		h.logAndWrite(w, r, "fail payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	payment, err := h.billing.GetPayment(r.Context(), paymentID)
	if err != nil {
		h.logAndWrite(w, r, "get payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	payments, err := h.billing.ListPaymentsByStudent(r.Context(), studentID)
	if err != nil {
		h.logAndWrite(w, r, "list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
