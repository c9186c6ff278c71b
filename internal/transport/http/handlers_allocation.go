package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/requestcontext"
)

type allocateRequest struct {
	ApplicationID string `json:"application_id"`
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	applicationID, err := id.ParseApplicationID(req.ApplicationID)
	if err != nil {
		writeError(w, err)
		return
	}
	allocation, err := h.allocation.Allocate(r.Context(), applicationID)
	if err != nil {
		h.logAndWrite(w, r, "allocate", err)
		return
	}
	writeJSON(w, http.StatusCreated, allocation)
}

type checkoutRequest struct {
	CheckoutDate string `json:"checkout_date"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	allocationID, err := id.ParseAllocationID(chi.URLParam(r, "allocationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	checkoutDate := requestcontext.Now(r.Context())
	if req.CheckoutDate != "" {
		checkoutDate, err = parseDate(req.CheckoutDate, "checkout_date")
		if err != nil {
			writeError(w, err)
			return
		}
	}
	allocation, err := h.allocation.Checkout(r.Context(), allocationID, checkoutDate)
	if err != nil {
		h.logAndWrite(w, r, "checkout", err)
		return
	}
	writeJSON(w, http.StatusOK, allocation)
}

func (h *Handler) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID, err := id.ParseAllocationID(chi.URLParam(r, "allocationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	allocation, err := h.allocation.GetAllocation(r.Context(), allocationID)
	if err != nil {
		h.logAndWrite(w, r, "get allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, allocation)
}

func (h *Handler) handleActiveAllocation(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	allocation, err := h.allocation.ActiveByStudent(r.Context(), studentID)
	if err != nil {
		h.logAndWrite(w, r, "active allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, allocation)
}

// handleReconcile runs the occupancy audit and returns its report.
func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditor.Reconcile(r.Context())
	if err != nil {
		h.logAndWrite(w, r, "reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
