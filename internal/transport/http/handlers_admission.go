package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "hostelcore/pkg/domain"

	admissionservice "hostelcore/internal/admission/service"
)

type submitApplicationRequest struct {
	StudentID          string `json:"student_id"`
	PreferredHostelID  string `json:"preferred_hostel_id"`
	StayDurationMonths int    `json:"stay_duration_months"`
}

func (h *Handler) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	studentID, err := id.ParseStudentID(req.StudentID)
	if err != nil {
		writeError(w, err)
		return
	}
	var hostelID *id.HostelID
	if req.PreferredHostelID != "" {
		parsed, err := id.ParseHostelID(req.PreferredHostelID)
		if err != nil {
			writeError(w, err)
			return
		}
		hostelID = &parsed
	}
	application, err := h.admission.SubmitApplication(r.Context(), admissionservice.SubmitApplicationRequest{
		StudentID:          studentID,
		PreferredHostelID:  hostelID,
		StayDurationMonths: req.StayDurationMonths,
	})
	if err != nil {
		h.logAndWrite(w, r, "submit application", err)
		return
	}
	writeJSON(w, http.StatusCreated, application)
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	application, err := h.admission.GetApplication(r.Context(), applicationID)
	if err != nil {
		h.logAndWrite(w, r, "get application", err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (h *Handler) handleApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.decideApplication(w, r, h.admission.Approve, "approve application")
}

func (h *Handler) handleRejectApplication(w http.ResponseWriter, r *http.Request) {
	h.decideApplication(w, r, h.admission.Reject, "reject application")
}

func (h *Handler) handleWaitlistApplication(w http.ResponseWriter, r *http.Request) {
	h.decideApplication(w, r, h.admission.Waitlist, "waitlist application")
}

func (h *Handler) decideApplication(w http.ResponseWriter, r *http.Request, decide applicationDecision, op string) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	application, err := decide(r.Context(), applicationID)
	if err != nil {
		h.logAndWrite(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}
