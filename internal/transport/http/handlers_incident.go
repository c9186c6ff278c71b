package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "hostelcore/pkg/domain"

	incidentservice "hostelcore/internal/incident/service"
)

type fileComplaintRequest struct {
	StudentID   string `json:"student_id"`
	HostelID    string `json:"hostel_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) handleFileComplaint(w http.ResponseWriter, r *http.Request) {
	var req fileComplaintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	studentID, err := id.ParseStudentID(req.StudentID)
	if err != nil {
		writeError(w, err)
		return
	}
	hostelID, err := id.ParseHostelID(req.HostelID)
	if err != nil {
		writeError(w, err)
		return
	}
	complaint, err := h.incident.FileComplaint(r.Context(), incidentservice.FileComplaintRequest{
		StudentID:   studentID,
		HostelID:    hostelID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.logAndWrite(w, r, "file complaint", err)
		return
	}
	writeJSON(w, http.StatusCreated, complaint)
}

func (h *Handler) handleStartComplaintProgress(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}
	complaint, err := h.incident.StartProgress(r.Context(), complaintID)
	if err != nil {
		h.logAndWrite(w, r, "start complaint progress", err)
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

func (h *Handler) handleResolveComplaint(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}
	complaint, err := h.incident.Resolve(r.Context(), complaintID)
	if err != nil {
		h.logAndWrite(w, r, "resolve complaint", err)
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

func (h *Handler) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, err)
		return
	}
	complaint, err := h.incident.GetComplaint(r.Context(), complaintID)
	if err != nil {
		h.logAndWrite(w, r, "get complaint", err)
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

func (h *Handler) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	complaints, err := h.incident.ListComplaintsByHostel(r.Context(), hostelID)
	if err != nil {
		h.logAndWrite(w, r, "list complaints", err)
		return
	}
	writeJSON(w, http.StatusOK, complaints)
}

type checkInVisitorRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"visitor_name"`
	Phone     string `json:"visitor_phone"`
	Relation  string `json:"relation"`
}

func (h *Handler) handleCheckInVisitor(w http.ResponseWriter, r *http.Request) {
	var req checkInVisitorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	studentID, err := id.ParseStudentID(req.StudentID)
	if err != nil {
		writeError(w, err)
		return
	}
	visitor, err := h.incident.CheckInVisitor(r.Context(), incidentservice.CheckInVisitorRequest{
		StudentID: studentID,
		Name:      req.Name,
		Phone:     req.Phone,
		Relation:  req.Relation,
	})
	if err != nil {
		h.logAndWrite(w, r, "check in visitor", err)
		return
	}
	writeJSON(w, http.StatusCreated, visitor)
}

func (h *Handler) handleCheckOutVisitor(w http.ResponseWriter, r *http.Request) {
	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "visitorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	visitor, err := h.incident.CheckOutVisitor(r.Context(), visitorID)
	if err != nil {
		h.logAndWrite(w, r, "check out visitor", err)
		return
	}
	writeJSON(w, http.StatusOK, visitor)
}

func (h *Handler) handleListVisitors(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	visitors, err := h.incident.ListVisitorsByStudent(r.Context(), studentID)
	if err != nil {
		h.logAndWrite(w, r, "list visitors", err)
		return
	}
	writeJSON(w, http.StatusOK, visitors)
}
