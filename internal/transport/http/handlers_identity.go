package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"

	identitymodels "hostelcore/internal/identity/models"
	identityservice "hostelcore/internal/identity/service"
)

type registerStudentRequest struct {
	FullName     string `json:"full_name"`
	DateOfBirth  string `json:"dob"`
	Gender       string `json:"gender"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	GovtIDType   string `json:"govt_id_type"`
	GovtIDNumber string `json:"govt_id_number"`
	AddressID    string `json:"address_id"`
}

func (h *Handler) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	dob, err := parseDate(req.DateOfBirth, "dob")
	if err != nil {
		writeError(w, err)
		return
	}
	addressID, err := optionalAddressID(req.AddressID)
	if err != nil {
		writeError(w, err)
		return
	}
	student, err := h.identity.RegisterStudent(r.Context(), identityservice.RegisterStudentRequest{
		FullName:     req.FullName,
		DateOfBirth:  dob,
		Gender:       identitymodels.Gender(req.Gender),
		Phone:        req.Phone,
		Email:        req.Email,
		GovtIDType:   identitymodels.GovtIDType(req.GovtIDType),
		GovtIDNumber: req.GovtIDNumber,
		AddressID:    addressID,
	})
	if err != nil {
		h.logAndWrite(w, r, "register student", err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	student, err := h.identity.GetStudent(r.Context(), studentID)
	if err != nil {
		h.logAndWrite(w, r, "get student", err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *Handler) handleVerifyStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.identity.VerifyStudent(r.Context(), studentID); err != nil {
		h.logAndWrite(w, r, "verify student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.identity.DeleteStudent(r.Context(), studentID); err != nil {
		h.logAndWrite(w, r, "delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addGuardianRequest struct {
	FullName  string `json:"full_name"`
	Relation  string `json:"relation"`
	Phone     string `json:"phone"`
	AddressID string `json:"address_id"`
}

func (h *Handler) handleAddGuardian(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req addGuardianRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	addressID, err := optionalAddressID(req.AddressID)
	if err != nil {
		writeError(w, err)
		return
	}
	guardian, err := h.identity.AddGuardian(r.Context(), identityservice.AddGuardianRequest{
		StudentID: studentID,
		FullName:  req.FullName,
		Relation:  req.Relation,
		Phone:     req.Phone,
		AddressID: addressID,
	})
	if err != nil {
		h.logAndWrite(w, r, "add guardian", err)
		return
	}
	writeJSON(w, http.StatusCreated, guardian)
}

func (h *Handler) handleListGuardians(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	guardians, err := h.identity.ListGuardians(r.Context(), studentID)
	if err != nil {
		h.logAndWrite(w, r, "list guardians", err)
		return
	}
	writeJSON(w, http.StatusOK, guardians)
}

type registerWardenRequest struct {
	FullName     string `json:"full_name"`
	Gender       string `json:"gender"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	GovtIDType   string `json:"govt_id_type"`
	GovtIDNumber string `json:"govt_id_number"`
	AddressID    string `json:"address_id"`
}

func (h *Handler) handleRegisterWarden(w http.ResponseWriter, r *http.Request) {
	var req registerWardenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	addressID, err := optionalAddressID(req.AddressID)
	if err != nil {
		writeError(w, err)
		return
	}
	warden, err := h.identity.RegisterWarden(r.Context(), identityservice.RegisterWardenRequest{
		FullName:     req.FullName,
		Gender:       identitymodels.Gender(req.Gender),
		Phone:        req.Phone,
		Email:        req.Email,
		GovtIDType:   identitymodels.GovtIDType(req.GovtIDType),
		GovtIDNumber: req.GovtIDNumber,
		AddressID:    addressID,
	})
	if err != nil {
		h.logAndWrite(w, r, "register warden", err)
		return
	}
	writeJSON(w, http.StatusCreated, warden)
}

type createAddressRequest struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

func (h *Handler) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var req createAddressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	address, err := h.identity.CreateAddress(r.Context(), identityservice.CreateAddressRequest{
		Line1:   req.Line1,
		Line2:   req.Line2,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
		Country: req.Country,
	})
	if err != nil {
		h.logAndWrite(w, r, "create address", err)
		return
	}
	writeJSON(w, http.StatusCreated, address)
}

// logAndWrite logs non-client failures before answering; client errors pass
// through quietly.
func (h *Handler) logAndWrite(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("op", op), slog.Any("error", err))
	}
	writeError(w, err)
}

func parseDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, field+" is required")
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

func optionalAddressID(raw string) (*id.AddressID, error) {
	if raw == "" {
		return nil, nil
	}
	addressID, err := id.ParseAddressID(raw)
	if err != nil {
		return nil, err
	}
	return &addressID, nil
}
