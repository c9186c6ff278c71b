package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"

	facilitymodels "hostelcore/internal/facility/models"
	facilityservice "hostelcore/internal/facility/service"
	identitymodels "hostelcore/internal/identity/models"
)

type createHostelRequest struct {
	Name       string `json:"name"`
	GenderType string `json:"gender_type"`
	BedType    string `json:"bed_type"`
	ACType     string `json:"ac_type"`
	AddressID  string `json:"address_id"`
	TotalRooms int    `json:"total_rooms"`
}

func (h *Handler) handleCreateHostel(w http.ResponseWriter, r *http.Request) {
	var req createHostelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	addressID, err := optionalAddressID(req.AddressID)
	if err != nil {
		writeError(w, err)
		return
	}
	hostel, err := h.facility.CreateHostel(r.Context(), facilityservice.CreateHostelRequest{
		Name:       req.Name,
		GenderType: facilitymodels.HostelGender(req.GenderType),
		BedType:    facilitymodels.BedType(req.BedType),
		ACType:     facilitymodels.ACType(req.ACType),
		AddressID:  addressID,
		TotalRooms: req.TotalRooms,
	})
	if err != nil {
		h.logAndWrite(w, r, "create hostel", err)
		return
	}
	writeJSON(w, http.StatusCreated, hostel)
}

func (h *Handler) handleGetHostel(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	hostel, err := h.facility.GetHostel(r.Context(), hostelID)
	if err != nil {
		h.logAndWrite(w, r, "get hostel", err)
		return
	}
	writeJSON(w, http.StatusOK, hostel)
}

func (h *Handler) handleListHostels(w http.ResponseWriter, r *http.Request) {
	hostels, err := h.facility.ListHostels(r.Context())
	if err != nil {
		h.logAndWrite(w, r, "list hostels", err)
		return
	}
	writeJSON(w, http.StatusOK, hostels)
}

type assignWardenRequest struct {
	WardenID string `json:"warden_id"`
}

func (h *Handler) handleAssignWarden(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req assignWardenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	wardenID, err := id.ParseWardenID(req.WardenID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.facility.AssignWarden(r.Context(), hostelID, wardenID); err != nil {
		h.logAndWrite(w, r, "assign warden", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addRoomRequest struct {
	RoomNumber string `json:"room_number"`
	Capacity   int    `json:"capacity"`
}

func (h *Handler) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req addRoomRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	room, err := h.facility.AddRoom(r.Context(), hostelID, req.RoomNumber, req.Capacity)
	if err != nil {
		h.logAndWrite(w, r, "add room", err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

type addBedRequest struct {
	BedNumber string `json:"bed_number"`
}

func (h *Handler) handleAddBed(w http.ResponseWriter, r *http.Request) {
	roomID, err := id.ParseRoomID(chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req addBedRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	bed, err := h.facility.AddBed(r.Context(), roomID, req.BedNumber)
	if err != nil {
		h.logAndWrite(w, r, "add bed", err)
		return
	}
	writeJSON(w, http.StatusCreated, bed)
}

// handleFindAvailableBed previews the bed the engine would pick for an
// occupant of the given gender. Read-only: nothing is reserved.
func (h *Handler) handleFindAvailableBed(w http.ResponseWriter, r *http.Request) {
	hostelID, err := id.ParseHostelID(chi.URLParam(r, "hostelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	gender := identitymodels.Gender(r.URL.Query().Get("gender"))
	if !gender.Valid() {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "gender query parameter must be male or female"))
		return
	}
	bed, err := h.facility.FindAvailableBed(r.Context(), hostelID, gender)
	if err != nil {
		h.logAndWrite(w, r, "find available bed", err)
		return
	}
	writeJSON(w, http.StatusOK, bed)
}
