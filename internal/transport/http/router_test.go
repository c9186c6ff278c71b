package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	admissionservice "hostelcore/internal/admission/service"
	admissionstore "hostelcore/internal/admission/store"
	allocationservice "hostelcore/internal/allocation/service"
	allocationstore "hostelcore/internal/allocation/store"
	billingservice "hostelcore/internal/billing/service"
	billingstore "hostelcore/internal/billing/store"
	facilityservice "hostelcore/internal/facility/service"
	facilitystore "hostelcore/internal/facility/store"
	identityservice "hostelcore/internal/identity/service"
	identitystore "hostelcore/internal/identity/store"
	incidentservice "hostelcore/internal/incident/service"
	incidentstore "hostelcore/internal/incident/store"
	"hostelcore/internal/platform/middleware"
)

const testSigningKey = "router-test-signing-key"

// RouterSuite exercises the full HTTP surface against memory-backed services,
// token checks and error mapping included.
type RouterSuite struct {
	suite.Suite
	router     http.Handler
	adminToken string
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	identityStore := identitystore.NewInMemory()
	facilityStore := facilitystore.NewInMemory()
	admissionStore := admissionstore.NewInMemory()
	allocationStore := allocationstore.NewInMemory()
	billingStore := billingstore.NewInMemory()
	incidentStore := incidentstore.NewInMemory()

	identity := identityservice.New(identityStore, nil, logger)
	facility := facilityservice.New(facilityStore)
	admission := admissionservice.New(admissionStore, identityStore, nil)
	allocation := allocationservice.New(
		allocationStore, admissionStore, identityStore, facility, facilityStore,
		nil, nil, logger,
	)
	auditor := allocationservice.NewAuditor(allocationStore, facilityStore, nil, logger)
	billing := billingservice.New(billingStore, billingStore, facilityStore, identityStore, nil)
	incident := incidentservice.New(incidentStore, identityStore, facilityStore, nil)

	handler := NewHandler(logger, identity, facility, admission, allocation, auditor, billing, incident)
	s.router = NewRouter(handler, middleware.NewHMACValidator(testSigningKey))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "warden-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	s.Require().NoError(err)
	s.adminToken = signed
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *RouterSuite) registerStudent(gender string) string {
	n := studentSeq()
	rec := s.do(http.MethodPost, "/students", "", map[string]any{
		"full_name":      "Test Student",
		"dob":            "2004-06-01",
		"gender":         gender,
		"phone":          fmt.Sprintf("98%08d", n),
		"govt_id_type":   "aadhaar",
		"govt_id_number": fmt.Sprintf("ID-%d", n),
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return s.decodeBody(rec)["id"].(string)
}

var seq int

func studentSeq() int {
	seq++
	return seq
}

func (s *RouterSuite) createHostelWithBed() string {
	rec := s.do(http.MethodPost, "/hostels", s.adminToken, map[string]any{
		"name":        "North Block",
		"gender_type": "boys",
		"bed_type":    "single",
		"ac_type":     "non_ac",
		"total_rooms": 10,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	hostelID := s.decodeBody(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/hostels/"+hostelID+"/rooms", s.adminToken, map[string]any{
		"room_number": "101",
		"capacity":    1,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	roomID := s.decodeBody(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/rooms/"+roomID+"/beds", s.adminToken, map[string]any{
		"bed_number": "A",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return hostelID
}

func (s *RouterSuite) approvedApplication(studentID, hostelID string) string {
	rec := s.do(http.MethodPost, "/applications", "", map[string]any{
		"student_id":           studentID,
		"preferred_hostel_id":  hostelID,
		"stay_duration_months": 6,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	applicationID := s.decodeBody(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/applications/"+applicationID+"/approve", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return applicationID
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestAdmissionToCheckoutFlow() {
	studentID := s.registerStudent("male")
	hostelID := s.createHostelWithBed()
	applicationID := s.approvedApplication(studentID, hostelID)

	rec := s.do(http.MethodPost, "/allocations", s.adminToken, map[string]any{
		"application_id": applicationID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	allocation := s.decodeBody(rec)
	s.Equal("active", allocation["status"])
	allocationID := allocation["id"].(string)

	rec = s.do(http.MethodGet, "/students/"+studentID+"/allocation", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(allocationID, s.decodeBody(rec)["id"])

	rec = s.do(http.MethodPost, "/allocations/"+allocationID+"/checkout", s.adminToken, map[string]any{})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("completed", s.decodeBody(rec)["status"])

	// The same application cannot be consumed twice.
	rec = s.do(http.MethodPost, "/allocations", s.adminToken, map[string]any{
		"application_id": applicationID,
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestStaffRoutesRequireToken() {
	rec := s.do(http.MethodPost, "/hostels", "", map[string]any{"name": "X"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	badToken := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.AdminClaims{
		Role:             "student",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := badToken.SignedString([]byte(testSigningKey))
	s.Require().NoError(err)

	rec = s.do(http.MethodPost, "/hostels", signed, map[string]any{"name": "X"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestErrorMapping() {
	s.Run("unknown student is 404", func() {
		rec := s.do(http.MethodGet, "/students/6f9fb3b5-74d0-47b6-8f32-0a1c5d1f8a11", "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("not_found", s.decodeBody(rec)["error"])
	})

	s.Run("malformed id is 400", func() {
		rec := s.do(http.MethodGet, "/students/not-a-uuid", "", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("gender mismatch is 409", func() {
		studentID := s.registerStudent("female")
		hostelID := s.createHostelWithBed() // boys hostel
		applicationID := s.approvedApplication(studentID, hostelID)

		rec := s.do(http.MethodPost, "/allocations", s.adminToken, map[string]any{
			"application_id": applicationID,
		})
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("gender_mismatch", s.decodeBody(rec)["error"])
	})

	s.Run("wrong content type is 415", func() {
		req := httptest.NewRequest(http.MethodPost, "/students", bytes.NewReader([]byte("full_name=x")))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnsupportedMediaType, rec.Code)
	})
}

func (s *RouterSuite) TestAvailableBedQuery() {
	hostelID := s.createHostelWithBed()

	rec := s.do(http.MethodGet, "/hostels/"+hostelID+"/available-bed?gender=male", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("A", s.decodeBody(rec)["bed_number"])

	rec = s.do(http.MethodGet, "/hostels/"+hostelID+"/available-bed?gender=female", "", nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestComplaintFlow() {
	studentID := s.registerStudent("male")
	hostelID := s.createHostelWithBed()

	rec := s.do(http.MethodPost, "/complaints", "", map[string]any{
		"student_id":  studentID,
		"hostel_id":   hostelID,
		"title":       "Broken fan",
		"description": "Ceiling fan in room 101 stopped working.",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	complaintID := s.decodeBody(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/complaints/"+complaintID+"/resolve", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	resolved := s.decodeBody(rec)
	s.Equal("resolved", resolved["status"])
	s.NotNil(resolved["resolved_at"])

	// Resolution is terminal.
	rec = s.do(http.MethodPost, "/complaints/"+complaintID+"/progress", s.adminToken, nil)
	s.Equal(http.StatusConflict, rec.Code)
}
