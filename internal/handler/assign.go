package handler

import (
	"encoding/json"
	"net/http"
)

type assignVendorRequest struct {
	VendorID int64 `json:"vendor_id"`
}

// AssignVendor handles POST /routes/{routeID}/vendor.
func (s *Server) AssignVendor(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id, ok := routeIDParam(w, r)
	if !ok {
		return
	}

	var req assignVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VendorID <= 0 {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "vendor_id is required")
		return
	}

	route, err := s.assigns.AssignVendor(r.Context(), tenant, id, req.VendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

type assignVehicleRequest struct {
	VehicleID int64 `json:"vehicle_id"`
}

// AssignVehicle handles POST /routes/{routeID}/vehicle.
func (s *Server) AssignVehicle(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id, ok := routeIDParam(w, r)
	if !ok {
		return
	}

	var req assignVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VehicleID <= 0 {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "vehicle_id is required")
		return
	}

	route, err := s.assigns.AssignVehicle(r.Context(), tenant, id, req.VehicleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

type assignEscortRequest struct {
	EscortID int64 `json:"escort_id"`
}

// AssignEscort handles POST /routes/{routeID}/escort.
func (s *Server) AssignEscort(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id, ok := routeIDParam(w, r)
	if !ok {
		return
	}

	var req assignEscortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EscortID <= 0 {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "escort_id is required")
		return
	}

	route, err := s.assigns.AssignEscort(r.Context(), tenant, id, req.EscortID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}
