package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/repo"
	"github.com/avirmani/fleet-manager/internal/service"
)

// dateOnly is the wire format for booking dates.
const dateOnly = "2006-01-02"

type generateRequest struct {
	ShiftID     int64   `json:"shift_id"`
	BookingDate string  `json:"booking_date"`
	RadiusKm    float64 `json:"radius_km"`
	GroupSize   int     `json:"group_size"`
	Strict      bool    `json:"strict"`
}

type failedGroupResponse struct {
	BookingIDs []int64 `json:"booking_ids"`
	Reason     string  `json:"reason"`
}

type generateResponse struct {
	Routes              []domain.RouteDetail  `json:"routes"`
	SkippedBookingIDs   []int64               `json:"skipped_booking_ids"`
	DiscardedBookingIDs []int64               `json:"discarded_booking_ids"`
	FailedGroups        []failedGroupResponse `json:"failed_groups"`
}

// GenerateRoutes handles POST /routes/generate.
func (s *Server) GenerateRoutes(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "malformed request body")
		return
	}
	date, err := time.Parse(dateOnly, req.BookingDate)
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errBadParam("booking_date").Error())
		return
	}

	result, err := s.routes.Generate(r.Context(), service.ClusterParams{
		TenantID:    tenant,
		ShiftID:     req.ShiftID,
		BookingDate: date,
		RadiusKm:    req.RadiusKm,
		GroupSize:   req.GroupSize,
		Strict:      req.Strict,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := generateResponse{
		Routes:              result.Routes,
		SkippedBookingIDs:   emptyIDs(result.SkippedBookingIDs),
		DiscardedBookingIDs: emptyIDs(result.DiscardedBookingIDs),
		FailedGroups:        []failedGroupResponse{},
	}
	if resp.Routes == nil {
		resp.Routes = []domain.RouteDetail{}
	}
	for _, f := range result.Failed {
		resp.FailedGroups = append(resp.FailedGroups, failedGroupResponse{BookingIDs: f.BookingIDs, Reason: f.Reason})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListRoutes handles GET /routes. Optional query parameters: shift_id,
// booking_date (YYYY-MM-DD) and status.
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var filter repo.RouteFilter
	q := r.URL.Query()
	if v := q.Get("shift_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errBadParam("shift_id").Error())
			return
		}
		filter.ShiftID = id
	}
	if v := q.Get("booking_date"); v != "" {
		date, err := time.Parse(dateOnly, v)
		if err != nil {
			writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errBadParam("booking_date").Error())
			return
		}
		filter.BookingDate = date
	}
	filter.Status = domain.RouteStatus(q.Get("status"))

	routes, err := s.routes.List(r.Context(), tenant, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Route{"routes": routes})
}

// GetRoute handles GET /routes/{routeID}.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id, ok := routeIDParam(w, r)
	if !ok {
		return
	}

	detail, err := s.routes.Get(r.Context(), tenant, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type stopTimeOverrideRequest struct {
	BookingID  int64  `json:"booking_id"`
	StopOrder  int    `json:"stop_order"`
	PickupTime string `json:"pickup_time"`
	DropTime   string `json:"drop_time"`
}

func toTimeOverrides(reqs []stopTimeOverrideRequest) []service.StopTimeOverride {
	var out []service.StopTimeOverride
	for _, o := range reqs {
		out = append(out, service.StopTimeOverride{
			BookingID:  o.BookingID,
			StopOrder:  o.StopOrder,
			PickupTime: o.PickupTime,
			DropTime:   o.DropTime,
		})
	}
	return out
}

type updateBookingsRequest struct {
	Add           []int64                   `json:"add"`
	Remove        []int64                   `json:"remove"`
	Optimize      *bool                     `json:"optimize"`
	TimeOverrides []stopTimeOverrideRequest `json:"time_overrides"`
}

// UpdateRouteBookings handles PUT /routes/{routeID}/bookings.
func (s *Server) UpdateRouteBookings(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id, ok := routeIDParam(w, r)
	if !ok {
		return
	}

	var req updateBookingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "malformed request body")
		return
	}

	// Resequencing is the default; optimize=false switches to the caller's
	// manual orders and times.
	params := service.UpdateBookingsParams{
		Add:           req.Add,
		Remove:        req.Remove,
		Optimize:      req.Optimize == nil || *req.Optimize,
		TimeOverrides: toTimeOverrides(req.TimeOverrides),
	}

	detail, err := s.routes.UpdateBookings(r.Context(), tenant, id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type mergeRequest struct {
	RouteIDs []int64 `json:"route_ids"`
}

// MergeRoutes handles POST /routes/merge.
func (s *Server) MergeRoutes(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "malformed request body")
		return
	}

	detail, err := s.routes.Merge(r.Context(), tenant, req.RouteIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

type createFromBookingsRequest struct {
	ShiftID       int64                     `json:"shift_id"`
	BookingDate   string                    `json:"booking_date"`
	BookingIDs    []int64                   `json:"booking_ids"`
	Optimize      *bool                     `json:"optimize"`
	TimeOverrides []stopTimeOverrideRequest `json:"time_overrides"`
}

// CreateRouteFromBookings handles POST /routes/from-bookings.
func (s *Server) CreateRouteFromBookings(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req createFromBookingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "malformed request body")
		return
	}
	date, err := time.Parse(dateOnly, req.BookingDate)
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errBadParam("booking_date").Error())
		return
	}

	detail, err := s.routes.CreateFromBookings(r.Context(), tenant, service.CreateFromBookingsParams{
		ShiftID:       req.ShiftID,
		BookingDate:   date,
		BookingIDs:    req.BookingIDs,
		Optimize:      req.Optimize == nil || *req.Optimize,
		TimeOverrides: toTimeOverrides(req.TimeOverrides),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// DeleteRoute handles DELETE /routes/{routeID}.
func (s *Server) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id, ok := routeIDParam(w, r)
	if !ok {
		return
	}

	if err := s.routes.Delete(r.Context(), tenant, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteResponse struct {
	DeletedRouteIDs []int64 `json:"deleted_route_ids"`
	SkippedRouteIDs []int64 `json:"skipped_route_ids"`
}

// BulkDeleteRoutes handles DELETE /routes. Query parameters: booking_date
// (required) and an optional shift_id.
func (s *Server) BulkDeleteRoutes(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	date, err := time.Parse(dateOnly, q.Get("booking_date"))
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errBadParam("booking_date").Error())
		return
	}
	var shiftID int64
	if v := q.Get("shift_id"); v != "" {
		if shiftID, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errBadParam("shift_id").Error())
			return
		}
	}

	result, err := s.routes.BulkDelete(r.Context(), tenant, date, shiftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkDeleteResponse{
		DeletedRouteIDs: emptyIDs(result.DeletedRouteIDs),
		SkippedRouteIDs: emptyIDs(result.SkippedRouteIDs),
	})
}
