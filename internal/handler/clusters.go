package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/service"
)

// suggestionsResponse is a clustering preview. Group bookings keep their
// full shape so the UI can render names and addresses without extra calls.
type suggestionsResponse struct {
	Shift               domain.Shift       `json:"shift"`
	Groups              [][]domain.Booking `json:"groups"`
	SkippedBookingIDs   []int64            `json:"skipped_booking_ids"`
	DiscardedBookingIDs []int64            `json:"discarded_booking_ids"`
}

// SuggestRoutes handles GET /route-suggestions. Query parameters: shift_id,
// booking_date (YYYY-MM-DD), radius_km, group_size and an optional strict
// flag.
func (s *Server) SuggestRoutes(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	params, err := clusterQueryParams(r, tenant)
	if err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	result, err := s.clusters.Suggest(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestionsResponse{
		Shift:               result.Shift,
		Groups:              emptyGroups(result.Groups),
		SkippedBookingIDs:   emptyIDs(result.SkippedBookingIDs),
		DiscardedBookingIDs: emptyIDs(result.DiscardedBookingIDs),
	})
}

// clusterQueryParams parses the clustering selectors shared by the
// suggestion endpoint. Validation of ranges happens in the service; here we
// only reject unparseable values.
func clusterQueryParams(r *http.Request, tenant string) (service.ClusterParams, error) {
	q := r.URL.Query()
	p := service.ClusterParams{TenantID: tenant}

	var err error
	if p.ShiftID, err = strconv.ParseInt(q.Get("shift_id"), 10, 64); err != nil {
		return service.ClusterParams{}, errBadParam("shift_id")
	}
	if p.BookingDate, err = time.Parse("2006-01-02", q.Get("booking_date")); err != nil {
		return service.ClusterParams{}, errBadParam("booking_date")
	}
	if p.RadiusKm, err = strconv.ParseFloat(q.Get("radius_km"), 64); err != nil {
		return service.ClusterParams{}, errBadParam("radius_km")
	}
	if p.GroupSize, err = strconv.Atoi(q.Get("group_size")); err != nil {
		return service.ClusterParams{}, errBadParam("group_size")
	}
	p.Strict = q.Get("strict") == "true"
	return p, nil
}

// emptyGroups normalizes nil to an empty array so the JSON is always [].
func emptyGroups(groups [][]domain.Booking) [][]domain.Booking {
	if groups == nil {
		return [][]domain.Booking{}
	}
	return groups
}

func emptyIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
