// Package handler implements the HTTP handlers for the fleet routing API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (clusters.go, routes.go, assign.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avirmani/fleet-manager/internal/domain"
	"github.com/avirmani/fleet-manager/internal/repo"
	"github.com/avirmani/fleet-manager/internal/service"
)

// ClusterServicer defines the clustering operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type ClusterServicer interface {
	Suggest(ctx context.Context, p service.ClusterParams) (service.ClusterResult, error)
}

// RouteServicer defines the route lifecycle operations the handlers depend on.
type RouteServicer interface {
	Generate(ctx context.Context, p service.ClusterParams) (service.GenerateResult, error)
	List(ctx context.Context, tenantID string, f repo.RouteFilter) ([]domain.Route, error)
	Get(ctx context.Context, tenantID string, routeID int64) (domain.RouteDetail, error)
	UpdateBookings(ctx context.Context, tenantID string, routeID int64, p service.UpdateBookingsParams) (domain.RouteDetail, error)
	Merge(ctx context.Context, tenantID string, routeIDs []int64) (domain.RouteDetail, error)
	CreateFromBookings(ctx context.Context, tenantID string, p service.CreateFromBookingsParams) (domain.RouteDetail, error)
	Delete(ctx context.Context, tenantID string, routeID int64) error
	BulkDelete(ctx context.Context, tenantID string, date time.Time, shiftID int64) (service.BulkDeleteResult, error)
}

// AssignServicer defines the assignment operations the handlers depend on.
type AssignServicer interface {
	AssignVendor(ctx context.Context, tenantID string, routeID, vendorID int64) (domain.Route, error)
	AssignVehicle(ctx context.Context, tenantID string, routeID, vehicleID int64) (domain.Route, error)
	AssignEscort(ctx context.Context, tenantID string, routeID, escortID int64) (domain.Route, error)
}

// Server holds the handler dependencies. Methods are in domain-specific
// files but all operate on this struct.
type Server struct {
	clusters ClusterServicer
	routes   RouteServicer
	assigns  AssignServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(clusters ClusterServicer, routes RouteServicer, assigns AssignServicer) *Server {
	return &Server{clusters: clusters, routes: routes, assigns: assigns}
}

// Routes mounts every endpoint on a chi router. Wire it in main.go via
// r.Mount("/", srv.Routes()).
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/route-suggestions", s.SuggestRoutes)

	r.Route("/routes", func(r chi.Router) {
		r.Post("/generate", s.GenerateRoutes)
		r.Get("/", s.ListRoutes)
		r.Delete("/", s.BulkDeleteRoutes)
		r.Post("/merge", s.MergeRoutes)
		r.Post("/from-bookings", s.CreateRouteFromBookings)

		r.Route("/{routeID}", func(r chi.Router) {
			r.Get("/", s.GetRoute)
			r.Delete("/", s.DeleteRoute)
			r.Put("/bookings", s.UpdateRouteBookings)
			r.Post("/vendor", s.AssignVendor)
			r.Post("/vehicle", s.AssignVehicle)
			r.Post("/escort", s.AssignEscort)
		})
	})

	return r
}

// tenantHeader is the header every tenant-scoped endpoint requires. The
// engine trusts the gateway in front of it to have authenticated the value.
const tenantHeader = "X-Tenant-ID"

// tenantID extracts the tenant from the request header, writing a 422 and
// returning false when it is missing.
func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(tenantHeader)
	if id == "" {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", tenantHeader+" header is required")
		return "", false
	}
	return id, true
}

// routeIDParam parses the {routeID} path parameter, writing a 422 and
// returning false when it is not a positive integer.
func routeIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "routeID"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "route id must be a positive integer")
		return 0, false
	}
	return id, true
}
