package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
	"fleet-rental-backend/internal/service"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker func(ctx context.Context) error

// RentalHandler exposes the rental engine over HTTP
type RentalHandler struct {
	rentalSvc service.RentalService
	health    HealthChecker
}

// NewRentalHandler creates a new rental handler. health may be nil.
func NewRentalHandler(rentalSvc service.RentalService, health HealthChecker) *RentalHandler {
	return &RentalHandler{rentalSvc: rentalSvc, health: health}
}

// NewRouter registers every rental route on a fresh router
func NewRouter(rentalSvc service.RentalService, health HealthChecker) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	RegisterRentalRoutes(router, NewRentalHandler(rentalSvc, health))
	return router
}

// RegisterRentalRoutes registers the rental HTTP endpoints
func RegisterRentalRoutes(router *mux.Router, h *RentalHandler) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/clients", h.AddClient).Methods(http.MethodPost)
	api.HandleFunc("/reservations", h.Reserve).Methods(http.MethodPost)
	api.HandleFunc("/reservations", h.CancelReservation).Methods(http.MethodDelete)
	api.HandleFunc("/rentals/process", h.ProcessRentals).Methods(http.MethodPost)
	api.HandleFunc("/returns", h.ReturnCar).Methods(http.MethodPost)
	api.HandleFunc("/classes", h.AvailableClasses).Methods(http.MethodGet)
	api.HandleFunc("/cars/{id:[0-9]+}/history", h.CarHistory).Methods(http.MethodGet)
	api.HandleFunc("/availability/initialize", h.Initialize).Methods(http.MethodPost)
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
}

// AddClient mints a renter id. Renters are not stored anywhere else.
func (h *RentalHandler) AddClient(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, clientResponse{RenterID: uuid.New()})
}

func (h *RentalHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	renterID, err := parseID("client_id", req.ClientID)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rentalID, err := h.rentalSvc.Reserve(r.Context(), from, renterID, to, domain.CarClass(req.CarClass))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reserveResponse{RentalID: rentalID})
}

func (h *RentalHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	renterID, err := parseID("client_id", req.ClientID)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rentalID, err := parseID("rental_id", req.RentalID)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.rentalSvc.CancelReservation(r.Context(), from, renterID, rentalID, to, domain.CarClass(req.CarClass)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProcessRentals fulfils every reservation of a client starting on a date.
// Partial success is 200 with the failures listed; 409 means nothing was assigned.
func (h *RentalHandler) ProcessRentals(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	date, err := domain.ParseDay(req.Date)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	renterID, err := parseID("client_id", req.ClientID)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	cars, err := h.rentalSvc.FulfillForClient(r.Context(), date, renterID)
	resp := processResponse{Cars: mapCars(cars), Failures: mapFailures(err)}

	var allocErr *domain.AllocationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.As(err, &allocErr) && !errors.Is(err, domain.ErrStoreUnavailable):
		status := http.StatusOK
		if len(cars) == 0 {
			status = http.StatusConflict
		}
		writeJSON(w, status, resp)
	default:
		resp.Error = err.Error()
		writeJSON(w, statusFor(err), resp)
	}
}

func (h *RentalHandler) ReturnCar(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	var dates [3]time.Time
	for i, raw := range []string{req.DateOut, req.DateRet, req.DateExp} {
		d, err := domain.ParseDay(raw)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		dates[i] = d
	}

	if err := h.rentalSvc.ReturnCar(r.Context(), req.CarID, dates[0], dates[1], dates[2]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentalHandler) AvailableClasses(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	classes, err := h.rentalSvc.AvailableClasses(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.String())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RentalHandler) CarHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		badRequest(w, "invalid car id")
		return
	}
	openOnly, _ := strconv.ParseBool(r.URL.Query().Get("open"))

	records, err := h.rentalSvc.CarHistory(r.Context(), int32(id), openOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapHistory(records))
}

func (h *RentalHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.rentalSvc.Initialize(r.Context(), req.WindowDays); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentalHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logger.WarnContext(r.Context(), "Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := domain.ParseDay(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := domain.ParseDay(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
