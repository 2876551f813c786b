package http

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
)

type clientResponse struct {
	RenterID uuid.UUID `json:"renter_id"`
}

type reserveRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ClientID string `json:"client_id"`
	CarClass string `json:"car_class"`
}

type reserveResponse struct {
	RentalID uuid.UUID `json:"rental_id"`
}

type cancelRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ClientID string `json:"client_id"`
	RentalID string `json:"rental_id"`
	CarClass string `json:"car_class"`
}

type processRequest struct {
	Date     string `json:"date"`
	ClientID string `json:"client_id"`
}

type carResponse struct {
	ID           int32  `json:"car_id"`
	Name         string `json:"car_name"`
	Class        string `json:"car_class"`
	LicensePlate string `json:"license_plate"`
}

type failureResponse struct {
	RentalID       uuid.UUID `json:"rental_id"`
	RequestedClass string    `json:"requested_class"`
	Error          string    `json:"error"`
}

type processResponse struct {
	Cars     []carResponse     `json:"cars"`
	Failures []failureResponse `json:"failures"`
	Error    string            `json:"error,omitempty"`
}

type returnRequest struct {
	CarID   int32  `json:"car_id"`
	DateOut string `json:"date_out"`
	DateRet string `json:"date_ret"`
	DateExp string `json:"date_exp"`
}

type initializeRequest struct {
	WindowDays int `json:"window_days"`
}

type historyResponse struct {
	CarID        int32     `json:"car_id"`
	DateFrom     string    `json:"date_from"`
	DateTo       string    `json:"date_to"`
	RenterID     uuid.UUID `json:"renter_id"`
	RentalID     uuid.UUID `json:"rental_id"`
	DateReceived *string   `json:"date_received"`
}

func mapCar(c domain.Car) carResponse {
	return carResponse{ID: c.ID, Name: c.Name, Class: c.Class.String(), LicensePlate: c.Plate}
}

func mapCars(cars []domain.Car) []carResponse {
	out := make([]carResponse, 0, len(cars))
	for _, c := range cars {
		out = append(out, mapCar(c))
	}
	return out
}

// mapFailures unpacks the per-reservation allocation errors of a fulfilment
func mapFailures(err error) []failureResponse {
	out := []failureResponse{}
	if err == nil {
		return out
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var allocErr *domain.AllocationError
		if errors.As(e, &allocErr) {
			out = append(out, failureResponse{
				RentalID:       allocErr.RentalID,
				RequestedClass: allocErr.RequestedClass.String(),
				Error:          allocErr.Error(),
			})
		}
	}
	return out
}

func mapHistory(records []domain.HistoryRecord) []historyResponse {
	out := make([]historyResponse, 0, len(records))
	for _, r := range records {
		h := historyResponse{
			CarID:    r.CarID,
			DateFrom: domain.FormatDay(r.DateFrom),
			DateTo:   domain.FormatDay(r.DateTo),
			RenterID: r.RenterID,
			RentalID: r.RentalID,
		}
		if r.DateReceived != nil {
			received := domain.FormatDay(*r.DateReceived)
			h.DateReceived = &received
		}
		out = append(out, h)
	}
	return out
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: must be a UUID", field, raw)
	}
	return id, nil
}
