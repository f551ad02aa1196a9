package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightstay/booking-backend/api/responses"
	"github.com/brightstay/booking-backend/api/validators"
	"github.com/brightstay/booking-backend/pkg/db/models"
	pkgerrors "github.com/brightstay/booking-backend/pkg/errors"
	"github.com/brightstay/booking-backend/pkg/logger"
)

type availabilityService interface {
	Availability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]models.InventoryRecord, error)
	SeedAvailability(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time, capacity int) (int64, error)
}

// GetAvailability returns the unlocked per-date room counts for a window.
// Counts are advisory; the reservation path re-checks under lock.
func GetAvailability(svc availabilityService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomTypeID, err := roomTypeIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.Availability(r.Context(), roomTypeID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAvailabilityResponse(roomTypeID, records))
	}
}

// SeedAvailability creates inventory rows for a date range at a fixed
// capacity. Existing rows keep their live counts.
func SeedAvailability(svc availabilityService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomTypeID, err := roomTypeIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload seedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, to, err := payload.window()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inserted, err := svc.SeedAvailability(r.Context(), roomTypeID, from, to, payload.Capacity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"room_type_id":  roomTypeID,
			"rows_inserted": inserted,
		})
	}
}

func roomTypeIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "roomTypeID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "room type id must be a uuid")
	}
	return id, nil
}

type seedRequest struct {
	From     string `json:"from" validate:"required,datetime=2006-01-02"`
	To       string `json:"to" validate:"required,datetime=2006-01-02"`
	Capacity int    `json:"capacity" validate:"min=0"`
}

func (p seedRequest) window() (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(bodyDateLayout, p.From, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from must be a YYYY-MM-DD date")
	}
	to, err := time.ParseInLocation(bodyDateLayout, p.To, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must be a YYYY-MM-DD date")
	}
	return from, to, nil
}

type availabilityEntry struct {
	Date           string `json:"date"`
	AvailableRooms int    `json:"available_rooms"`
}

type availabilityResponse struct {
	RoomTypeID uuid.UUID           `json:"room_type_id"`
	Dates      []availabilityEntry `json:"dates"`
}

func newAvailabilityResponse(roomTypeID uuid.UUID, records []models.InventoryRecord) availabilityResponse {
	entries := make([]availabilityEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, availabilityEntry{
			Date:           rec.Date.Format(bodyDateLayout),
			AvailableRooms: rec.AvailableRooms,
		})
	}
	return availabilityResponse{RoomTypeID: roomTypeID, Dates: entries}
}
