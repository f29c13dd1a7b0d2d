package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/api/middleware"
	"github.com/guildforge/guildforge-backend/api/responses"
	"github.com/guildforge/guildforge-backend/api/validators"
	"github.com/guildforge/guildforge-backend/internal/systems"
	"github.com/guildforge/guildforge-backend/pkg/enums"
	pkgerrors "github.com/guildforge/guildforge-backend/pkg/errors"
	"github.com/guildforge/guildforge-backend/pkg/logger"
)

type createSystemRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=120"`
	SystemType       string `json:"system_type" validate:"required"`
	StartingPoints   int64  `json:"starting_points" validate:"gte=0"`
	DecayEnabled     bool   `json:"decay_enabled"`
	DecayRateBps     int64  `json:"decay_rate_bps" validate:"gte=0,lte=10000"`
	DecayMinimum     int64  `json:"decay_minimum" validate:"gte=0"`
	AttendancePoints int64  `json:"attendance_points" validate:"gte=0"`
	KillPoints       int64  `json:"kill_points" validate:"gte=0"`
	EventPoints      int64  `json:"event_points" validate:"gte=0"`
	Activate         bool   `json:"activate"`
}

type updateSystemRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=120"`
	StartingPoints   *int64  `json:"starting_points" validate:"omitempty,gte=0"`
	DecayEnabled     *bool   `json:"decay_enabled"`
	DecayRateBps     *int64  `json:"decay_rate_bps" validate:"omitempty,gte=0,lte=10000"`
	DecayMinimum     *int64  `json:"decay_minimum" validate:"omitempty,gte=0"`
	AttendancePoints *int64  `json:"attendance_points" validate:"omitempty,gte=0"`
	KillPoints       *int64  `json:"kill_points" validate:"omitempty,gte=0"`
	EventPoints      *int64  `json:"event_points" validate:"omitempty,gte=0"`
}

// groupFromContext resolves the authenticated guild id.
func groupFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.GroupIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "group context missing")
	}
	groupID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group id")
	}
	return groupID, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	value, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return value, nil
}

// CreateSystem registers a new point system for the caller's guild.
func CreateSystem(svc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createSystemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		systemType, err := enums.ParseSystemType(req.SystemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid system type"))
			return
		}

		system, err := svc.Create(r.Context(), systems.CreateSystemInput{
			GroupID:          groupID,
			Name:             validators.SanitizeString(req.Name, 120),
			SystemType:       systemType,
			StartingPoints:   req.StartingPoints,
			DecayEnabled:     req.DecayEnabled,
			DecayRateBps:     req.DecayRateBps,
			DecayMinimum:     req.DecayMinimum,
			AttendancePoints: req.AttendancePoints,
			KillPoints:       req.KillPoints,
			EventPoints:      req.EventPoints,
			Activate:         req.Activate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, system)
	}
}

// UpdateSystem applies a partial configuration update.
func UpdateSystem(svc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		systemID, err := pathUUID(r, "systemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateSystemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := svc.Update(r.Context(), groupID, systemID, systems.UpdateSystemInput{
			Name:             req.Name,
			StartingPoints:   req.StartingPoints,
			DecayEnabled:     req.DecayEnabled,
			DecayRateBps:     req.DecayRateBps,
			DecayMinimum:     req.DecayMinimum,
			AttendancePoints: req.AttendancePoints,
			KillPoints:       req.KillPoints,
			EventPoints:      req.EventPoints,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, system)
	}
}

// ActivateSystem makes the target system the guild's active one.
func ActivateSystem(svc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		systemID, err := pathUUID(r, "systemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := svc.Activate(r.Context(), groupID, systemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, system)
	}
}

// GetSystem returns one of the guild's systems.
func GetSystem(svc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		systemID, err := pathUUID(r, "systemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := svc.Get(r.Context(), groupID, systemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, system)
	}
}

// GetActiveSystem returns the guild's active system.
func GetActiveSystem(svc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := svc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, system)
	}
}

// ListSystems returns every system the guild has configured.
func ListSystems(svc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
