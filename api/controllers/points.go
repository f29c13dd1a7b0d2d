package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/api/responses"
	"github.com/guildforge/guildforge-backend/api/validators"
	"github.com/guildforge/guildforge-backend/internal/points"
	"github.com/guildforge/guildforge-backend/internal/systems"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	pkgerrors "github.com/guildforge/guildforge-backend/pkg/errors"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
)

const maxReasonLength = 255

// Award kinds mapped to the active system's configured point values.
const (
	awardKindAttendance = "attendance"
	awardKindKill       = "kill"
	awardKindEvent      = "event"
	awardKindCustom     = "custom"
)

type awardPointsRequest struct {
	CharacterID string `json:"character_id" validate:"required,uuid"`
	Kind        string `json:"kind" validate:"omitempty,oneof=attendance kill event custom"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	Reason      string `json:"reason" validate:"omitempty,max=255"`
}

type awardBulkRequest struct {
	CharacterIDs []string `json:"character_ids" validate:"required,min=1,max=100,dive,uuid"`
	Kind         string   `json:"kind" validate:"omitempty,oneof=attendance kill event custom"`
	Amount       int64    `json:"amount" validate:"gte=0"`
	Reason       string   `json:"reason" validate:"omitempty,max=255"`
}

type deductPointsRequest struct {
	CharacterID string `json:"character_id" validate:"required,uuid"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Reason      string `json:"reason" validate:"required,max=255"`
}

type ledgerEntriesResponse struct {
	Entries []models.LedgerEntry `json:"entries"`
	Cursor  string               `json:"cursor,omitempty"`
}

// resolveAward maps a request kind to the concrete amount and reason using
// the active system's configured values.
func resolveAward(system *models.PointSystem, kind string, amount int64, reason string) (int64, string, error) {
	switch kind {
	case awardKindAttendance:
		return system.AttendancePoints, defaultReason(reason, "raid attendance"), nil
	case awardKindKill:
		return system.KillPoints, defaultReason(reason, "boss kill"), nil
	case awardKindEvent:
		return system.EventPoints, defaultReason(reason, "guild event"), nil
	case awardKindCustom, "":
		if amount <= 0 {
			return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive for custom awards")
		}
		if strings.TrimSpace(reason) == "" {
			return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "reason is required for custom awards")
		}
		return amount, reason, nil
	}
	return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid award kind")
}

func defaultReason(reason, fallback string) string {
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		return trimmed
	}
	return fallback
}

// AwardPoints grants points to one character under the guild's active system.
func AwardPoints(pointsSvc points.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req awardPointsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		characterID, err := uuid.Parse(req.CharacterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid character id"))
			return
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, reason, err := resolveAward(system, req.Kind, req.Amount, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := pointsSvc.Award(r.Context(), system.ID, characterID, amount, validators.SanitizeString(reason, maxReasonLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// AwardPointsBulk grants the same amount to a roster of characters atomically.
func AwardPointsBulk(pointsSvc points.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req awardBulkRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		characterIDs := make([]uuid.UUID, 0, len(req.CharacterIDs))
		for _, raw := range req.CharacterIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid character id"))
				return
			}
			characterIDs = append(characterIDs, id)
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, reason, err := resolveAward(system, req.Kind, req.Amount, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accounts, err := pointsSvc.AwardBulk(r.Context(), system.ID, characterIDs, amount, validators.SanitizeString(reason, maxReasonLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, accounts)
	}
}

// DeductPoints charges a character under the guild's active system.
func DeductPoints(pointsSvc points.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deductPointsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		characterID, err := uuid.Parse(req.CharacterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid character id"))
			return
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := pointsSvc.Deduct(r.Context(), system.ID, characterID, req.Amount, validators.SanitizeString(req.Reason, maxReasonLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// GetAccount returns a character's balance under the active system.
func GetAccount(pointsSvc points.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		characterID, err := pathUUID(r, "characterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := pointsSvc.Account(r.Context(), system.ID, characterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// GetLedger returns a character's transaction history, newest first.
func GetLedger(pointsSvc points.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		characterID, err := pathUUID(r, "characterID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := pointsSvc.Account(r.Context(), system.ID, characterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, next, err := pointsSvc.Entries(r.Context(), account.ID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := ledgerEntriesResponse{Entries: entries}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}
