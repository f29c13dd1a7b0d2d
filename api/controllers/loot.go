package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/api/middleware"
	"github.com/guildforge/guildforge-backend/api/responses"
	"github.com/guildforge/guildforge-backend/api/validators"
	"github.com/guildforge/guildforge-backend/internal/loot"
	"github.com/guildforge/guildforge-backend/internal/systems"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/enums"
	pkgerrors "github.com/guildforge/guildforge-backend/pkg/errors"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
)

type recordDropRequest struct {
	ItemName    string  `json:"item_name" validate:"required,min=1,max=200"`
	ItemRarity  string  `json:"item_rarity" validate:"omitempty"`
	ItemSlot    *string `json:"item_slot" validate:"omitempty,max=60"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	SourceType  string  `json:"source_type" validate:"omitempty"`
	SourceName  *string `json:"source_name" validate:"omitempty,max=200"`
	DroppedAt   *string `json:"dropped_at" validate:"omitempty"`

	AwardTo *string `json:"award_to" validate:"omitempty,uuid"`
	Cost    int64   `json:"cost" validate:"gte=0"`
}

type distributeRequest struct {
	CharacterID string `json:"character_id" validate:"required,uuid"`
	Cost        int64  `json:"cost" validate:"gte=0"`
}

type lootHistoryResponse struct {
	Records []models.LootRecord `json:"records"`
	Cursor  string              `json:"cursor,omitempty"`
}

// RecordLootDrop logs an item drop, optionally distributing it immediately.
func RecordLootDrop(lootSvc loot.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordDropRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := loot.RecordDropInput{
			SystemID:    system.ID,
			ItemName:    validators.SanitizeString(req.ItemName, 200),
			ItemRarity:  enums.ItemRarity(req.ItemRarity),
			ItemSlot:    req.ItemSlot,
			Description: req.Description,
			SourceType:  enums.LootSourceType(req.SourceType),
			SourceName:  req.SourceName,
			Cost:        req.Cost,
		}

		if req.DroppedAt != nil {
			droppedAt, err := time.Parse(time.RFC3339, *req.DroppedAt)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dropped_at timestamp"))
				return
			}
			input.DroppedAt = droppedAt
		}

		if req.AwardTo != nil {
			awardTo, err := uuid.Parse(*req.AwardTo)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid award_to id"))
				return
			}
			input.AwardTo = &awardTo
			input.AwardedBy = middleware.ActorIDFromContext(r.Context())
		}

		record, err := lootSvc.RecordDrop(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// DistributeLoot assigns a pending drop to a character and charges its cost.
func DistributeLoot(lootSvc loot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lootID, err := pathUUID(r, "lootID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req distributeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		characterID, err := uuid.Parse(req.CharacterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid character id"))
			return
		}

		record, err := lootSvc.Distribute(r.Context(), loot.DistributeInput{
			LootID:      lootID,
			CharacterID: characterID,
			AwardedBy:   middleware.ActorIDFromContext(r.Context()),
			Cost:        req.Cost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// GetLootRecord returns a single loot record.
func GetLootRecord(lootSvc loot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lootID, err := pathUUID(r, "lootID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := lootSvc.Get(r.Context(), lootID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// LootHistory returns the guild's loot log with optional filters.
func LootHistory(lootSvc loot.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := loot.HistoryParams{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("character_id")); raw != "" {
			characterID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid character_id filter"))
				return
			}
			params.CharacterID = &characterID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("rarity")); raw != "" {
			rarity, err := enums.ParseItemRarity(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rarity filter"))
				return
			}
			params.Rarity = &rarity
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("source")); raw != "" {
			source, err := enums.ParseLootSourceType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source filter"))
				return
			}
			params.SourceType = &source
		}
		switch strings.TrimSpace(r.URL.Query().Get("status")) {
		case "":
		case "pending":
			params.PendingOnly = true
		case "distributed":
			params.DistributedOnly = true
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "status must be pending or distributed"))
			return
		}

		records, next, err := lootSvc.History(r.Context(), system.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := lootHistoryResponse{Records: records}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}
