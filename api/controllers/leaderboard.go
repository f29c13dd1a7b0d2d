package controllers

import (
	"net/http"

	"github.com/guildforge/guildforge-backend/api/responses"
	"github.com/guildforge/guildforge-backend/api/validators"
	"github.com/guildforge/guildforge-backend/internal/ranking"
	"github.com/guildforge/guildforge-backend/internal/systems"
	"github.com/guildforge/guildforge-backend/pkg/logger"
)

const maxLeaderboardLimit = 500

// Leaderboard returns the active system's standings, highest balance first.
func Leaderboard(rankingSvc ranking.Service, systemsSvc systems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxLeaderboardLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		system, err := systemsSvc.ActiveForGroup(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := rankingSvc.Leaderboard(r.Context(), system.ID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
