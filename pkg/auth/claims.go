package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID uuid.UUID
	GroupID uuid.UUID
	Role    enums.ActorRole
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients. ActorID is
// the guild member's identity-provider id; GroupID scopes every request to
// one guild.
type AccessTokenClaims struct {
	ActorID uuid.UUID       `json:"actor_id"`
	GroupID uuid.UUID       `json:"group_id"`
	Role    enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
