package service

import (
	"tenantgate/internal/token"
	"tenantgate/internal/user/models"
)

type LoginCommand struct {
	Username string
	Password string
}

type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

// Result is a freshly issued token pair and the user it was issued to.
type Result struct {
	Pair *token.Pair
	User *models.User
}

// Verification describes a valid access token after its user was reloaded.
type Verification struct {
	Claims *token.Claims
	User   *models.User
}
