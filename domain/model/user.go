package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// User is an application account belonging to one organization.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	UserName       string    `json:"user_name"`
	Password       string    `json:"-"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserClaims carries the authenticated identity through JWT middleware.
type UserClaims struct {
	UserName       string `json:"user_name"`
	OrganizationID string `json:"organization_id"`
	jwt.StandardClaims
}

type ReqLogin struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ReqRegister struct {
	Name           string `json:"name" binding:"required"`
	UserName       string `json:"user_name" binding:"required"`
	Password       string `json:"password" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
}
