package main

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/middleware"
	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// RegisterRequest creates an organisation and its first admin
type RegisterRequest struct {
	OrgName   string `json:"orgName" binding:"required,notblank,min=2,max=255"`
	AdminName string `json:"adminName" binding:"required,notblank,max=255"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=6,maxbytes=72"`
}

func (r *RegisterRequest) normalize() {
	r.OrgName = strings.TrimSpace(r.OrgName)
	r.AdminName = strings.TrimSpace(r.AdminName)
	r.Email = models.NormalizeEmail(r.Email)
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) normalize() {
	r.Email = models.NormalizeEmail(r.Email)
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	ExpiresIn int64              `json:"expires_in"`
	User      models.UserProfile `json:"user"`
}

func profileOf(user *models.User, org *models.Organisation) models.UserProfile {
	profile := models.UserProfile{ID: user.ID, Name: user.Name, Email: user.Email}
	if org != nil {
		profile.Organisation = org.Summary()
	}
	return profile
}

// handleRegister creates the organisation, its admin and the
// organisation_created entry in one transaction
func handleRegister(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if !bindRequest(c, &req) {
			return
		}
		ctx := c.Request.Context()

		taken, err := s.store.EmailTaken(ctx, req.Email)
		if err != nil {
			respondError(c, err, "", "Registration failed")
			return
		}
		if taken {
			utils.ConflictResponse(c, "Email already registered")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			respondError(c, err, "", "Registration failed")
			return
		}

		var resp AuthResponse
		err = s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			org := &models.Organisation{Name: req.OrgName}
			if err := tx.CreateOrganisation(ctx, org); err != nil {
				return audit.Entry{}, err
			}
			user := &models.User{
				OrganisationID: org.ID,
				Name:           req.AdminName,
				Email:          req.Email,
				PasswordHash:   string(hash),
			}
			if err := tx.CreateUser(ctx, user); err != nil {
				return audit.Entry{}, err
			}

			token, expiresAt, err := s.tokens.Issue(user.ID, org.ID)
			if err != nil {
				return audit.Entry{}, err
			}
			resp = AuthResponse{
				Token:     token,
				ExpiresAt: expiresAt,
				ExpiresIn: int64(s.tokens.TTL().Seconds()),
				User:      profileOf(user, org),
			}

			return audit.For(org.ID, user.ID, models.ActionOrganisationCreated, map[string]any{
				"orgName":   org.Name,
				"adminName": user.Name,
			}), nil
		})
		if err != nil {
			respondError(c, err, "", "Registration failed")
			return
		}

		logrus.WithFields(logrus.Fields{
			"organisation_id": resp.User.Organisation.ID,
			"user_id":         resp.User.ID,
		}).Info("Organisation registered")
		utils.CreatedResponse(c, "Organisation created successfully", resp)
	}
}

// handleLogin verifies credentials. Unknown email and wrong password share
// one response.
func handleLogin(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !bindRequest(c, &req) {
			return
		}
		ctx := c.Request.Context()

		user, err := s.store.FindUserByEmail(ctx, req.Email)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			respondError(c, err, "", "Login failed")
			return
		}
		if user == nil {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}

		token, expiresAt, err := s.tokens.Issue(user.ID, user.OrganisationID)
		if err != nil {
			respondError(c, err, "", "Login failed")
			return
		}

		err = s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			return audit.For(user.OrganisationID, user.ID, models.ActionUserLogin, map[string]any{
				"email": user.Email,
			}), nil
		})
		if err != nil {
			respondError(c, err, "", "Login failed")
			return
		}

		utils.OKResponse(c, "Login successful", AuthResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			ExpiresIn: int64(s.tokens.TTL().Seconds()),
			User:      profileOf(user, user.Organisation),
		})
	}
}

// handleLogout records the logout; tokens stay valid until they expire
func handleLogout(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := middleware.GetPrincipal(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "Not authenticated")
			return
		}

		var meta map[string]any
		if profile, ok := middleware.GetProfile(c); ok {
			meta = map[string]any{"email": profile.Email}
		}

		err = s.mutate(c.Request.Context(), func(tx *store.Store) (audit.Entry, error) {
			return audit.For(principal.OrganisationID, principal.UserID, models.ActionUserLogout, meta), nil
		})
		if err != nil {
			respondError(c, err, "", "Logout failed")
			return
		}

		utils.OKResponse(c, "Logged out successfully", nil)
	}
}

// handleMe returns the caller and their organisation
func handleMe(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := middleware.GetPrincipal(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "Not authenticated")
			return
		}

		user, err := s.store.GetUser(c.Request.Context(), principal.UserID)
		if err != nil {
			respondError(c, err, "User not found", "Failed to fetch user")
			return
		}

		utils.OKResponse(c, "User retrieved successfully", profileOf(user, user.Organisation))
	}
}
