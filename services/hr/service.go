package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/middleware"
	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// hrService holds the collaborators shared by every handler
type hrService struct {
	store      *store.Store
	audit      *audit.Logger
	tokens     *utils.TokenService
	cache      *utils.PrincipalCache
	bcryptCost int
	// compared against when the login email is unknown so both failure
	// paths spend the same bcrypt time
	dummyHash []byte
}

func newHRService(s *store.Store, logger *audit.Logger, tokens *utils.TokenService, cache *utils.PrincipalCache, bcryptCost int) (*hrService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &hrService{
		store:      s,
		audit:      logger,
		tokens:     tokens,
		cache:      cache,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// mutate runs fn and records the audit entry it returns in the same
// transaction. The committed row is then handed to the export sink.
func (s *hrService) mutate(ctx context.Context, fn func(tx *store.Store) (audit.Entry, error)) error {
	var row *models.Log
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		entry, err := fn(tx)
		if err != nil {
			return err
		}
		row, err = s.audit.Record(ctx, tx.DB(), entry)
		return err
	})
	if err != nil {
		return err
	}
	s.audit.Publish(row)
	return nil
}

// tenant returns the organisation-scoped store for the authenticated caller
func (s *hrService) tenant(c *gin.Context) (*store.Tenant, bool) {
	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return nil, false
	}
	return s.store.Tenant(principal), true
}

// normalizer is implemented by request bodies that clean their input
// before validation
type normalizer interface {
	normalize()
}

// bindRequest decodes the JSON body, normalises it and validates the
// binding tags. It writes the 400 response itself and reports success.
func bindRequest(c *gin.Context, req interface{}) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		utils.BadRequestResponse(c, utils.ValidationMessage(err))
		return false
	}
	return true
}

// pathID parses the :id parameter. A malformed id cannot name an existing
// row, so it is answered like a missing one.
func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps store errors onto the response taxonomy
func respondError(c *gin.Context, err error, notFound, failed string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.NotFoundResponse(c, notFound)
	case errors.Is(err, store.ErrEmployeesNotInOrganisation):
		utils.BadRequestResponse(c, "Some employees not found or do not belong to your organisation")
	case errors.Is(err, store.ErrConflict):
		utils.ConflictResponse(c, "Email already registered")
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		utils.BadRequestResponse(c, "password must be at most 72 bytes")
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		}).Error(failed)
		utils.InternalServerErrorResponse(c, failed)
	}
}
