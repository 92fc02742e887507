package remotetest

import (
	"errors"
	"net/http"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/Dhoini/customer-console/pkg/req"
	"github.com/Dhoini/customer-console/pkg/res"
	"github.com/gin-gonic/gin"
)

// recordHandler serves one collection of the record store
type recordHandler[T domain.Record] struct {
	store *collection[T]
	check func(T) any // returns validation details, nil when acceptable
	log   *logger.Logger
}

// GetAll returns the full collection
func (h *recordHandler[T]) GetAll(c *gin.Context) {
	records := h.store.list()
	h.log.Debug("Returned %d %s", len(records), h.store.name)
	c.JSON(http.StatusOK, records)
}

// Create stores a record with a client supplied id
func (h *recordHandler[T]) Create(c *gin.Context) {
	record, err := req.HandleBody[T](c, h.log)
	if err != nil {
		return
	}

	if (*record).RecordID() == "" {
		h.log.Warn("Rejected %s without id", h.store.name)
		c.JSON(http.StatusUnprocessableEntity, res.ErrorResponse{Error: "id is required"})
		return
	}

	if details := h.validate(*record); details != nil {
		h.log.Warn("Rejected invalid %s: %v", h.store.name, details)
		c.JSON(http.StatusUnprocessableEntity, res.ErrorResponse{Error: "Invalid record", Details: details})
		return
	}

	if err := h.store.create(*record); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			h.log.Warn("Duplicate %s id: %s", h.store.name, (*record).RecordID())
			c.JSON(http.StatusConflict, res.ErrorResponse{Error: err.Error()})
			return
		}

		h.log.Error("Failed to create record: %v", err)
		c.JSON(http.StatusInternalServerError, res.ErrorResponse{Error: "Failed to create record"})
		return
	}

	h.log.Info("Created %s with ID: %s", h.store.name, (*record).RecordID())
	c.JSON(http.StatusCreated, record)
}

// Update replaces an existing record
func (h *recordHandler[T]) Update(c *gin.Context) {
	id := c.Param("id")

	record, err := req.HandleBody[T](c, h.log)
	if err != nil {
		return
	}

	if (*record).RecordID() != id {
		h.log.Warn("Body id %q does not match path id %q", (*record).RecordID(), id)
		c.JSON(http.StatusBadRequest, res.ErrorResponse{Error: "id mismatch"})
		return
	}

	if details := h.validate(*record); details != nil {
		c.JSON(http.StatusUnprocessableEntity, res.ErrorResponse{Error: "Invalid record", Details: details})
		return
	}

	if err := h.store.update(id, *record); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.log.Warn("%s not found: %s", h.store.name, id)
			c.JSON(http.StatusNotFound, res.ErrorResponse{Error: err.Error()})
			return
		}

		h.log.Error("Failed to update record: %v", err)
		c.JSON(http.StatusInternalServerError, res.ErrorResponse{Error: "Failed to update record"})
		return
	}

	h.log.Info("Updated %s with ID: %s", h.store.name, id)
	c.JSON(http.StatusOK, record)
}

// Delete removes a record
func (h *recordHandler[T]) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.delete(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.log.Warn("%s not found: %s", h.store.name, id)
			c.JSON(http.StatusNotFound, res.ErrorResponse{Error: err.Error()})
			return
		}

		h.log.Error("Failed to delete record: %v", err)
		c.JSON(http.StatusInternalServerError, res.ErrorResponse{Error: "Failed to delete record"})
		return
	}

	h.log.Info("Deleted %s with ID: %s", h.store.name, id)
	c.JSON(http.StatusOK, gin.H{})
}

func (h *recordHandler[T]) validate(record T) any {
	if h.check == nil {
		return nil
	}
	return h.check(record)
}

// transactionBody carries the wire constraints of a transaction
type transactionBody struct {
	ID         string `validate:"required"`
	CustomerID string `validate:"required"`
	PackageID  string `validate:"required"`
	Date       string `validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Total      int64  `validate:"gte=0"`
}

func checkTransaction(t domain.Transaction) any {
	err := req.IsValid(transactionBody{
		ID:         t.ID,
		CustomerID: t.CustomerID,
		PackageID:  t.PackageID,
		Date:       t.Date,
		Total:      t.Total,
	})
	if err != nil {
		return err.Error()
	}
	return nil
}

// user is a stored account; the password never leaves the server
type user struct {
	domain.User
	Password string
}

// users answers GET /users?username=&password= with the matching accounts
func (s *Server) users(c *gin.Context) {
	username := c.Query("username")
	password := c.Query("password")

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []domain.User{}
	for _, u := range s.accounts {
		if u.Username == username && u.Password == password {
			matches = append(matches, u.User)
		}
	}
	c.JSON(http.StatusOK, matches)
}
