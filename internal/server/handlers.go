package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quickwish/quickwish/internal/wish"
)

type sessionRequest struct {
	UserID string `json:"user_id"`
}

// handleCreateSession issues a bearer token for the given user ID,
// minting a fresh ID when none is supplied. The development stand-in
// for the real identity provider.
func (s *Server) handleCreateSession(c *gin.Context) {
	// Body is optional; an empty request gets a fresh user.
	var req sessionRequest
	_ = c.ShouldBindJSON(&req)

	if req.UserID == "" {
		req.UserID = "user_" + uuid.NewString()
	}

	token, err := s.auth.IssueToken(req.UserID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Authentication service error"})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       req.UserID,
		"session_token": token,
	})
}

func (s *Server) handleCreateWish(c *gin.Context) {
	var req wish.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})

		return
	}

	if req.RadiusKm == 0 {
		req.RadiusKm = wish.DefaultRadiusKm
	}

	created := s.store.CreateWish(currentUser(c), req)

	s.logger.Info("wish created",
		"wish_id", created.ID,
		"user_id", created.UserID,
		"type", created.Type,
	)

	c.JSON(http.StatusOK, created)
}

func (s *Server) handleListWishes(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListWishes(currentUser(c)))
}

func (s *Server) handleGetWish(c *gin.Context) {
	w := s.store.GetWish(c.Param("id"))
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Wish not found"})

		return
	}

	c.JSON(http.StatusOK, w)
}

// handleUpdateWish edits a wish. Only pending wishes owned by the
// caller may change.
func (s *Server) handleUpdateWish(c *gin.Context) {
	w := s.store.GetWish(c.Param("id"))
	if w == nil || w.UserID != currentUser(c) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Wish not found"})

		return
	}

	if w.Status != wish.StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Can only edit pending wishes"})

		return
	}

	var req wish.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})

		return
	}

	s.store.UpdateWish(w, req)

	c.JSON(http.StatusOK, w)
}

// handleCancelWish cancels a wish. Only pending wishes can be
// cancelled; anything already picked up stays live.
func (s *Server) handleCancelWish(c *gin.Context) {
	w := s.store.GetWish(c.Param("id"))
	if w == nil || w.UserID != currentUser(c) ||
		!s.store.SetStatus(w, wish.StatusCancelled, wish.StatusPending) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Cannot cancel this wish"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wish cancelled"})
}

// handleCompleteWish marks a wish completed from any live status.
func (s *Server) handleCompleteWish(c *gin.Context) {
	w := s.store.GetWish(c.Param("id"))
	if w == nil || w.UserID != currentUser(c) ||
		!s.store.SetStatus(w, wish.StatusCompleted,
			wish.StatusPending, wish.StatusAccepted, wish.StatusInProgress) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Cannot complete this wish"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wish marked as completed"})
}

func (s *Server) handleDeleteWish(c *gin.Context) {
	if !s.store.DeleteWish(currentUser(c), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Wish not found or cannot be deleted"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wish deleted"})
}

type phoneUpdate struct {
	Phone string `json:"phone"`
}

func (s *Server) handleUpdatePhone(c *gin.Context) {
	var req phoneUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})

		return
	}

	s.store.SetPhone(currentUser(c), req.Phone)

	c.JSON(http.StatusOK, gin.H{"message": "Phone updated successfully"})
}

func (s *Server) handleAddAddress(c *gin.Context) {
	var addr SavedAddress
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})

		return
	}

	saved := s.store.AddAddress(currentUser(c), addr)

	c.JSON(http.StatusOK, gin.H{"message": "Address added", "address": saved})
}

func (s *Server) handleDeleteAddress(c *gin.Context) {
	s.store.DeleteAddress(currentUser(c), c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
