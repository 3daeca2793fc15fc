package board

import (
	"net/http"

	"collaborative-canvas/internal/errors"
	"collaborative-canvas/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for boards
type Handler struct {
	service Service
}

// NewHandler creates a new board handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateBoardRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=255"`
	IsPublic bool   `json:"isPublic"`
}

type UpdateBoardRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=255"`
	IsPublic *bool   `json:"isPublic"`
}

type AddCollaboratorRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Role   string `json:"role" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateBoardRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	b, err := h.service.CreateBoard(c.Request.Context(), userID.(string), form.Title, form.IsPublic)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

func (h *Handler) List(c *gin.Context) {
	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.GetUserBoards(c.Request.Context(), userID.(string), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Show(c *gin.Context) {
	userID, _ := c.Get("user_id")

	b, err := h.service.GetBoard(c.Request.Context(), c.Param("id"), userID.(string))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b)
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdateBoardRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	b, err := h.service.UpdateBoard(c.Request.Context(), c.Param("id"), userID.(string), BoardPatch{
		Title:    form.Title,
		IsPublic: form.IsPublic,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b)
}

func (h *Handler) Delete(c *gin.Context) {
	userID, _ := c.Get("user_id")

	if err := h.service.DeleteBoard(c.Request.Context(), c.Param("id"), userID.(string)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListElements(c *gin.Context) {
	userID, _ := c.Get("user_id")

	elements, err := h.service.GetBoardElements(c.Request.Context(), c.Param("id"), userID.(string))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, elements)
}

func (h *Handler) ListCollaborators(c *gin.Context) {
	userID, _ := c.Get("user_id")

	collaborators, err := h.service.ListCollaborators(c.Request.Context(), c.Param("id"), userID.(string))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, collaborators)
}

func (h *Handler) AddCollaborator(c *gin.Context) {
	var form AddCollaboratorRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	collaborator, err := h.service.AddCollaborator(c.Request.Context(), c.Param("id"), userID.(string), form.UserID, form.Role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, collaborator)
}

func (h *Handler) RemoveCollaborator(c *gin.Context) {
	userID, _ := c.Get("user_id")

	err := h.service.RemoveCollaborator(c.Request.Context(), c.Param("id"), userID.(string), c.Param("userId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
