package board

import (
	"context"
	defError "errors"

	"collaborative-canvas/internal/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines the interface for board business logic
type Service interface {
	CreateBoard(ctx context.Context, ownerID, title string, isPublic bool) (*Board, error)
	GetUserBoards(ctx context.Context, userID string, page, pageSize int) (*PaginatedBoards, error)
	GetBoard(ctx context.Context, boardID, userID string) (*Board, error)
	UpdateBoard(ctx context.Context, boardID, userID string, patch BoardPatch) (*Board, error)
	DeleteBoard(ctx context.Context, boardID, userID string) error
	GetBoardElements(ctx context.Context, boardID, userID string) ([]Element, error)
	ListCollaborators(ctx context.Context, boardID, requesterID string) ([]BoardCollaborator, error)
	AddCollaborator(ctx context.Context, boardID, requesterID, targetUserID, role string) (*BoardCollaborator, error)
	RemoveCollaborator(ctx context.Context, boardID, requesterID, targetUserID string) error
}

type DefaultService struct {
	repository BoardRepository
}

// NewService creates a new board service
func NewService(repository BoardRepository) Service {
	return &DefaultService{repository: repository}
}

type PaginatedBoards struct {
	Data []Board    `json:"data"`
	Meta BoardsMeta `json:"meta"`
}

// BoardPatch carries the optional fields of a board update
type BoardPatch struct {
	Title    *string
	IsPublic *bool
}

func (s *DefaultService) CreateBoard(ctx context.Context, ownerID, title string, isPublic bool) (*Board, error) {
	b := &Board{
		ID:       uuid.NewString(),
		Title:    title,
		IsPublic: isPublic,
	}
	if err := s.repository.Create(ctx, ownerID, b); err != nil {
		return nil, errors.Internal(err)
	}
	return b, nil
}

func (s *DefaultService) GetUserBoards(ctx context.Context, userID string, page, pageSize int) (*PaginatedBoards, error) {
	boards, meta, err := s.repository.ListForUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &PaginatedBoards{Data: boards, Meta: meta}, nil
}

// GetBoard returns the board if the user may view it. A missing board and a
// denied board are indistinguishable to the caller.
func (s *DefaultService) GetBoard(ctx context.Context, boardID, userID string) (*Board, error) {
	ok, err := s.repository.CanView(ctx, boardID, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Board not found or access denied", nil)
	}

	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Board not found or access denied", err)
		}
		return nil, errors.Internal(err)
	}
	return b, nil
}

func (s *DefaultService) UpdateBoard(ctx context.Context, boardID, userID string, patch BoardPatch) (*Board, error) {
	ok, err := s.repository.CanEdit(ctx, boardID, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Board not found or access denied", nil)
	}

	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		return nil, errors.NotFound("Board not found or access denied", err)
	}

	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.IsPublic != nil {
		b.IsPublic = *patch.IsPublic
	}

	if err := s.repository.Save(ctx, b); err != nil {
		return nil, errors.Internal(err)
	}
	return b, nil
}

// DeleteBoard removes a board. Only the owner may delete.
func (s *DefaultService) DeleteBoard(ctx context.Context, boardID, userID string) error {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		return errors.NotFound("Board not found or access denied", err)
	}
	if b.OwnerID != userID {
		return errors.NotFound("Board not found or access denied", nil)
	}
	if err := s.repository.Delete(ctx, boardID); err != nil {
		return errors.Internal(err)
	}
	return nil
}

func (s *DefaultService) GetBoardElements(ctx context.Context, boardID, userID string) ([]Element, error) {
	ok, err := s.repository.CanView(ctx, boardID, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Board not found or access denied", nil)
	}

	elements, err := s.repository.ListElements(ctx, boardID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return elements, nil
}

func (s *DefaultService) ListCollaborators(ctx context.Context, boardID, requesterID string) ([]BoardCollaborator, error) {
	ok, err := s.repository.CanView(ctx, boardID, requesterID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !ok {
		return nil, errors.NotFound("Board not found or access denied", nil)
	}
	collaborators, err := s.repository.ListCollaborators(ctx, boardID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return collaborators, nil
}

func (s *DefaultService) AddCollaborator(ctx context.Context, boardID, requesterID, targetUserID, role string) (*BoardCollaborator, error) {
	if role != RoleViewer && role != RoleEditor && role != RoleAdmin {
		return nil, errors.Unprocessable("Invalid collaborator role", nil)
	}

	if err := s.requireManager(ctx, boardID, requesterID); err != nil {
		return nil, err
	}

	collaborator := &BoardCollaborator{
		BoardID: boardID,
		UserID:  targetUserID,
		Role:    role,
	}
	if err := s.repository.AddCollaborator(ctx, collaborator); err != nil {
		return nil, errors.Unprocessable("User is already a collaborator", err)
	}
	return collaborator, nil
}

func (s *DefaultService) RemoveCollaborator(ctx context.Context, boardID, requesterID, targetUserID string) error {
	if err := s.requireManager(ctx, boardID, requesterID); err != nil {
		return err
	}
	if err := s.repository.RemoveCollaborator(ctx, boardID, targetUserID); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// requireManager allows the owner or an ADMIN collaborator to manage the
// collaborator list.
func (s *DefaultService) requireManager(ctx context.Context, boardID, requesterID string) error {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		return errors.NotFound("Board not found or access denied", err)
	}
	if b.OwnerID == requesterID {
		return nil
	}

	role, err := s.repository.GetUserRole(ctx, boardID, requesterID)
	if err != nil {
		return errors.Internal(err)
	}
	if role != RoleAdmin {
		return errors.Forbidden("Permission denied", nil)
	}
	return nil
}
