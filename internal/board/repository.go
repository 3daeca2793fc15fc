package board

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
)

type BoardRepository interface {
	Create(ctx context.Context, ownerID string, b *Board) error
	FindByID(ctx context.Context, id string) (*Board, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]Board, BoardsMeta, error)
	Save(ctx context.Context, b *Board) error
	Delete(ctx context.Context, id string) error

	CanView(ctx context.Context, boardID, userID string) (bool, error)
	CanEdit(ctx context.Context, boardID, userID string) (bool, error)
	GetUserRole(ctx context.Context, boardID, userID string) (string, error)

	ListCollaborators(ctx context.Context, boardID string) ([]BoardCollaborator, error)
	AddCollaborator(ctx context.Context, collaborator *BoardCollaborator) error
	RemoveCollaborator(ctx context.Context, boardID, userID string) error

	ListElements(ctx context.Context, boardID string) ([]Element, error)
	CreateElement(ctx context.Context, element *Element) error
	FindElementByID(ctx context.Context, id string) (*Element, error)
	MergeElementProperties(ctx context.Context, id string, partial Properties) (Properties, error)
	DeleteElement(ctx context.Context, id string) error
}

type BoardRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new board repository
func NewRepository(db *gorm.DB) BoardRepository {
	return &BoardRepositoryImpl{db: db}
}

func (r *BoardRepositoryImpl) Create(ctx context.Context, ownerID string, b *Board) error {
	b.OwnerID = ownerID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BoardRepositoryImpl) FindByID(ctx context.Context, id string) (*Board, error) {
	var b Board
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type BoardsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

// ListForUser returns boards the user owns or collaborates on, most recently
// updated first.
func (r *BoardRepositoryImpl) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]Board, BoardsMeta, error) {
	var boards []Board
	var totalRecords int64

	scope := func(tx *gorm.DB) *gorm.DB {
		return tx.Where(
			"owner_id = ? OR EXISTS (SELECT 1 FROM board_collaborators bc WHERE bc.board_id = boards.id AND bc.user_id = ?)",
			userID, userID,
		)
	}

	if err := r.db.WithContext(ctx).Model(&Board{}).Scopes(scope).Count(&totalRecords).Error; err != nil {
		return boards, BoardsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&boards).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return boards, BoardsMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *BoardRepositoryImpl) Save(ctx context.Context, b *Board) error {
	b.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BoardRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&Element{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&BoardCollaborator{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Board{}).Error
	})
}

// CanView reports whether the user is the owner, any collaborator, or the
// board is public. Evaluated fresh on every call, never cached.
func (r *BoardRepositoryImpl) CanView(ctx context.Context, boardID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Board{}).
		Where(`id = ? AND (owner_id = ? OR is_public = true OR
			EXISTS (SELECT 1 FROM board_collaborators bc WHERE bc.board_id = boards.id AND bc.user_id = ?))`,
			boardID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// CanEdit reports whether the user is the owner or holds an EDITOR/ADMIN
// role. Stricter than CanView: public boards are not editable by visitors.
func (r *BoardRepositoryImpl) CanEdit(ctx context.Context, boardID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Board{}).
		Where(`id = ? AND (owner_id = ? OR
			EXISTS (SELECT 1 FROM board_collaborators bc
				WHERE bc.board_id = boards.id AND bc.user_id = ? AND bc.role IN (?, ?)))`,
			boardID, userID, userID, RoleEditor, RoleAdmin).
		Count(&count).Error
	return count > 0, err
}

func (r *BoardRepositoryImpl) GetUserRole(ctx context.Context, boardID, userID string) (string, error) {
	var role string
	err := r.db.WithContext(ctx).Model(&BoardCollaborator{}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Select("role").
		Scan(&role).Error
	if err != nil || role == "" {
		return "none", err
	}
	return role, nil
}

func (r *BoardRepositoryImpl) ListCollaborators(ctx context.Context, boardID string) ([]BoardCollaborator, error) {
	var collaborators []BoardCollaborator
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("added_at ASC").
		Find(&collaborators).Error
	return collaborators, err
}

func (r *BoardRepositoryImpl) AddCollaborator(ctx context.Context, collaborator *BoardCollaborator) error {
	collaborator.AddedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(collaborator).Error
}

func (r *BoardRepositoryImpl) RemoveCollaborator(ctx context.Context, boardID, userID string) error {
	return r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&BoardCollaborator{}).Error
}

func (r *BoardRepositoryImpl) ListElements(ctx context.Context, boardID string) ([]Element, error) {
	var elements []Element
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("z_index ASC, created_at ASC").
		Find(&elements).Error
	return elements, err
}

func (r *BoardRepositoryImpl) CreateElement(ctx context.Context, element *Element) error {
	element.CreatedAt = time.Now().UTC()
	element.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(element).Error
}

func (r *BoardRepositoryImpl) FindElementByID(ctx context.Context, id string) (*Element, error) {
	var element Element
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&element).Error
	if err != nil {
		return nil, err
	}
	return &element, nil
}

// MergeElementProperties applies a shallow merge of partial into the stored
// properties as a single statement, so concurrent updates to different keys
// are never lost to a read-modify-write race.
func (r *BoardRepositoryImpl) MergeElementProperties(ctx context.Context, id string, partial Properties) (Properties, error) {
	var merged Properties
	row := r.db.WithContext(ctx).Raw(`
		UPDATE elements
		SET properties = properties || ?::jsonb,
		    updated_at = ?
		WHERE id = ?
		RETURNING properties
	`, partial, time.Now().UTC(), id).Row()

	if err := row.Scan(&merged); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return merged, nil
}

func (r *BoardRepositoryImpl) DeleteElement(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&Element{}).Error
}
