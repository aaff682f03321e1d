package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/teamgrid/community-system/models"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileUserConflict = errors.New("profile already exists for this user")
	ErrProfileUserInvalid  = errors.New("profile user conflict or invalid")
)

type ProfileRepository interface {
	Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error
	GetByID(ctx context.Context, id int) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID int) (*models.Profile, error)
	Update(ctx context.Context, exec SQLExecutor, profile *models.Profile) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresProfileRepository) Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO profiles (user_id, nickname, bio, phone, visibility, photo_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Nickname,
		profile.Bio,
		profile.Phone,
		profile.Visibility,
		profile.PhotoKey,
	).Scan(&profile.ID, &profile.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "profiles_user_id_key" {
					return ErrProfileUserConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "profiles_user_id_fkey" {
					return ErrProfileUserInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	query := `
		SELECT id, user_id, nickname, bio, phone, visibility, photo_key, created_at
		FROM profiles
		WHERE id = $1`
	return r.scanProfile(ctx, query, id)
}

func (r *postgresProfileRepository) GetByUserID(ctx context.Context, userID int) (*models.Profile, error) {
	query := `
		SELECT id, user_id, nickname, bio, phone, visibility, photo_key, created_at
		FROM profiles
		WHERE user_id = $1`
	return r.scanProfile(ctx, query, userID)
}

func (r *postgresProfileRepository) Update(ctx context.Context, exec SQLExecutor, profile *models.Profile) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE profiles SET
			nickname = $1,
			bio = $2,
			phone = $3,
			visibility = $4,
			photo_key = $5
		WHERE id = $6`

	result, err := executor.ExecContext(ctx, query,
		profile.Nickname,
		profile.Bio,
		profile.Phone,
		profile.Visibility,
		profile.PhotoKey,
		profile.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresProfileRepository) scanProfile(ctx context.Context, query string, args ...interface{}) (*models.Profile, error) {
	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Nickname,
		&profile.Bio,
		&profile.Phone,
		&profile.Visibility,
		&profile.PhotoKey,
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return profile, nil
}
