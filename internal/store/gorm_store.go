package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&UserModel{}, &ReviewModel{}, &BookmarkModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser inserts a user. Duplicate emails map to ErrDuplicateKey.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUserEmails resolves author emails for a set of user IDs in one query.
func (s *GormStore) ListUserEmails(ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []UserModel
	if err := s.db.Select("id", "email").Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.ID] = m.Email
	}
	return out, nil
}

// DeleteUser removes the user and cascades to owned reviews and bookmarks.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&BookmarkModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id IN (?)",
			tx.Model(&ReviewModel{}).Select("id").Where("user_id = ?", id),
		).Delete(&BookmarkModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ReviewModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "id = ?", id).Error
	})
}

// CreateReview inserts a new review row.
func (s *GormStore) CreateReview(r domain.Review) error {
	model := reviewToModel(r)
	return s.db.Create(&model).Error
}

// GetReview retrieves a review.
func (s *GormStore) GetReview(id string) (domain.Review, bool, error) {
	var model ReviewModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, false, nil
		}
		return domain.Review{}, false, err
	}
	return reviewFromModel(model), true, nil
}

// ListReviews returns the most recent reviews, newest first.
func (s *GormStore) ListReviews(limit int) ([]domain.Review, error) {
	return s.listReviews(limit)
}

// ListReviewsByAuthor returns one author's reviews, newest first.
func (s *GormStore) ListReviewsByAuthor(userID string) ([]domain.Review, error) {
	return s.listReviews(0, "user_id = ?", userID)
}

func (s *GormStore) listReviews(limit int, conds ...any) ([]domain.Review, error) {
	var models []ReviewModel
	tx := s.db.Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Review, 0, len(models))
	for _, m := range models {
		res = append(res, reviewFromModel(m))
	}
	return res, nil
}

// CreateBookmark inserts a bookmark. A second bookmark for the same
// (user, review) pair maps to ErrDuplicateKey via the composite unique index.
func (s *GormStore) CreateBookmark(b domain.Bookmark) error {
	model := bookmarkToModel(b)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// DeleteBookmark removes the pair and reports whether it existed.
func (s *GormStore) DeleteBookmark(userID, reviewID string) (bool, error) {
	res := s.db.Delete(&BookmarkModel{}, "user_id = ? AND review_id = ?", userID, reviewID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasBookmark checks existence of the (user, review) pair.
func (s *GormStore) HasBookmark(userID, reviewID string) (bool, error) {
	var count int64
	if err := s.db.Model(&BookmarkModel{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListBookmarksByUser returns a user's bookmarks, newest first.
func (s *GormStore) ListBookmarksByUser(userID string) ([]domain.Bookmark, error) {
	var models []BookmarkModel
	if err := s.db.Order("created_at DESC").Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Bookmark, 0, len(models))
	for _, m := range models {
		res = append(res, bookmarkFromModel(m))
	}
	return res, nil
}

// ListBookmarkedReviewIDs returns the review IDs a user has bookmarked.
func (s *GormStore) ListBookmarkedReviewIDs(userID string) ([]string, error) {
	var ids []string
	if err := s.db.Model(&BookmarkModel{}).
		Where("user_id = ?", userID).
		Pluck("review_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func reviewToModel(r domain.Review) ReviewModel {
	return ReviewModel{
		ID:                  r.ID,
		UserID:              r.UserID,
		LandlordName:        r.LandlordName,
		PropertyAddress:     r.PropertyAddress,
		FormattedAddress:    r.FormattedAddress,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		OverallRating:       r.OverallRating,
		MaintenanceRating:   r.MaintenanceRating,
		CommunicationRating: r.CommunicationRating,
		RespectRating:       r.RespectRating,
		RentValueRating:     r.RentValueRating,
		WouldRentAgain:      r.WouldRentAgain,
		MonthlyRent:         r.MonthlyRent,
		MoveInDate:          dateToModel(r.MoveInDate),
		MoveOutDate:         dateToModel(r.MoveOutDate),
		IsAnonymous:         r.IsAnonymous,
		ReviewText:          r.ReviewText,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func reviewFromModel(m ReviewModel) domain.Review {
	return domain.Review{
		ID:                  m.ID,
		UserID:              m.UserID,
		LandlordName:        m.LandlordName,
		PropertyAddress:     m.PropertyAddress,
		FormattedAddress:    m.FormattedAddress,
		Latitude:            m.Latitude,
		Longitude:           m.Longitude,
		OverallRating:       m.OverallRating,
		MaintenanceRating:   m.MaintenanceRating,
		CommunicationRating: m.CommunicationRating,
		RespectRating:       m.RespectRating,
		RentValueRating:     m.RentValueRating,
		WouldRentAgain:      m.WouldRentAgain,
		MonthlyRent:         m.MonthlyRent,
		MoveInDate:          dateFromModel(m.MoveInDate),
		MoveOutDate:         dateFromModel(m.MoveOutDate),
		IsAnonymous:         m.IsAnonymous,
		ReviewText:          m.ReviewText,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func bookmarkToModel(b domain.Bookmark) BookmarkModel {
	return BookmarkModel{
		ID:        b.ID,
		UserID:    b.UserID,
		ReviewID:  b.ReviewID,
		CreatedAt: b.CreatedAt,
	}
}

func bookmarkFromModel(m BookmarkModel) domain.Bookmark {
	return domain.Bookmark{
		ID:        m.ID,
		UserID:    m.UserID,
		ReviewID:  m.ReviewID,
		CreatedAt: m.CreatedAt,
	}
}

func dateToModel(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := datatypes.Date(*t)
	return &d
}

func dateFromModel(d *datatypes.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}
