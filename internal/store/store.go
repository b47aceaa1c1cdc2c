package store

import (
	"errors"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
)

// ErrDuplicateKey is returned when an insert violates a uniqueness
// constraint (email, or the per-user bookmark pair). The database index is
// the final arbiter; application pre-checks only improve error messages.
var ErrDuplicateKey = errors.New("duplicate key")

// Store defines persistence operations for users, reviews, and bookmarks.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUserEmails(ids []string) (map[string]string, error)
	DeleteUser(id string) error

	// reviews
	CreateReview(domain.Review) error
	GetReview(id string) (domain.Review, bool, error)
	ListReviews(limit int) ([]domain.Review, error)
	ListReviewsByAuthor(userID string) ([]domain.Review, error)

	// bookmarks
	CreateBookmark(domain.Bookmark) error
	DeleteBookmark(userID, reviewID string) (bool, error)
	HasBookmark(userID, reviewID string) (bool, error)
	ListBookmarksByUser(userID string) ([]domain.Bookmark, error)
	ListBookmarkedReviewIDs(userID string) ([]string, error)
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
}
