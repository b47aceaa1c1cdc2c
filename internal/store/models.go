package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type ReviewModel struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"not null;index"`

	LandlordName     string `gorm:"size:255;not null"`
	PropertyAddress  string `gorm:"size:512"`
	FormattedAddress string `gorm:"size:512"`
	Latitude         *float64
	Longitude        *float64

	OverallRating       float64 `gorm:"not null"`
	MaintenanceRating   *float64
	CommunicationRating *float64
	RespectRating       *float64
	RentValueRating     *float64

	WouldRentAgain bool `gorm:"not null"`
	MonthlyRent    *int
	MoveInDate     *datatypes.Date
	MoveOutDate    *datatypes.Date
	IsAnonymous    bool   `gorm:"not null"`
	ReviewText     string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

type BookmarkModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_bookmarks_user_review"`
	ReviewID  string    `gorm:"not null;uniqueIndex:idx_bookmarks_user_review;index"`
	CreatedAt time.Time `gorm:"not null"`
}
