package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Review is a stored landlord review. Move-in/move-out dates carry day
// precision only. Author identity lives on UserID and is never removed from
// storage; anonymity is applied at serialization time.
type Review struct {
	ID     string
	UserID string

	LandlordName     string
	PropertyAddress  string
	FormattedAddress string
	Latitude         *float64
	Longitude        *float64

	OverallRating       float64
	MaintenanceRating   *float64
	CommunicationRating *float64
	RespectRating       *float64
	RentValueRating     *float64

	WouldRentAgain bool
	MonthlyRent    *int
	MoveInDate     *time.Time
	MoveOutDate    *time.Time
	IsAnonymous    bool
	ReviewText     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Bookmark struct {
	ID        string
	UserID    string
	ReviewID  string
	CreatedAt time.Time
}
