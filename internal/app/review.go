package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
	"github.com/dbicalho1/rate-my-landlord/internal/util"
)

const (
	minReviewTextLength   = 20
	maxReviewTextLength   = 5000
	maxLandlordNameLength = 255
	maxAddressLength      = 512

	defaultListLimit = 20
	maxListLimit     = 100

	dateLayout = "2006-01-02"
)

// ReviewInput is the submission payload. Pointer fields distinguish absent
// from zero; wouldRentAgain defaults to true when omitted.
type ReviewInput struct {
	LandlordName        string   `json:"landlordName"`
	OverallRating       *float64 `json:"overallRating"`
	MaintenanceRating   *float64 `json:"maintenanceRating"`
	CommunicationRating *float64 `json:"communicationRating"`
	RespectRating       *float64 `json:"respectRating"`
	RentValueRating     *float64 `json:"rentValueRating"`
	WouldRentAgain      *bool    `json:"wouldRentAgain"`
	MonthlyRent         *int     `json:"monthlyRent"`
	ReviewText          string   `json:"reviewText"`
	PropertyAddress     string   `json:"propertyAddress"`
	IsAnonymous         bool     `json:"isAnonymous"`
	MoveInDate          string   `json:"moveInDate"`
	MoveOutDate         string   `json:"moveOutDate"`
}

// ReviewView is the serialized form of a review: ratings re-clamped, author
// identity suppressed when anonymous, bookmark flag relative to the viewer.
type ReviewView struct {
	ID                  string    `json:"id"`
	LandlordName        string    `json:"landlordName"`
	PropertyAddress     string    `json:"propertyAddress,omitempty"`
	FormattedAddress    string    `json:"formattedAddress,omitempty"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	OverallRating       float64   `json:"overallRating"`
	MaintenanceRating   *float64  `json:"maintenanceRating,omitempty"`
	CommunicationRating *float64  `json:"communicationRating,omitempty"`
	RespectRating       *float64  `json:"respectRating,omitempty"`
	RentValueRating     *float64  `json:"rentValueRating,omitempty"`
	WouldRentAgain      bool      `json:"wouldRentAgain"`
	MonthlyRent         *int      `json:"monthlyRent,omitempty"`
	MoveInDate          string    `json:"moveInDate,omitempty"`
	MoveOutDate         string    `json:"moveOutDate,omitempty"`
	IsAnonymous         bool      `json:"isAnonymous"`
	ReviewText          string    `json:"reviewText"`
	AuthorEmail         string    `json:"authorEmail,omitempty"`
	IsBookmarked        bool      `json:"isBookmarked"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (in ReviewInput) validate() (moveIn, moveOut *time.Time, err error) {
	fields := make(map[string]string)

	if strings.TrimSpace(in.LandlordName) == "" {
		fields["landlordName"] = "is required"
	} else if len(in.LandlordName) > maxLandlordNameLength {
		fields["landlordName"] = fmt.Sprintf("must be at most %d characters", maxLandlordNameLength)
	}

	if in.OverallRating == nil {
		fields["overallRating"] = "is required"
	} else if *in.OverallRating < minRating || *in.OverallRating > maxRating {
		fields["overallRating"] = "must be between 0 and 5"
	}
	for name, v := range map[string]*float64{
		"maintenanceRating":   in.MaintenanceRating,
		"communicationRating": in.CommunicationRating,
		"respectRating":       in.RespectRating,
		"rentValueRating":     in.RentValueRating,
	} {
		if v != nil && (*v < minRating || *v > maxRating) {
			fields[name] = "must be between 0 and 5"
		}
	}

	if length := len(in.ReviewText); length < minReviewTextLength {
		fields["reviewText"] = fmt.Sprintf("must be at least %d characters", minReviewTextLength)
	} else if length > maxReviewTextLength {
		fields["reviewText"] = fmt.Sprintf("must be at most %d characters", maxReviewTextLength)
	}

	if len(in.PropertyAddress) > maxAddressLength {
		fields["propertyAddress"] = fmt.Sprintf("must be at most %d characters", maxAddressLength)
	}
	if in.MonthlyRent != nil && *in.MonthlyRent < 0 {
		fields["monthlyRent"] = "must not be negative"
	}

	moveIn = parseDate(in.MoveInDate, "moveInDate", fields)
	moveOut = parseDate(in.MoveOutDate, "moveOutDate", fields)
	if moveIn != nil && moveOut != nil && moveOut.Before(*moveIn) {
		fields["moveOutDate"] = "cannot be before moveInDate"
	}

	if len(fields) > 0 {
		return nil, nil, &ValidationError{Fields: fields}
	}
	return moveIn, moveOut, nil
}

func parseDate(value, field string, fields map[string]string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		fields[field] = "must be a date in YYYY-MM-DD format"
		return nil
	}
	return &t
}

// SubmitReview creates a review for the user. Steps, in order: schema
// validation, throttle check, best-effort geocoding, rating clamp,
// persistence, throttle record. The throttle is stamped only after the row
// is committed, and a geocoding failure never fails the submission.
func (a *App) SubmitReview(ctx context.Context, user domain.User, input ReviewInput) (ReviewView, error) {
	moveIn, moveOut, err := input.validate()
	if err != nil {
		return ReviewView{}, err
	}

	if allowed, retryAfter := a.limiter.Check(user.ID); !allowed {
		return ReviewView{}, &RateLimitError{RetryAfterSeconds: retryAfter}
	}

	var formattedAddress string
	var latitude, longitude *float64
	if address := strings.TrimSpace(input.PropertyAddress); address != "" && a.geocoder != nil {
		loc, found, geoErr := a.geocoder.Geocode(ctx, address)
		switch {
		case geoErr != nil:
			// Degrade to "no location data"; the review itself is the value.
			util.LoggerFromContext(ctx).Warn("geocode lookup failed", "err", geoErr)
		case found:
			formattedAddress = loc.FormattedAddress
			latitude = &loc.Latitude
			longitude = &loc.Longitude
		}
	}

	wouldRentAgain := true
	if input.WouldRentAgain != nil {
		wouldRentAgain = *input.WouldRentAgain
	}

	now := time.Now().UTC()
	review := domain.Review{
		ID:                  util.NewID(),
		UserID:              user.ID,
		LandlordName:        strings.TrimSpace(input.LandlordName),
		PropertyAddress:     strings.TrimSpace(input.PropertyAddress),
		FormattedAddress:    formattedAddress,
		Latitude:            latitude,
		Longitude:           longitude,
		OverallRating:       clampRating(*input.OverallRating),
		MaintenanceRating:   clampOptionalRating(input.MaintenanceRating),
		CommunicationRating: clampOptionalRating(input.CommunicationRating),
		RespectRating:       clampOptionalRating(input.RespectRating),
		RentValueRating:     clampOptionalRating(input.RentValueRating),
		WouldRentAgain:      wouldRentAgain,
		MonthlyRent:         input.MonthlyRent,
		MoveInDate:          moveIn,
		MoveOutDate:         moveOut,
		IsAnonymous:         input.IsAnonymous,
		ReviewText:          input.ReviewText,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := a.store.CreateReview(review); err != nil {
		return ReviewView{}, fmt.Errorf("create review: %w", err)
	}

	// Only an accepted, persisted submission consumes the user's window.
	a.limiter.Record(user.ID)

	views, err := a.decorateReviews([]domain.Review{review}, user.ID)
	if err != nil {
		return ReviewView{}, err
	}
	return views[0], nil
}

// ListReviews returns the newest reviews. viewerID may be empty for
// unauthenticated readers, in which case no bookmark flags are set.
func (a *App) ListReviews(viewerID string, limit int) ([]ReviewView, error) {
	reviews, err := a.store.ListReviews(clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return a.decorateReviews(reviews, viewerID)
}

// ListMyReviews returns the authenticated user's own reviews.
func (a *App) ListMyReviews(user domain.User) ([]ReviewView, error) {
	reviews, err := a.store.ListReviewsByAuthor(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list own reviews: %w", err)
	}
	return a.decorateReviews(reviews, user.ID)
}

func clampLimit(limit int) int {
	if limit == 0 {
		return defaultListLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// decorateReviews builds the serialized views for a set of reviews: author
// emails resolved in one batch (and withheld for anonymous reviews), the
// viewer's bookmark set applied, ratings re-clamped so rows written before
// the clamp existed present safely.
func (a *App) decorateReviews(reviews []domain.Review, viewerID string) ([]ReviewView, error) {
	authorIDs := make([]string, 0, len(reviews))
	seen := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		if r.IsAnonymous || seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		authorIDs = append(authorIDs, r.UserID)
	}
	emails, err := a.store.ListUserEmails(authorIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve author emails: %w", err)
	}

	bookmarked := make(map[string]bool)
	if viewerID != "" {
		ids, err := a.store.ListBookmarkedReviewIDs(viewerID)
		if err != nil {
			return nil, fmt.Errorf("resolve bookmarks: %w", err)
		}
		for _, id := range ids {
			bookmarked[id] = true
		}
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		authorEmail := ""
		if !r.IsAnonymous {
			authorEmail = emails[r.UserID]
		}
		views = append(views, newReviewView(r, authorEmail, bookmarked[r.ID]))
	}
	return views, nil
}

func newReviewView(r domain.Review, authorEmail string, isBookmarked bool) ReviewView {
	return ReviewView{
		ID:                  r.ID,
		LandlordName:        r.LandlordName,
		PropertyAddress:     r.PropertyAddress,
		FormattedAddress:    r.FormattedAddress,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		OverallRating:       clampRating(r.OverallRating),
		MaintenanceRating:   clampOptionalRating(r.MaintenanceRating),
		CommunicationRating: clampOptionalRating(r.CommunicationRating),
		RespectRating:       clampOptionalRating(r.RespectRating),
		RentValueRating:     clampOptionalRating(r.RentValueRating),
		WouldRentAgain:      r.WouldRentAgain,
		MonthlyRent:         r.MonthlyRent,
		MoveInDate:          formatDate(r.MoveInDate),
		MoveOutDate:         formatDate(r.MoveOutDate),
		IsAnonymous:         r.IsAnonymous,
		ReviewText:          r.ReviewText,
		AuthorEmail:         authorEmail,
		IsBookmarked:        isBookmarked,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
