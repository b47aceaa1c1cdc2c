package store

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := newGormStore(db)
	if err != nil {
		t.Fatalf("new gorm store: %v", err)
	}
	return s
}

func testUser(id, email string) domain.User {
	return domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
}

func testReview(id, userID string, createdAt time.Time) domain.Review {
	return domain.Review{
		ID:            id,
		UserID:        userID,
		LandlordName:  "Acme Property Management",
		OverallRating: 3.5,
		ReviewText:    "The heat worked, the landlord mostly answered the phone.",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestGormStoreUserUniqueEmail(t *testing.T) {
	s := newTestGormStore(t)
	if err := s.SaveUser(testUser("u-1", "a@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := s.SaveUser(testUser("u-2", "a@example.com")); err != ErrDuplicateKey {
		t.Fatalf("duplicate email err = %v, want ErrDuplicateKey", err)
	}
	ok, err := s.HasUserEmail("a@example.com")
	if err != nil || !ok {
		t.Fatalf("has email = %v err=%v, want true", ok, err)
	}
	u, found, err := s.GetUserByEmail("a@example.com")
	if err != nil || !found || u.ID != "u-1" {
		t.Fatalf("get by email = %+v found=%v err=%v", u, found, err)
	}
}

func TestGormStoreReviewRoundTripAndOrdering(t *testing.T) {
	s := newTestGormStore(t)
	if err := s.SaveUser(testUser("u-1", "a@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	moveIn := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	moveOut := time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC)
	rent := 1450
	maint := 4.0

	first := testReview("r-1", "u-1", base)
	first.PropertyAddress = "100 Main St"
	first.FormattedAddress = "100 Main St, Philadelphia, PA"
	first.MaintenanceRating = &maint
	first.MonthlyRent = &rent
	first.MoveInDate = &moveIn
	first.MoveOutDate = &moveOut
	if err := s.CreateReview(first); err != nil {
		t.Fatalf("create review: %v", err)
	}
	if err := s.CreateReview(testReview("r-2", "u-1", base.Add(time.Hour))); err != nil {
		t.Fatalf("create review: %v", err)
	}

	got, found, err := s.GetReview("r-1")
	if err != nil || !found {
		t.Fatalf("get review: found=%v err=%v", found, err)
	}
	if got.FormattedAddress != first.FormattedAddress {
		t.Fatalf("formatted address = %q", got.FormattedAddress)
	}
	if got.MaintenanceRating == nil || *got.MaintenanceRating != 4.0 {
		t.Fatalf("maintenance rating = %v", got.MaintenanceRating)
	}
	if got.MoveInDate == nil || !got.MoveInDate.Equal(moveIn) {
		t.Fatalf("move in date = %v, want %v", got.MoveInDate, moveIn)
	}
	if got.MonthlyRent == nil || *got.MonthlyRent != 1450 {
		t.Fatalf("monthly rent = %v", got.MonthlyRent)
	}

	reviews, err := s.ListReviews(10)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != "r-2" || reviews[1].ID != "r-1" {
		t.Fatalf("expected newest-first [r-2 r-1], got %+v", reviewIDs(reviews))
	}

	limited, err := s.ListReviews(1)
	if err != nil {
		t.Fatalf("list reviews limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "r-2" {
		t.Fatalf("limit 1 should return newest, got %+v", reviewIDs(limited))
	}

	mine, err := s.ListReviewsByAuthor("u-1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("list by author = %d err=%v, want 2", len(mine), err)
	}
}

func reviewIDs(reviews []domain.Review) []string {
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestGormStoreBookmarkUniqueness(t *testing.T) {
	s := newTestGormStore(t)
	now := time.Now().UTC()
	if err := s.CreateBookmark(domain.Bookmark{ID: "b-1", UserID: "u-1", ReviewID: "r-1", CreatedAt: now}); err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	err := s.CreateBookmark(domain.Bookmark{ID: "b-2", UserID: "u-1", ReviewID: "r-1", CreatedAt: now})
	if err != ErrDuplicateKey {
		t.Fatalf("duplicate pair err = %v, want ErrDuplicateKey", err)
	}
	// Same review for a different user is fine.
	if err := s.CreateBookmark(domain.Bookmark{ID: "b-3", UserID: "u-2", ReviewID: "r-1", CreatedAt: now}); err != nil {
		t.Fatalf("bookmark by other user: %v", err)
	}

	has, err := s.HasBookmark("u-1", "r-1")
	if err != nil || !has {
		t.Fatalf("has bookmark = %v err=%v, want true", has, err)
	}
	ids, err := s.ListBookmarkedReviewIDs("u-1")
	if err != nil || len(ids) != 1 || ids[0] != "r-1" {
		t.Fatalf("bookmarked ids = %v err=%v", ids, err)
	}

	removed, err := s.DeleteBookmark("u-1", "r-1")
	if err != nil || !removed {
		t.Fatalf("delete bookmark = %v err=%v, want true", removed, err)
	}
	removed, err = s.DeleteBookmark("u-1", "r-1")
	if err != nil || removed {
		t.Fatalf("second delete = %v err=%v, want false", removed, err)
	}
}

func TestGormStoreDeleteUserCascades(t *testing.T) {
	s := newTestGormStore(t)
	if err := s.SaveUser(testUser("u-1", "a@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := s.SaveUser(testUser("u-2", "b@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}
	now := time.Now().UTC()
	if err := s.CreateReview(testReview("r-1", "u-1", now)); err != nil {
		t.Fatalf("create review: %v", err)
	}
	// u-1 bookmarks something else, u-2 bookmarks u-1's review.
	if err := s.CreateBookmark(domain.Bookmark{ID: "b-1", UserID: "u-1", ReviewID: "r-other", CreatedAt: now}); err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	if err := s.CreateBookmark(domain.Bookmark{ID: "b-2", UserID: "u-2", ReviewID: "r-1", CreatedAt: now}); err != nil {
		t.Fatalf("create bookmark: %v", err)
	}

	if err := s.DeleteUser("u-1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, found, _ := s.GetUserByID("u-1"); found {
		t.Fatalf("user should be gone")
	}
	if _, found, _ := s.GetReview("r-1"); found {
		t.Fatalf("owned review should be gone")
	}
	if has, _ := s.HasBookmark("u-1", "r-other"); has {
		t.Fatalf("user's own bookmark should be gone")
	}
	if has, _ := s.HasBookmark("u-2", "r-1"); has {
		t.Fatalf("bookmarks of deleted review should be gone")
	}
	if _, found, _ := s.GetUserByID("u-2"); !found {
		t.Fatalf("other user must survive")
	}
}

func TestGormStoreListUserEmails(t *testing.T) {
	s := newTestGormStore(t)
	if err := s.SaveUser(testUser("u-1", "a@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := s.SaveUser(testUser("u-2", "b@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}
	emails, err := s.ListUserEmails([]string{"u-1", "u-2", "u-missing"})
	if err != nil {
		t.Fatalf("list user emails: %v", err)
	}
	if len(emails) != 2 || emails["u-1"] != "a@example.com" || emails["u-2"] != "b@example.com" {
		t.Fatalf("emails = %v", emails)
	}
}
