package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
	"github.com/dbicalho1/rate-my-landlord/internal/store"
	"github.com/dbicalho1/rate-my-landlord/internal/util"
)

// BookmarkView is a bookmark joined with its decorated review.
type BookmarkView struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	ReviewID  string     `json:"reviewId"`
	CreatedAt time.Time  `json:"createdAt"`
	Review    ReviewView `json:"review"`
}

// CreateBookmark saves a review for later re-reading. The existence checks
// are pre-checks for error quality; the store's unique index settles the
// race between two identical concurrent requests.
func (a *App) CreateBookmark(user domain.User, reviewID string) (BookmarkView, error) {
	reviewID = strings.TrimSpace(reviewID)
	review, found, err := a.store.GetReview(reviewID)
	if err != nil {
		return BookmarkView{}, fmt.Errorf("fetch review: %w", err)
	}
	if !found {
		return BookmarkView{}, ErrReviewNotFound
	}
	has, err := a.store.HasBookmark(user.ID, reviewID)
	if err != nil {
		return BookmarkView{}, fmt.Errorf("check bookmark: %w", err)
	}
	if has {
		return BookmarkView{}, ErrBookmarkExists
	}

	bookmark := domain.Bookmark{
		ID:        util.NewID(),
		UserID:    user.ID,
		ReviewID:  reviewID,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateBookmark(bookmark); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return BookmarkView{}, ErrBookmarkExists
		}
		return BookmarkView{}, fmt.Errorf("create bookmark: %w", err)
	}

	views, err := a.decorateReviews([]domain.Review{review}, user.ID)
	if err != nil {
		return BookmarkView{}, err
	}
	return BookmarkView{
		ID:        bookmark.ID,
		UserID:    bookmark.UserID,
		ReviewID:  bookmark.ReviewID,
		CreatedAt: bookmark.CreatedAt,
		Review:    views[0],
	}, nil
}

// DeleteBookmark removes the user's bookmark for a review.
func (a *App) DeleteBookmark(user domain.User, reviewID string) error {
	removed, err := a.store.DeleteBookmark(user.ID, strings.TrimSpace(reviewID))
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if !removed {
		return ErrBookmarkNotFound
	}
	return nil
}

// ListBookmarks returns the user's bookmarks joined with their reviews,
// newest bookmark first. Bookmarks whose review has since been removed are
// skipped.
func (a *App) ListBookmarks(user domain.User) ([]BookmarkView, error) {
	bookmarks, err := a.store.ListBookmarksByUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	reviews := make([]domain.Review, 0, len(bookmarks))
	kept := make([]domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		review, found, err := a.store.GetReview(b.ReviewID)
		if err != nil {
			return nil, fmt.Errorf("fetch review: %w", err)
		}
		if !found {
			continue
		}
		reviews = append(reviews, review)
		kept = append(kept, b)
	}

	views, err := a.decorateReviews(reviews, user.ID)
	if err != nil {
		return nil, err
	}
	out := make([]BookmarkView, 0, len(kept))
	for i, b := range kept {
		out = append(out, BookmarkView{
			ID:        b.ID,
			UserID:    b.UserID,
			ReviewID:  b.ReviewID,
			CreatedAt: b.CreatedAt,
			Review:    views[i],
		})
	}
	return out, nil
}
