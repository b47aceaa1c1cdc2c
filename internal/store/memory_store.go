package store

import (
	"sort"
	"sync"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local runs
// without Postgres and enforces the same uniqueness rules as the database.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User   // key: user ID
	email     map[string]string        // email -> user ID
	reviews   map[string]domain.Review // key: review ID
	bookmarks map[string]domain.Bookmark
	pairs     map[string]string // userID+"\x00"+reviewID -> bookmark ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		email:     make(map[string]string),
		reviews:   make(map[string]domain.Review),
		bookmarks: make(map[string]domain.Bookmark),
		pairs:     make(map[string]string),
	}
}

func pairKey(userID, reviewID string) string {
	return userID + "\x00" + reviewID
}

// SaveUser registers a user, rejecting duplicate emails.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.email[u.Email]; ok && existing != u.ID {
		return ErrDuplicateKey
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUserEmails resolves emails for the given user IDs.
func (m *MemoryStore) ListUserEmails(ids []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u.Email
		}
	}
	return out, nil
}

// DeleteUser removes the user and cascades to owned reviews and bookmarks.
func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	delete(m.users, id)
	delete(m.email, u.Email)
	for rid, review := range m.reviews {
		if review.UserID == id {
			delete(m.reviews, rid)
			m.deleteBookmarksForReviewLocked(rid)
		}
	}
	for bid, b := range m.bookmarks {
		if b.UserID == id {
			delete(m.bookmarks, bid)
			delete(m.pairs, pairKey(b.UserID, b.ReviewID))
		}
	}
	return nil
}

func (m *MemoryStore) deleteBookmarksForReviewLocked(reviewID string) {
	for bid, b := range m.bookmarks {
		if b.ReviewID == reviewID {
			delete(m.bookmarks, bid)
			delete(m.pairs, pairKey(b.UserID, b.ReviewID))
		}
	}
}

// CreateReview stores a new review.
func (m *MemoryStore) CreateReview(r domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[r.ID] = r
	return nil
}

// GetReview retrieves a review by ID.
func (m *MemoryStore) GetReview(id string) (domain.Review, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	return r, ok, nil
}

// ListReviews returns the newest reviews first, capped at limit.
func (m *MemoryStore) ListReviews(limit int) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Review, 0, len(m.reviews))
	for _, r := range m.reviews {
		res = append(res, r)
	}
	sortReviewsNewestFirst(res)
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ListReviewsByAuthor returns one author's reviews, newest first.
func (m *MemoryStore) ListReviewsByAuthor(userID string) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Review, 0)
	for _, r := range m.reviews {
		if r.UserID == userID {
			res = append(res, r)
		}
	}
	sortReviewsNewestFirst(res)
	return res, nil
}

func sortReviewsNewestFirst(reviews []domain.Review) {
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID > reviews[j].ID
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}

// CreateBookmark stores a bookmark, enforcing (user, review) uniqueness.
func (m *MemoryStore) CreateBookmark(b domain.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(b.UserID, b.ReviewID)
	if _, exists := m.pairs[key]; exists {
		return ErrDuplicateKey
	}
	m.bookmarks[b.ID] = b
	m.pairs[key] = b.ID
	return nil
}

// DeleteBookmark removes the pair and reports whether it existed.
func (m *MemoryStore) DeleteBookmark(userID, reviewID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(userID, reviewID)
	id, ok := m.pairs[key]
	if !ok {
		return false, nil
	}
	delete(m.pairs, key)
	delete(m.bookmarks, id)
	return true, nil
}

// HasBookmark checks existence of the (user, review) pair.
func (m *MemoryStore) HasBookmark(userID, reviewID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pairs[pairKey(userID, reviewID)]
	return ok, nil
}

// ListBookmarksByUser returns a user's bookmarks, newest first.
func (m *MemoryStore) ListBookmarksByUser(userID string) ([]domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Bookmark, 0)
	for _, b := range m.bookmarks {
		if b.UserID == userID {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// ListBookmarkedReviewIDs returns the review IDs a user has bookmarked.
func (m *MemoryStore) ListBookmarkedReviewIDs(userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]string, 0)
	for _, b := range m.bookmarks {
		if b.UserID == userID {
			res = append(res, b.ReviewID)
		}
	}
	return res, nil
}
