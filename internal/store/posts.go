package store

import (
	"slices"
	"strings"
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/errors"
	"github.com/campfireapp/campfire-server/internal/id"
	"github.com/campfireapp/campfire-server/internal/realtime"
)

// ListPostsParams filters and paginates post listings.
type ListPostsParams struct {
	Category string // exact match, case insensitive; empty or "all" means no filter
	Tag      string // substring match against any tag, case insensitive
	Author   string // substring match against author display name, case insensitive
	Limit    int    // page size; <= 0 means DefaultListLimit
	Offset   int
}

// DefaultListLimit is the page size applied when none is requested.
const DefaultListLimit = 20

// PostPage is one page of a post listing.
type PostPage struct {
	Posts   []domain.Post `json:"posts"`
	Total   int           `json:"total"`
	HasMore bool          `json:"has_more"`
}

// CreatePost stores a new post authored by the given participant.
// Assigns a fresh id, applies category defaulting and tag deduplication,
// and stamps the creation time. Input validation happens before the store.
func (s *Store) CreatePost(author domain.Participant, input domain.CreatePostInput) (*domain.Post, error) {
	input.Normalize()

	postID, err := id.Generate("post")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate post id")
	}

	post := &domain.Post{
		ID:                postID,
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		Title:             input.Title,
		Content:           input.Content,
		Category:          input.Category,
		Tags:              input.Tags,
		Images:            input.Images,
		LikeCount:         0,
		CreatedAt:         time.Now(),
	}

	s.postsMu.Lock()
	s.posts[post.ID] = post
	s.emitter.Emit(realtime.NewPostCreatedEvent(*copyPost(post)))
	s.postsMu.Unlock()

	s.logger.Debug("post created", "post_id", post.ID, "author_id", author.ID)
	return copyPost(post), nil
}

// GetPost returns a post by id.
func (s *Store) GetPost(postID string) (*domain.Post, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, errors.NotFoundf("post %s not found", postID)
	}
	return copyPost(post), nil
}

// IncrementLike atomically increments a post's like count and returns the
// new count. The count is monotonically non-decreasing; there is no
// per-participant like tracking.
func (s *Store) IncrementLike(postID string) (int, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return 0, errors.NotFoundf("post %s not found", postID)
	}
	post.LikeCount++
	s.emitter.Emit(realtime.NewPostLikedEvent(postID, post.LikeCount))
	return post.LikeCount, nil
}

// ListPosts returns posts matching the params, newest first.
func (s *Store) ListPosts(params ListPostsParams) PostPage {
	if params.Limit <= 0 {
		params.Limit = DefaultListLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	s.postsMu.Lock()
	matched := make([]domain.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if matchesPost(post, params) {
			matched = append(matched, *copyPost(post))
		}
	}
	s.postsMu.Unlock()

	// Newest first.
	slices.SortFunc(matched, func(a, b domain.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(matched)
	start := min(params.Offset, total)
	end := min(start+params.Limit, total)

	return PostPage{
		Posts:   matched[start:end],
		Total:   total,
		HasMore: end < total,
	}
}

// matchesPost applies the listing filters.
func matchesPost(post *domain.Post, params ListPostsParams) bool {
	if params.Category != "" && params.Category != "all" {
		if !strings.EqualFold(post.Category, params.Category) {
			return false
		}
	}

	if params.Tag != "" {
		want := strings.ToLower(params.Tag)
		found := false
		for _, tag := range post.Tags {
			if strings.Contains(strings.ToLower(tag), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if params.Author != "" {
		if !strings.Contains(strings.ToLower(post.AuthorDisplayName), strings.ToLower(params.Author)) {
			return false
		}
	}

	return true
}

// PostsSince returns copies of all posts created at or after the cutoff,
// in no particular order. Used for trending aggregation.
func (s *Store) PostsSince(cutoff time.Time) []domain.Post {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	var recent []domain.Post
	for _, post := range s.posts {
		if post.CreatedAt.Before(cutoff) {
			continue
		}
		recent = append(recent, *copyPost(post))
	}
	return recent
}

// copyPost returns a defensive copy so callers never alias store-owned state.
func copyPost(post *domain.Post) *domain.Post {
	cp := *post
	cp.Tags = slices.Clone(post.Tags)
	cp.Images = slices.Clone(post.Images)
	return &cp
}
