package store

import (
	"slices"
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/errors"
	"github.com/campfireapp/campfire-server/internal/id"
	"github.com/campfireapp/campfire-server/internal/realtime"
)

// AddComment appends a comment to an existing post's sequence.
// Fails with NotFound if the post is unknown. Posts are never deleted in
// scope, so a comment can never dangle once created.
func (s *Store) AddComment(postID string, author domain.Participant, input domain.AddCommentInput) (*domain.Comment, error) {
	// Existence check under the posts lock; posts are never removed, so the
	// result stays valid after release.
	s.postsMu.Lock()
	_, ok := s.posts[postID]
	s.postsMu.Unlock()
	if !ok {
		return nil, errors.NotFoundf("post %s not found", postID)
	}

	commentID, err := id.Generate("cmt")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate comment id")
	}

	comment := domain.Comment{
		ID:                commentID,
		PostID:            postID,
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		Content:           input.Content,
		CreatedAt:         time.Now(),
	}

	s.commentsMu.Lock()
	s.comments[postID] = append(s.comments[postID], comment)
	s.emitter.Emit(realtime.NewCommentCreatedEvent(comment))
	s.commentsMu.Unlock()

	s.logger.Debug("comment added", "post_id", postID, "comment_id", comment.ID)
	return &comment, nil
}

// ListComments returns a post's comments in chronological order.
// Fails with NotFound if the post is unknown.
func (s *Store) ListComments(postID string) ([]domain.Comment, error) {
	s.postsMu.Lock()
	_, ok := s.posts[postID]
	s.postsMu.Unlock()
	if !ok {
		return nil, errors.NotFoundf("post %s not found", postID)
	}

	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	return slices.Clone(s.comments[postID]), nil
}
