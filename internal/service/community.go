// Package service orchestrates community operations: validation, store
// mutations, and the ephemeral signals (typing) that never touch the store.
// Mutation events are emitted by the store itself under its locks, so the
// service never races a broadcast against the apply order.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/store"
	"github.com/campfireapp/campfire-server/internal/validation"
)

// TrendingWindow is how far back trending aggregation looks.
const TrendingWindow = 24 * time.Hour

// TrendingLimit caps each trending list.
const TrendingLimit = 10

// CommunityService orchestrates posts, comments, chat, and presence.
type CommunityService struct {
	store       *store.Store
	broadcaster *realtime.Broadcaster
	logger      *slog.Logger
	validator   *validation.Validator
}

// NewCommunityService creates a new community service.
func NewCommunityService(st *store.Store, broadcaster *realtime.Broadcaster, logger *slog.Logger) *CommunityService {
	return &CommunityService{
		store:       st,
		broadcaster: broadcaster,
		logger:      logger,
		validator:   validation.New(),
	}
}

// CreatePost validates and stores a post. The store announces it to every
// connected client as part of the apply.
func (s *CommunityService) CreatePost(ctx context.Context, author domain.Participant, input domain.CreatePostInput) (*domain.Post, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	post, err := s.store.CreatePost(author, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", post.AuthorID),
		slog.String("category", post.Category))
	return post, nil
}

// GetPost returns a single post.
func (s *CommunityService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	return s.store.GetPost(postID)
}

// ListPosts returns a filtered, newest-first page of posts.
func (s *CommunityService) ListPosts(ctx context.Context, params store.ListPostsParams) store.PostPage {
	return s.store.ListPosts(params)
}

// LikePost increments a post's like count and returns it. The store
// announces the new count.
func (s *CommunityService) LikePost(ctx context.Context, postID string) (int, error) {
	likeCount, err := s.store.IncrementLike(postID)
	if err != nil {
		return 0, err
	}
	return likeCount, nil
}

// AddComment validates and stores a comment. The store announces it.
func (s *CommunityService) AddComment(ctx context.Context, postID string, author domain.Participant, input domain.AddCommentInput) (*domain.Comment, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	comment, err := s.store.AddComment(postID, author, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added",
		slog.String("comment_id", comment.ID),
		slog.String("post_id", postID),
		slog.String("author_id", comment.AuthorID))
	return comment, nil
}

// ListComments returns a post's comments in chronological order.
func (s *CommunityService) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	return s.store.ListComments(postID)
}

// SendChatMessage validates and stores a chat message. The store delivers
// it to the channel's subscribers as part of the append.
func (s *CommunityService) SendChatMessage(ctx context.Context, sender domain.Participant, input domain.SendChatInput) (*domain.ChatMessage, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	msg, err := s.store.AppendChatMessage(input.Channel, sender, input)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ChatHistory returns the most recent messages for a channel in
// chronological order. A limit <= 0 returns the full retained history.
func (s *CommunityService) ChatHistory(ctx context.Context, channel string, limit int) []domain.ChatMessage {
	if channel == "" {
		channel = domain.GeneralChannel
	}
	return s.store.ChatHistory(channel, limit)
}

// StartTyping announces that a participant started typing in a channel.
// The announcement skips the participant's own connection.
func (s *CommunityService) StartTyping(channel, connectionID string, p domain.Participant) {
	if channel == "" {
		channel = domain.GeneralChannel
	}
	s.broadcaster.Emit(realtime.NewTypingStartEvent(channel, connectionID, p))
}

// StopTyping announces that a participant stopped typing in a channel.
func (s *CommunityService) StopTyping(channel, connectionID string, p domain.Participant) {
	if channel == "" {
		channel = domain.GeneralChannel
	}
	s.broadcaster.Emit(realtime.NewTypingStopEvent(channel, connectionID, p))
}

// JoinPresence records a connection going online. The store announces the
// change and the new online count as part of the mutation.
func (s *CommunityService) JoinPresence(connectionID string, p domain.Participant) domain.PresenceEntry {
	return s.store.Join(connectionID, p)
}

// LeavePresence tears down a departed connection: presence entry first
// (which announces the departure and updated count), then channel
// subscriptions and the client itself. Calling it again for the same
// connection is a no-op.
func (s *CommunityService) LeavePresence(connectionID string) {
	s.store.Leave(connectionID)
	s.broadcaster.Disconnect(connectionID)
}

// ActiveParticipants returns the current presence roster.
func (s *CommunityService) ActiveParticipants(ctx context.Context) []domain.PresenceEntry {
	return s.store.ActivePresence()
}

// PresenceCount returns the number of online connections.
func (s *CommunityService) PresenceCount(ctx context.Context) int {
	return s.store.PresenceCount()
}

// TrendingEntry is one category or tag with its recent post count.
type TrendingEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendingResult holds the trending categories and tags.
type TrendingResult struct {
	Categories []TrendingEntry `json:"categories"`
	Tags       []TrendingEntry `json:"tags"`
}

// Trending aggregates posts from the last 24 hours into the most active
// categories and tags, each capped at ten entries.
func (s *CommunityService) Trending(ctx context.Context) TrendingResult {
	cutoff := time.Now().Add(-TrendingWindow)
	recent := s.store.PostsSince(cutoff)

	categories := make(map[string]int)
	tags := make(map[string]int)
	for _, post := range recent {
		categories[strings.ToLower(post.Category)]++
		for _, tag := range post.Tags {
			tags[strings.ToLower(tag)]++
		}
	}

	return TrendingResult{
		Categories: topEntries(categories, TrendingLimit),
		Tags:       topEntries(tags, TrendingLimit),
	}
}

// topEntries ranks counts descending, breaking ties alphabetically so the
// ordering is stable.
func topEntries(counts map[string]int, limit int) []TrendingEntry {
	entries := make([]TrendingEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, TrendingEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
