package api

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/service"
	"github.com/campfireapp/campfire-server/internal/store"
)

const testJWTSecret = "handlers-test-secret"

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiTestServer wraps the API server for handler testing.
type apiTestServer struct {
	*Server
	api      humatest.TestAPI
	store    *store.Store
	resolver *identity.Resolver
	cancel   context.CancelFunc
}

func setupTestServer(t *testing.T) *apiTestServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(config.RealtimeConfig{}, registry, logger)
	st := store.New(200, logger, broadcaster)

	ctx, cancel := context.WithCancel(context.Background())
	go broadcaster.Start(ctx)

	svc := service.NewCommunityService(st, broadcaster, logger)
	resolver := identity.NewResolver(testJWTSecret, logger)

	s := NewServer(svc, broadcaster, resolver, nil, logger)

	ts := &apiTestServer{
		Server:   s,
		api:      humatest.Wrap(t, s.api),
		store:    st,
		resolver: resolver,
		cancel:   cancel,
	}
	t.Cleanup(cancel)
	return ts
}

// authHeader signs a token for the given participant.
func (ts *apiTestServer) authHeader(t *testing.T, p domain.Participant) string {
	t.Helper()
	token, err := ts.resolver.Sign(p)
	require.NoError(t, err)
	return "Bearer " + token
}

func (ts *apiTestServer) createPost(t *testing.T, title, category string, tags []string) PostResponse {
	t.Helper()

	auth := ts.authHeader(t, domain.Participant{ID: "user-1", DisplayName: "Riley"})
	resp := ts.api.Post("/api/v1/posts",
		"Authorization: "+auth,
		map[string]any{
			"title":    title,
			"content":  "some content for " + title,
			"category": category,
			"tags":     tags,
		})
	require.Equal(t, http.StatusOK, resp.Code, "Create post failed: %s", resp.Body.String())

	var envelope testEnvelope[PostResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	return envelope.Data
}

func TestCreatePost_ReturnsEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	auth := ts.authHeader(t, domain.Participant{ID: "user-1", DisplayName: "Riley"})
	resp := ts.api.Post("/api/v1/posts",
		"Authorization: "+auth,
		map[string]any{
			"title":    "Hello",
			"content":  "First post",
			"category": "general",
			"tags":     []string{"intro", "intro", " "},
		})
	require.Equal(t, http.StatusOK, resp.Code, "unexpected response: %s", resp.Body.String())

	var envelope testEnvelope[PostResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 1, envelope.V)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, "Riley", envelope.Data.Author)
	assert.Equal(t, "user-1", envelope.Data.AuthorID)
	assert.Equal(t, "general", envelope.Data.Category)
	assert.Equal(t, []string{"intro"}, envelope.Data.Tags)
	assert.Equal(t, 0, envelope.Data.Likes)
	assert.False(t, envelope.Data.CreatedAt.IsZero())
}

func TestCreatePost_GuestAuthor(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/posts", map[string]any{
		"content": "anonymous thoughts",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[PostResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, domain.GuestID, envelope.Data.AuthorID)
}

func TestCreatePost_MissingContentRejected(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/posts", map[string]any{
		"title": "no body",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var envelope testEnvelope[struct{}]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	assert.False(t, envelope.Success)
}

func TestGetPost_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/posts/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var envelope testEnvelope[struct{}]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 1, envelope.V)
	assert.False(t, envelope.Success)
	assert.Equal(t, "NOT_FOUND", envelope.Code)
}

func TestListPosts_FiltersByCategory(t *testing.T) {
	ts := setupTestServer(t)

	ts.createPost(t, "A", "books", nil)
	ts.createPost(t, "B", "music", nil)
	ts.createPost(t, "C", "Books", nil)

	resp := ts.api.Get("/api/v1/posts?category=books")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListPostsResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 2, envelope.Data.Total)
	assert.Len(t, envelope.Data.Posts, 2)
	assert.False(t, envelope.Data.HasMore)
}

func TestListPosts_Pagination(t *testing.T) {
	ts := setupTestServer(t)

	for _, title := range []string{"one", "two", "three"} {
		ts.createPost(t, title, "general", nil)
	}

	resp := ts.api.Get("/api/v1/posts?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListPostsResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 3, envelope.Data.Total)
	assert.Len(t, envelope.Data.Posts, 2)
	assert.True(t, envelope.Data.HasMore)

	resp = ts.api.Get("/api/v1/posts?limit=2&offset=2")
	require.Equal(t, http.StatusOK, resp.Code)

	err = json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	assert.Len(t, envelope.Data.Posts, 1)
	assert.False(t, envelope.Data.HasMore)
}

func TestLikePost_Increments(t *testing.T) {
	ts := setupTestServer(t)
	post := ts.createPost(t, "likeable", "general", nil)

	for want := 1; want <= 3; want++ {
		resp := ts.api.Post("/api/v1/posts/" + post.ID + "/like")
		require.Equal(t, http.StatusOK, resp.Code)

		var envelope testEnvelope[LikeResponse]
		err := json.Unmarshal(resp.Body.Bytes(), &envelope)
		require.NoError(t, err)

		assert.Equal(t, post.ID, envelope.Data.PostID)
		assert.Equal(t, want, envelope.Data.Likes)
	}
}

func TestLikePost_UnknownPost(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/posts/nope/like")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestComments_RoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	post := ts.createPost(t, "discussion", "general", nil)

	auth := ts.authHeader(t, domain.Participant{ID: "user-2", DisplayName: "Sam"})
	resp := ts.api.Post("/api/v1/posts/"+post.ID+"/comments",
		"Authorization: "+auth,
		map[string]any{"content": "great point"})
	require.Equal(t, http.StatusOK, resp.Code, "Add comment failed: %s", resp.Body.String())

	var created testEnvelope[CommentResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &created)
	require.NoError(t, err)
	assert.Equal(t, post.ID, created.Data.PostID)
	assert.Equal(t, "Sam", created.Data.Author)

	resp = ts.api.Get("/api/v1/posts/" + post.ID + "/comments")
	require.Equal(t, http.StatusOK, resp.Code)

	var listed testEnvelope[ListCommentsResponse]
	err = json.Unmarshal(resp.Body.Bytes(), &listed)
	require.NoError(t, err)
	require.Len(t, listed.Data.Comments, 1)
	assert.Equal(t, "great point", listed.Data.Comments[0].Content)
}

func TestComments_UnknownPost(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/posts/nope/comments", map[string]any{"content": "hi"})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestChatHistory_DefaultsToGeneral(t *testing.T) {
	ts := setupTestServer(t)

	sender := domain.Participant{ID: "user-3", DisplayName: "Kai"}
	for _, body := range []string{"first", "second"} {
		_, err := ts.store.AppendChatMessage("", sender, domain.SendChatInput{Body: body})
		require.NoError(t, err)
	}

	resp := ts.api.Get("/api/v1/chat/" + domain.GeneralChannel + "/messages")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ChatHistoryResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, domain.GeneralChannel, envelope.Data.Channel)
	require.Len(t, envelope.Data.Messages, 2)
	assert.Equal(t, "first", envelope.Data.Messages[0].Body)
	assert.Equal(t, "second", envelope.Data.Messages[1].Body)
}

func TestChatHistory_LimitReturnsNewest(t *testing.T) {
	ts := setupTestServer(t)

	sender := domain.Participant{ID: "user-3", DisplayName: "Kai"}
	for _, body := range []string{"a", "b", "c"} {
		_, err := ts.store.AppendChatMessage("random", sender, domain.SendChatInput{Channel: "random", Body: body})
		require.NoError(t, err)
	}

	resp := ts.api.Get("/api/v1/chat/random/messages?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ChatHistoryResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	require.Len(t, envelope.Data.Messages, 2)
	assert.Equal(t, "b", envelope.Data.Messages[0].Body)
	assert.Equal(t, "c", envelope.Data.Messages[1].Body)
}

func TestPresence_Roster(t *testing.T) {
	ts := setupTestServer(t)

	ts.store.Join("conn-1", domain.Participant{ID: "user-1", DisplayName: "Riley"})
	ts.store.Join("conn-2", domain.Guest())

	resp := ts.api.Get("/api/v1/presence")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[PresenceResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 2, envelope.Data.Count)
	require.Len(t, envelope.Data.Participants, 2)
}

func TestPresence_Empty(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/presence")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[PresenceResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 0, envelope.Data.Count)
	assert.Empty(t, envelope.Data.Participants)
}

func TestTrending_RanksByActivity(t *testing.T) {
	ts := setupTestServer(t)

	ts.createPost(t, "A", "books", []string{"fantasy"})
	ts.createPost(t, "B", "books", []string{"fantasy", "scifi"})
	ts.createPost(t, "C", "music", nil)

	resp := ts.api.Get("/api/v1/trending")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[TrendingResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	require.NotEmpty(t, envelope.Data.Categories)
	assert.Equal(t, "books", envelope.Data.Categories[0].Name)
	assert.Equal(t, 2, envelope.Data.Categories[0].Count)

	require.NotEmpty(t, envelope.Data.Tags)
	assert.Equal(t, "fantasy", envelope.Data.Tags[0].Name)
	assert.Equal(t, 2, envelope.Data.Tags[0].Count)
}

func TestHealthCheck_Healthy(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Contains(t, envelope.Data.Components, "service")
	assert.Contains(t, envelope.Data.Components, "realtime")
}
