package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/store"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List posts",
		Description: "Returns posts newest first, with optional category, tag, and author filters",
		Tags:        []string{"Posts"},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID: "createPost",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts",
		Summary:     "Create post",
		Description: "Publishes a post and announces it to connected clients",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Get post",
		Description: "Returns a post by ID",
		Tags:        []string{"Posts"},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "likePost",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/like",
		Summary:     "Like post",
		Description: "Increments a post's like count and announces the new count",
		Tags:        []string{"Posts"},
	}, s.handleLikePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}/comments",
		Summary:     "List comments",
		Description: "Returns a post's comments oldest first",
		Tags:        []string{"Posts"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "addComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/comments",
		Summary:     "Add comment",
		Description: "Adds a comment to a post and announces it",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddComment)
}

// === DTOs ===

// PostResponse contains post data in API responses.
type PostResponse struct {
	ID        string    `json:"id" doc:"Post ID"`
	Author    string    `json:"author" doc:"Author display name"`
	AuthorID  string    `json:"author_id" doc:"Author participant ID"`
	Title     string    `json:"title,omitempty" doc:"Optional title"`
	Content   string    `json:"content" doc:"Post body"`
	Category  string    `json:"category" doc:"Post category"`
	Tags      []string  `json:"tags,omitempty" doc:"Post tags"`
	Images    []string  `json:"images,omitempty" doc:"Attached image URLs"`
	Likes     int       `json:"likes" doc:"Like count"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListPostsInput contains filter and pagination parameters.
type ListPostsInput struct {
	Category string `query:"category" doc:"Filter by category, 'all' disables the filter"`
	Tag      string `query:"tag" doc:"Filter by tag substring"`
	Author   string `query:"author" doc:"Filter by author name substring"`
	Limit    int    `query:"limit" doc:"Page size, default 20" minimum:"0" maximum:"100"`
	Offset   int    `query:"offset" doc:"Page offset" minimum:"0"`
}

// ListPostsResponse contains one page of posts.
type ListPostsResponse struct {
	Posts   []PostResponse `json:"posts" doc:"Posts newest first"`
	Total   int            `json:"total" doc:"Total matching posts"`
	HasMore bool           `json:"has_more" doc:"Whether more pages exist"`
}

// ListPostsOutput wraps the post listing for Huma.
type ListPostsOutput struct {
	Body ListPostsResponse
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string   `json:"title,omitempty" validate:"omitempty,max=200" doc:"Optional title"`
	Content  string   `json:"content" validate:"required,max=10000" doc:"Post body"`
	Category string   `json:"category,omitempty" doc:"Category, defaults to general"`
	Tags     []string `json:"tags,omitempty" doc:"Tags"`
	Images   []string `json:"images,omitempty" doc:"Attached image URLs"`
}

// CreatePostInput wraps the create post request for Huma.
type CreatePostInput struct {
	Authorization string `header:"Authorization"`
	Body          CreatePostRequest
}

// PostOutput wraps a single post response for Huma.
type PostOutput struct {
	Body PostResponse
}

// GetPostInput contains parameters for getting a post.
type GetPostInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// LikePostInput contains parameters for liking a post.
type LikePostInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// LikeResponse contains the updated like count.
type LikeResponse struct {
	PostID string `json:"post_id" doc:"Post ID"`
	Likes  int    `json:"likes" doc:"Updated like count"`
}

// LikeOutput wraps the like response for Huma.
type LikeOutput struct {
	Body LikeResponse
}

// CommentResponse contains comment data in API responses.
type CommentResponse struct {
	ID        string    `json:"id" doc:"Comment ID"`
	PostID    string    `json:"post_id" doc:"Parent post ID"`
	Author    string    `json:"author" doc:"Author display name"`
	AuthorID  string    `json:"author_id" doc:"Author participant ID"`
	Content   string    `json:"content" doc:"Comment body"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListCommentsInput contains parameters for listing comments.
type ListCommentsInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// ListCommentsResponse contains a post's comments.
type ListCommentsResponse struct {
	Comments []CommentResponse `json:"comments" doc:"Comments oldest first"`
}

// ListCommentsOutput wraps the comment listing for Huma.
type ListCommentsOutput struct {
	Body ListCommentsResponse
}

// AddCommentRequest is the request body for adding a comment.
type AddCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000" doc:"Comment body"`
}

// AddCommentInput wraps the add comment request for Huma.
type AddCommentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Post ID"`
	Body          AddCommentRequest
}

// CommentOutput wraps a single comment response for Huma.
type CommentOutput struct {
	Body CommentResponse
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ListPostsInput) (*ListPostsOutput, error) {
	page := s.svc.ListPosts(ctx, store.ListPostsParams{
		Category: input.Category,
		Tag:      input.Tag,
		Author:   input.Author,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})

	posts := make([]PostResponse, len(page.Posts))
	for i, p := range page.Posts {
		posts[i] = postResponse(p)
	}

	return &ListPostsOutput{Body: ListPostsResponse{
		Posts:   posts,
		Total:   page.Total,
		HasMore: page.HasMore,
	}}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	author := s.participantFromHeader(input.Authorization)

	post, err := s.svc.CreatePost(ctx, author, domain.CreatePostInput{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		Category: input.Body.Category,
		Tags:     input.Body.Tags,
		Images:   input.Body.Images,
	})
	if err != nil {
		return nil, err
	}

	return &PostOutput{Body: postResponse(*post)}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *GetPostInput) (*PostOutput, error) {
	post, err := s.svc.GetPost(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: postResponse(*post)}, nil
}

func (s *Server) handleLikePost(ctx context.Context, input *LikePostInput) (*LikeOutput, error) {
	likes, err := s.svc.LikePost(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: LikeResponse{PostID: input.ID, Likes: likes}}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *ListCommentsInput) (*ListCommentsOutput, error) {
	comments, err := s.svc.ListComments(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]CommentResponse, len(comments))
	for i, c := range comments {
		resp[i] = commentResponse(c)
	}
	return &ListCommentsOutput{Body: ListCommentsResponse{Comments: resp}}, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	author := s.participantFromHeader(input.Authorization)

	comment, err := s.svc.AddComment(ctx, input.ID, author, domain.AddCommentInput{
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: commentResponse(*comment)}, nil
}

func postResponse(p domain.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Author:    p.AuthorDisplayName,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		Tags:      p.Tags,
		Images:    p.Images,
		Likes:     p.LikeCount,
		CreatedAt: p.CreatedAt,
	}
}

func commentResponse(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.AuthorDisplayName,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
