package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quillblog/internal/httputil"
	"quillblog/internal/model"
	"quillblog/internal/service"
	"quillblog/internal/transport/http/middleware"
)

type PostHandler struct {
	postService  *service.PostService
	mediaService *service.MediaService
}

func NewPostHandler(postService *service.PostService, mediaService *service.MediaService) *PostHandler {
	return &PostHandler{
		postService:  postService,
		mediaService: mediaService,
	}
}

const postFormOverhead = 1024 * 1024

// Create handles POST /post
// Multipart form with title, summary, content, category and a required cover
// file. An upload failure is tolerated: the post is still created with the
// single-space cover fallback.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxCoverSizeBytes) + postFormOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	req := model.CreatePostRequest{
		Title:    r.FormValue("title"),
		Summary:  r.FormValue("summary"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "All fields are required!")
		return
	}
	defer file.Close()

	upload, uploadErr := h.mediaService.UploadCover(r.Context(), file, header)
	if uploadErr != nil {
		// Tolerated: the post is created with the cover fallback
		log.Printf("[ERROR] Create post cover upload: user=%d err=%v", claims.UserID, uploadErr)
	} else {
		req.Cover = upload.URL
	}

	_, err = h.postService.Create(r.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingFields):
			httputil.WriteBadRequest(w, "All fields are required!")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] Create post handler: user=%d err=%v", claims.UserID, err)
			httputil.WriteInternalError(w, "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, "Post Created")
}

// GetRecent handles GET /post
// Returns the 20 most recent posts, newest first, authors expanded.
func (h *PostHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.GetRecent(r.Context())
	if err != nil {
		log.Printf("[ERROR] Get recent posts handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetByID handles GET /post/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postIDStr := chi.URLParam(r, "id")
	postID, err := strconv.ParseInt(postIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Get post handler: post=%d err=%v", postID, err)
		httputil.WriteInternalError(w, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PUT /post
// Multipart form with id, title, summary, content and an optional new cover
// file. Only the author may update; here an upload failure is fatal since
// the stored cover is still good.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxCoverSizeBytes) + postFormOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	postID, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	req := model.UpdatePostRequest{
		ID:      postID,
		Title:   r.FormValue("title"),
		Summary: r.FormValue("summary"),
		Content: r.FormValue("content"),
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		upload, uploadErr := h.mediaService.UploadCover(r.Context(), file, header)
		if uploadErr != nil {
			log.Printf("[ERROR] Update post cover upload: user=%d post=%d err=%v", claims.UserID, postID, uploadErr)
			httputil.WriteBadRequest(w, "Thumbnail was not uploaded")
			return
		}
		req.Cover = &upload.URL
	} else if err != http.ErrMissingFile {
		httputil.WriteBadRequest(w, "Invalid cover upload")
		return
	}

	post, err := h.postService.Update(r.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostAuthor):
			httputil.WriteBadRequest(w, "you are not the author")
		default:
			log.Printf("[ERROR] Update post handler: user=%d post=%d err=%v", claims.UserID, postID, err)
			httputil.WriteInternalError(w, "Failed to update post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /post/{id}
// Only the author may delete; the author's post_count is decremented.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postIDStr := chi.URLParam(r, "id")
	postID, err := strconv.ParseInt(postIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	err = h.postService.Delete(r.Context(), postID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostAuthor):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			log.Printf("[ERROR] Delete post handler: user=%d post=%d err=%v", claims.UserID, postID, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, "Post deleted.")
}
