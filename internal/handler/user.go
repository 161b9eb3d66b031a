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

type UserHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
}

func NewUserHandler(userService *service.UserService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
	}
}

// GetProfile handles GET /profile/{id}
// Returns the user document with the password hash stripped.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userIDStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] GetProfile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	// Password is excluded via the struct's json tags
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"userDoc": user,
	})
}

// UpdateProfile handles PUT /profile/{id}
// Multipart form with optional avatar file and optional name/email/password
// fields. Only the profile owner may update it.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	userIDStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if userID != claims.UserID {
		httputil.WriteForbidden(w, "You can only update your own profile")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	req := model.UpdateProfileRequest{
		Name:           r.FormValue("name"),
		Email:          r.FormValue("email"),
		OldPassword:    r.FormValue("oldPass"),
		NewPassword:    r.FormValue("newPass"),
		ConfirmNewPass: r.FormValue("confirmNewPass"),
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		upload, uploadErr := h.mediaService.UploadAvatar(r.Context(), file, header)
		if uploadErr != nil {
			// A bad previous avatar still exists; an upload failure is fatal here
			log.Printf("[ERROR] UpdateProfile avatar upload: user=%d err=%v", userID, uploadErr)
			httputil.WriteBadRequest(w, "Thumbnail was not uploaded")
			return
		}
		req.AvatarURL = &upload.URL
	} else if err != http.ErrMissingFile {
		httputil.WriteBadRequest(w, "Invalid avatar upload")
		return
	}

	_, err = h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrWrongOldPassword):
			httputil.WriteBadRequest(w, "Old Password is incorrect!")
		case errors.Is(err, model.ErrPasswordTooShort):
			httputil.WriteBadRequest(w, "Password should contain atleast 6 charcters.")
		case errors.Is(err, model.ErrPasswordMismatch):
			httputil.WriteBadRequest(w, "Passwords do not match!")
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteBadRequest(w, "E-mail already exists!")
		default:
			log.Printf("[ERROR] UpdateProfile handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, "updated successfully")
}
