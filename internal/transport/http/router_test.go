package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"quillblog/internal/config"
	"quillblog/internal/handler"
	"quillblog/internal/model"
	"quillblog/internal/service"
)

// In-memory repositories so the full middleware/handler/service stack can be
// exercised without a database.

type memUserRepo struct {
	nextID int64
	users  map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int64]*model.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

type memRefreshTokenRepo struct {
	tokens map[string]*model.RefreshToken
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: map[string]*model.RefreshToken{}}
}

func (r *memRefreshTokenRepo) Create(ctx context.Context, t *model.RefreshToken) error {
	t.ID = t.TokenHash[:8]
	t.CreatedAt = time.Now()
	r.tokens[t.TokenHash] = t
	return nil
}

func (r *memRefreshTokenRepo) FindByTokenHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	t, ok := r.tokens[hash]
	if !ok {
		return nil, model.ErrRefreshTokenNotFound
	}
	return t, nil
}

func (r *memRefreshTokenRepo) Revoke(ctx context.Context, id string, replacedBy *string) error {
	for _, t := range r.tokens {
		if t.ID == id && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.ReplacedBy = replacedBy
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

type stubPostRepo struct {
	posts    []model.Post
	deleteFn func(ctx context.Context, postID, userID int64) error
}

func (r *stubPostRepo) Create(ctx context.Context, post *model.Post) error {
	post.ID = int64(len(r.posts) + 1)
	post.CreatedAt = time.Now()
	r.posts = append(r.posts, *post)
	return nil
}

func (r *stubPostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	for i := range r.posts {
		if r.posts[i].ID == postID {
			copied := r.posts[i]
			return &copied, nil
		}
	}
	return nil, model.ErrPostNotFound
}

func (r *stubPostRepo) GetRecent(ctx context.Context, limit int) ([]model.Post, error) {
	if len(r.posts) > limit {
		return r.posts[:limit], nil
	}
	return r.posts, nil
}

func (r *stubPostRepo) Update(ctx context.Context, post *model.Post) error { return nil }

func (r *stubPostRepo) Delete(ctx context.Context, postID, userID int64) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, postID, userID)
	}
	return model.ErrPostNotFound
}

type testEnv struct {
	router   http.Handler
	userRepo *memUserRepo
	postRepo *stubPostRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 2592000,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}

	userRepo := newMemUserRepo()
	postRepo := &stubPostRepo{}
	refreshRepo := newMemRefreshTokenRepo()

	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshRepo, userRepo, cfg)
	postService := service.NewPostService(postRepo, userRepo, nil)

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(userService, authService, cfg),
		UserHandler: handler.NewUserHandler(userService, nil),
		PostHandler: handler.NewPostHandler(postService, nil),
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	return &testEnv{router: router, userRepo: userRepo, postRepo: postRepo}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, fullName, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.postJSON(t, "/register", model.RegisterRequest{
		FullName:  fullName,
		Email:     email,
		Password:  password,
		Password2: password,
	}, nil)
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.postJSON(t, "/login", model.LoginRequest{Email: email, Password: password}, nil)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no token cookie set")
	return nil
}

func TestRegister_ShortPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.register(t, "Al", "al@x.com", "abc12")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Password should contain atleast 6 charcters." {
		t.Errorf("error = %q, want exact short-password message", msg)
	}
	// No user record may exist after a rejected registration
	if len(env.userRepo.users) != 0 {
		t.Errorf("user count = %d, want 0", len(env.userRepo.users))
	}
}

func TestRegister_AcceptsShortNameAndEmail(t *testing.T) {
	env := newTestEnv(t)

	// Only the password has a length rule; "Al" and a three-char email are fine
	rec := env.register(t, "Al", "a@b", "secret1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `"User Registered"` {
		t.Errorf("body = %s, want \"User Registered\"", body)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.register(t, "Al", "al@x.com", "secret1"); rec.Code != http.StatusOK {
		t.Fatalf("first register status = %d, want 200", rec.Code)
	}

	rec := env.register(t, "Other Al", "al@x.com", "secret2")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second register status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "E-mail already exists!" {
		t.Errorf("error = %q, want duplicate-email message", msg)
	}
}

func TestRegister_EmailCaseSensitive(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "Al", "al@x.com", "secret1")

	// Different casing is a different email as stored
	rec := env.register(t, "Al", "AL@x.com", "secret1")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for differently-cased email", rec.Code)
	}
}

func TestLogin_SetsSessionCookieWithClaims(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Al", "al@x.com", "secret1")

	rec := env.login(t, "al@x.com", "secret1")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `"Logged In"` {
		t.Errorf("body = %s, want \"Logged In\"", body)
	}

	cookie := sessionCookie(t, rec)

	// The cookie round-trips through /profile as the decoded claims
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	profileRec := httptest.NewRecorder()
	env.router.ServeHTTP(profileRec, req)

	if profileRec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, want 200", profileRec.Code)
	}

	var claims model.TokenClaims
	if err := json.Unmarshal(profileRec.Body.Bytes(), &claims); err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	if claims.Email != "al@x.com" {
		t.Errorf("claims email = %q, want al@x.com", claims.Email)
	}
	if claims.FullName != "Al" {
		t.Errorf("claims fullName = %q, want Al", claims.FullName)
	}
	if claims.UserID == 0 {
		t.Error("claims id must be the user's id, got 0")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Al", "al@x.com", "secret1")

	rec := env.login(t, "al@x.com", "wrongpass")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid username or password. Please try again." {
		t.Errorf("error = %q, want exact invalid-credentials message", msg)
	}
}

func TestProfile_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProfile_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   int64(1),
		"email":     "al@x.com",
		"full_name": "Al",
		"exp":       time.Now().Add(-time.Minute).Unix(),
		"iat":       time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Access token has expired" {
		t.Errorf("error = %q, want expired-token message", msg)
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Al", "al@x.com", "secret1")
	loginRec := env.login(t, "al@x.com", "secret1")

	rec := env.postJSON(t, "/logout", nil, loginRec.Result().Cookies())
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `"Logged Out"` {
		t.Errorf("body = %s, want \"Logged Out\"", body)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("token cookie was not cleared")
	}
}

func TestDeletePost_RequiresAuthAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Al", "al@x.com", "secret1")
	loginRec := env.login(t, "al@x.com", "secret1")

	// Without a session cookie the endpoint is unreachable
	req := httptest.NewRequest(http.MethodDelete, "/post/1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated delete status = %d, want 401", rec.Code)
	}

	// Authenticated but not the author
	env.postRepo.deleteFn = func(ctx context.Context, postID, userID int64) error {
		return model.ErrNotPostAuthor
	}
	req = httptest.NewRequest(http.MethodDelete, "/post/1", nil)
	for _, c := range loginRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-author delete status = %d, want 403", rec.Code)
	}
}

func TestGetRecentPosts_Public(t *testing.T) {
	env := newTestEnv(t)
	env.postRepo.posts = []model.Post{{ID: 1, Title: "T", Cover: " "}}

	req := httptest.NewRequest(http.MethodGet, "/post", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var posts []model.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "T" {
		t.Errorf("posts = %+v, want single post T", posts)
	}
}

func TestRefresh_RotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Al", "al@x.com", "secret1")
	loginRec := env.login(t, "al@x.com", "secret1")

	rec := env.postJSON(t, "/refresh", nil, loginRec.Result().Cookies())
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// A rotated refresh token must not be accepted a second time
	rec = env.postJSON(t, "/refresh", nil, loginRec.Result().Cookies())
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh status = %d, want 401", rec.Code)
	}
}

// Password verification itself stays bcrypt-backed end to end.
func TestStoredPasswordIsBcrypt(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Al", "al@x.com", "secret1")

	var stored *model.User
	for _, u := range env.userRepo.users {
		stored = u
	}
	if stored == nil {
		t.Fatal("user was not stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHashed), []byte("secret1")); err != nil {
		t.Error("stored password is not a valid bcrypt hash of the secret")
	}
}
