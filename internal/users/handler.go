package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymbuddy/internal/auth"
	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/middleware"
	"github.com/2beens/gymbuddy/internal/telemetry/metrics"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=users_test

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, userID int, profile Profile) (*User, error)
}

type sessionManager interface {
	Login(ctx context.Context, userID int, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type weightRecorder interface {
	Add(ctx context.Context, sample bodyweight.Sample) (*bodyweight.Sample, error)
}

type RegisterRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Weight   *float64 `json:"weight,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Goal     *string  `json:"goal,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Handler struct {
	repo           usersRepo
	sessions       sessionManager
	loginChecker   auth.Checker
	weights        weightRecorder
	metricsManager *metrics.Manager
	// ability to inject password hashing for unit tests, bcrypt with high cost is slow
	HashPasswordFunc  func(password string) (string, error)
	CheckPasswordFunc func(password, hash string) bool
	nowFunc           func() time.Time
}

func NewHandler(
	repo usersRepo,
	sessions sessionManager,
	loginChecker auth.Checker,
	weights weightRecorder,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:              repo,
		sessions:          sessions,
		loginChecker:      loginChecker,
		weights:           weights,
		metricsManager:    metricsManager,
		HashPasswordFunc:  pkg.HashPassword,
		CheckPasswordFunc: pkg.CheckPasswordHash,
		nowFunc:           time.Now,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginRateLimitAllowedPerMin int,
) {
	authRouter := mainRouter.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", handler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", handler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	// rate limit the auth endpoints to prevent credential stuffing
	authRouter.Use(middleware.RateLimit(rateLimiter, "auth", loginRateLimitAllowedPerMin, handler.metricsManager))

	mainRouter.HandleFunc("/api/profile", handler.HandleGetProfile).Methods("GET", "OPTIONS").Name("get-profile")
	mainRouter.HandleFunc("/api/profile", handler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("register, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	email, err := NormalizeEmail(req.Email)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		pkg.WriteJSONError(w, "password too short", http.StatusBadRequest)
		return
	}
	profile := Profile{Name: req.Name, Weight: req.Weight, Height: req.Height, Goal: req.Goal}
	if err := profile.Validate(); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	passwordHash, err := handler.HashPasswordFunc(req.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.Add(ctx, User{
		Name:         profile.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Weight:       profile.Weight,
		Height:       profile.Height,
		Goal:         profile.Goal,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("register, add user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.Int("user.id", user.ID))
	handler.metricsManager.CounterRegistrations.Inc()

	if user.Weight != nil {
		handler.recordWeight(ctx, user.ID, *user.Weight)
	}

	token, err := handler.sessions.Login(ctx, user.ID, handler.nowFunc())
	if err != nil {
		log.Errorf("register, login new user %d: %s", user.ID, err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	handler.writeLoginResponse(w, token, user, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		pkg.WriteJSONError(w, "email and password required", http.StatusBadRequest)
		return
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Errorf("login, get user: %s", err)
		handler.metricsManager.CounterLogins.WithLabelValues("error").Inc()
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if user == nil || !handler.CheckPasswordFunc(req.Password, user.PasswordHash) {
		log.Tracef("failed login attempt for: %s", email)
		handler.metricsManager.CounterLogins.WithLabelValues("wrong_credentials").Inc()
		pkg.WriteJSONError(w, "wrong credentials", http.StatusUnauthorized)
		return
	}

	token, err := handler.sessions.Login(ctx, user.ID, handler.nowFunc())
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		handler.metricsManager.CounterLogins.WithLabelValues("error").Inc()
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	handler.metricsManager.CounterLogins.WithLabelValues("ok").Inc()
	log.Tracef("login success for user %d", user.ID)
	handler.writeLoginResponse(w, token, user, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	token := auth.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.loginChecker.Forget(token)
	loggedOut, err := handler.sessions.Logout(ctx, token)
	if err != nil {
		log.Errorf("logout failed: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.profile.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("get profile of user %d: %s", userID, err)
		http.Error(w, "failed to get profile", http.StatusInternalServerError)
		return
	}

	handler.writeUser(w, user)
}

// HandleUpdateProfile saves the profile; a changed weight is also stored as a body weight sample.
func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.profile.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var profile Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := profile.Validate(); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Errorf("update profile, get user %d: %s", userID, err)
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	updated, err := handler.repo.UpdateProfile(ctx, userID, profile)
	if err != nil {
		log.Errorf("update profile of user %d: %s", userID, err)
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	if profile.Weight != nil && (current.Weight == nil || *current.Weight != *profile.Weight) {
		handler.recordWeight(ctx, userID, *profile.Weight)
	}

	handler.writeUser(w, updated)
}

func (handler *Handler) recordWeight(ctx context.Context, userID int, weight float64) {
	if _, err := handler.weights.Add(ctx, bodyweight.Sample{
		UserID:     userID,
		Weight:     weight,
		MeasuredAt: handler.nowFunc(),
	}); err != nil {
		// the profile itself is saved, the weight series just misses a point
		log.Errorf("record body weight of user %d: %s", userID, err)
	}
}

func (handler *Handler) writeUser(w http.ResponseWriter, user *User) {
	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("marshal user: %s", err)
		http.Error(w, "marshal user error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusOK)
}

func (handler *Handler) writeLoginResponse(w http.ResponseWriter, token string, user *User, status int) {
	respJson, err := json.Marshal(LoginResponse{Token: token, User: user})
	if err != nil {
		log.Errorf("marshal login response: %s", err)
		http.Error(w, "marshal login response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, status)
}
