// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventrahq/eventra/internal/app/store/users"
	"github.com/eventrahq/eventra/internal/app/system/apperr"
	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/app/system/httpjson"
	"github.com/eventrahq/eventra/internal/app/system/normalize"
	"github.com/eventrahq/eventra/internal/app/system/timeouts"
	"github.com/eventrahq/eventra/internal/domain/models"
)

const minPasswordLen = 6

// Handler serves account signup, login, and the current-user endpoint.
type Handler struct {
	Users  *userstore.Store
	Tokens *auth.TokenManager
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, tokens *auth.TokenManager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Tokens: tokens,
		Log:    logger,
	}
}

type signupRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"` // student | organizer
	RegisterNumber string `json:"register_number,omitempty"`
	Department     string `json:"department,omitempty"`
	Organization   string `json:"organization,omitempty"`
}

// Signup handles POST /auth/signup. New accounts start pending and must
// clear admin review before they can register for or create events.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}

	req.FullName = normalize.Name(req.FullName)
	req.Email = normalize.Email(req.Email)
	req.RegisterNumber = normalize.RegisterNumber(req.RegisterNumber)

	if err := validateSignup(req); err != nil {
		httpjson.Error(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("signup: hash password", zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	u := &models.User{
		FullName:       req.FullName,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Role:           req.Role,
		Status:         models.StatusPending,
		RegisterNumber: req.RegisterNumber,
		Department:     normalize.Name(req.Department),
		Organization:   normalize.Name(req.Organization),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Users.Create(ctx, u); err != nil {
		if err == userstore.ErrDuplicateEmail {
			httpjson.Error(w, apperr.New(apperr.KindDuplicate, "an account with this email already exists"))
			return
		}
		h.Log.Error("signup: create user", zap.String("email", req.Email), zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	h.Log.Info("account created",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))
	httpjson.Write(w, http.StatusCreated, u)
}

func validateSignup(req signupRequest) error {
	switch {
	case req.FullName == "":
		return apperr.New(apperr.KindMissingField, "full_name is required")
	case req.Email == "":
		return apperr.New(apperr.KindMissingField, "email is required")
	case req.Password == "":
		return apperr.New(apperr.KindMissingField, "password is required")
	}
	if len(req.Password) < minPasswordLen {
		return apperr.New(apperr.KindInvalid, "password must be at least 6 characters")
	}
	if req.Role != models.RoleStudent && req.Role != models.RoleOrganizer {
		return apperr.New(apperr.KindInvalid, "role must be student or organizer")
	}
	if req.Role == models.RoleStudent && req.RegisterNumber == "" {
		return apperr.New(apperr.KindMissingField, "register_number is required for students")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles POST /auth/login. Pending and rejected accounts may
// still sign in; the route gates decide what they can do afterwards.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, apperr.New(apperr.KindMissingField, "email and password are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "invalid email or password"))
			return
		}
		h.Log.Error("login: find user", zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "invalid email or password"))
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		h.Log.Error("login: issue token", zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	httpjson.Write(w, http.StatusOK, loginResponse{Token: token, User: u})
}

// Me handles GET /auth/me and returns the fresh account record for the
// authenticated principal.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	id, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, apperr.New(apperr.KindUnauthorized, "account no longer exists"))
			return
		}
		h.Log.Error("me: find user", zap.Error(err))
		httpjson.Error(w, err)
		return
	}

	httpjson.Write(w, http.StatusOK, u)
}
