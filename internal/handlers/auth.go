package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"agency-backend/internal/auth"
	"agency-backend/internal/config"
	"agency-backend/internal/database"
	"agency-backend/internal/email"
	"agency-backend/internal/middleware"
	"agency-backend/internal/models"
)

const otpTTL = 10 * time.Minute

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type AuthHandler struct {
	db     *database.Database
	cfg    *config.Config
	outbox *email.Outbox
	logger *zap.Logger
}

func NewAuthHandler(db *database.Database, cfg *config.Config, outbox *email.Outbox, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, outbox: outbox, logger: logger}
}

func (h *AuthHandler) issueToken(c *gin.Context, user *models.User) {
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID.Hex(), user.IsAdmin, auth.DefaultTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to issue token",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// Register godoc
// @Summary     Create an account
// @Description Registers a password account. Emails are unique; the password is
// @Description stored as a bcrypt hash.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.RegisterRequest true "Registration data"
// @Success     200 {object} models.AuthResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	if _, err := h.db.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "email already registered"})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to check email",
			Message: err.Error(),
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to hash password",
			Message: err.Error(),
		})
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hash),
	}
	if err := h.db.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "failed to create user",
			Message: err.Error(),
		})
		return
	}

	h.outbox.Enqueue("registration", email.Registration(user.Email, user.Name))
	h.issueToken(c, user)
}

// Login godoc
// @Summary     Password login
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.LoginRequest true "Credentials"
// @Success     200 {object} models.AuthResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
		return
	}
	if user.Password == "" {
		// Google-only account, no password set
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
		return
	}

	h.issueToken(c, user)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestOTP godoc
// @Summary     Request a one-time login code
// @Description Emails a 6-digit code valid for 10 minutes. Always answers 200 so
// @Description the endpoint does not reveal which emails have accounts.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.OTPRequest true "Email"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /auth/otp/request [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	resp := models.MessageResponse{Message: "if the email is registered, a code has been sent"}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	code, err := generateOTP()
	if err != nil {
		h.logger.Error("failed to generate otp", zap.Error(err))
		c.JSON(http.StatusOK, resp)
		return
	}
	if err := h.db.SetUserOTP(c.Request.Context(), user.ID, code, time.Now().Add(otpTTL)); err != nil {
		h.logger.Error("failed to store otp", zap.Error(err))
		c.JSON(http.StatusOK, resp)
		return
	}

	h.outbox.Enqueue("otp", email.OTP(user.Email, user.Name, code))
	c.JSON(http.StatusOK, resp)
}

// VerifyOTP godoc
// @Summary     Log in with a one-time code
// @Description Exchanges a valid, unexpired code for a JWT. Codes are single
// @Description use: they are cleared on success.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.OTPVerifyRequest true "Email and code"
// @Success     200 {object} models.AuthResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid or expired code"})
		return
	}
	if user.OTPCode == "" || user.OTPCode != req.Code || time.Now().After(user.OTPExpiresAt) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid or expired code"})
		return
	}

	if err := h.db.ClearUserOTP(c.Request.Context(), user.ID); err != nil {
		h.logger.Error("failed to clear otp", zap.Error(err))
	}

	h.issueToken(c, user)
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleLogin godoc
// @Summary     Log in with Google
// @Description Exchanges an OAuth authorization code for the Google profile and
// @Description links or creates the matching account by email.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.GoogleLoginRequest true "Authorization code"
// @Success     200 {object} models.AuthResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.cfg.GoogleLoginEnabled() {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "google login is not configured"})
		return
	}

	var req models.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	oauthCfg := &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  h.cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	ctx := c.Request.Context()
	token, err := oauthCfg.Exchange(ctx, req.Code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "failed to exchange authorization code",
			Message: err.Error(),
		})
		return
	}

	resp, err := oauthCfg.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "failed to fetch google profile",
			Message: err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to decode google profile",
			Message: err.Error(),
		})
		return
	}
	if info.Email == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "google profile has no email"})
		return
	}

	user, err := h.db.UpsertGoogleUser(ctx, info.ID, info.Email, info.Name, info.Picture)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save user",
			Message: err.Error(),
		})
		return
	}

	h.issueToken(c, user)
}

// Me godoc
// @Summary     Current user profile
// @Tags        auth
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.User
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}
