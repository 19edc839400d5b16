package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"sociallogin/internal/auth"
	"sociallogin/internal/config"
	"sociallogin/internal/database"
	"sociallogin/internal/metrics"
	"sociallogin/internal/middleware"
	"sociallogin/internal/model"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	users     database.UserStore
	posts     database.PostStore
	issuer    *auth.TokenIssuer
	cfg       *config.Config
	metrics   metrics.Recorder
	logger    *slog.Logger
	providers map[string]auth.Authenticator
}

func New(users database.UserStore, posts database.PostStore, issuer *auth.TokenIssuer, cfg *config.Config, rec metrics.Recorder, logger *slog.Logger, providers ...auth.Authenticator) *Handler {
	h := &Handler{
		users:     users,
		posts:     posts,
		issuer:    issuer,
		cfg:       cfg,
		metrics:   rec,
		logger:    logger,
		providers: make(map[string]auth.Authenticator, len(providers)),
	}
	for _, p := range providers {
		h.providers[p.Name()] = p
	}
	return h
}

func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "sociallogin backend"})
}

func (h *Handler) provider(c *gin.Context) (auth.Authenticator, bool) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
	}
	return p, ok
}

// SignInWithProvider sends the browser to the provider's consent page.
func (h *Handler) SignInWithProvider(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, p.AuthURL())
}

// CallbackHandler completes a login: it exchanges the authorization code,
// resolves the user by (provider, social id) and issues a session token.
func (h *Handler) CallbackHandler(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}
	name := p.Name()
	ctx := c.Request.Context()

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	gothUser, err := p.CompleteUserAuth(ctx, code)
	if err != nil {
		var exchangeErr *auth.OAuthExchangeError
		switch {
		case errors.As(err, &exchangeErr):
			h.metrics.RecordLogin(name, metrics.OutcomeExchangeError)
			h.logger.Warn("oauth exchange failed", slog.String("provider", name), slog.String("body", exchangeErr.Body))
			c.String(http.StatusBadRequest, "%s login failed: %s", name, exchangeErr.Body)
		case errors.Is(err, auth.ErrProviderUnavailable):
			h.metrics.RecordLogin(name, metrics.OutcomeProviderError)
			h.logger.Error("provider request failed", slog.String("provider", name), slog.Any("error", err))
			c.JSON(http.StatusBadGateway, gin.H{"error": name + " is unavailable"})
		default:
			h.metrics.RecordLogin(name, metrics.OutcomeProviderError)
			h.logger.Error("login failed", slog.String("provider", name), slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		c.Abort()
		return
	}

	user, created, err := h.users.UpsertUser(ctx, &model.User{
		Provider: name,
		SocialID: gothUser.UserID,
		Name:     gothUser.Name,
		Email:    gothUser.Email,
	})
	if err != nil {
		h.metrics.RecordLogin(name, metrics.OutcomeStoreError)
		h.internalError(c, "upsert user", err)
		return
	}

	outcome := metrics.OutcomeExisting
	if created {
		outcome = metrics.OutcomeCreated
		h.logger.Info("user created", slog.String("provider", name), slog.String("user_id", user.ID))
	}
	h.metrics.RecordLogin(name, outcome)

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.internalError(c, "issue token", err)
		return
	}

	h.respondWithToken(c, name, token)
}

// respondWithToken redirects to the front page with the token in the query
// string, unless the client asked for JSON or no front page is configured.
func (h *Handler) respondWithToken(c *gin.Context, provider, token string) {
	if h.cfg.FrontPageURL == "" || c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{
			"message": provider + " login succeeded",
			"token":   token,
		})
		return
	}

	u, err := url.Parse(h.cfg.FrontPageURL)
	if err != nil {
		h.internalError(c, "parse front page url", err)
		return
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	c.Redirect(http.StatusFound, u.String())
}

// Profile returns the identity embedded in the session token.
func (h *Handler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "profile retrieved",
		"user_info": middleware.UserID(c),
	})
}

// Me loads the user the session token was issued for.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.FindUserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.internalError(c, "find user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Logout only acknowledges the request: session tokens are not stored, so
// the client logs out by discarding its token.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "session tokens are stateless; delete the token on the client to log out"})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op+" failed", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
	_ = c.Error(fmt.Errorf("%s: %w", op, err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
