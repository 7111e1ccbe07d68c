package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/internal/auth"
)

const (
	SessionCookieName = "surakshita_session"

	identityKey = "identity"
	tokenKey    = "session_token"

	userLoginPath     = "/login"
	operatorLoginPath = "/admin"
)

// identityFrom возвращает идентичность, привязанную к запросу middleware identify
func identityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Anonymous()
}

// identify - middleware разрешения сессии: токен из cookie -> Identity.
// Неизвестный или истёкший токен даёт Anonymous, ошибка хранилища - 500.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, auth.Anonymous())

		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		c.Set(tokenKey, token)

		sess, err := h.sessions.Get(c.Request.Context(), token)
		if err != nil {
			h.logger.WithField("method", "identify").WithError(err).Error("Failed to resolve session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if sess != nil {
			c.Set(identityKey, sess.Identity)
		}
		c.Next()
	}
}

// RequireUser пропускает только пользовательский домен
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFrom(c)
		if id.IsUser() {
			c.Next()
			return
		}
		log := h.logger.WithField("method", "RequireUser").WithField("path", c.FullPath())
		if id.IsOperator() {
			log.Warn("Operator identity on user route")
			h.reject(c, http.StatusForbidden, "user session required", userLoginPath)
			return
		}
		log.Debug("Anonymous request on user route")
		h.reject(c, http.StatusUnauthorized, "login required", userLoginPath)
	}
}

// RequireOperator пропускает только операторский домен
func (h *Handler) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFrom(c)
		if id.IsOperator() {
			c.Next()
			return
		}
		log := h.logger.WithField("method", "RequireOperator").WithField("path", c.FullPath())
		if id.IsUser() {
			log.WithField("user_id", id.UserID).Warn("User identity on operator route")
			h.reject(c, http.StatusForbidden, "operator session required", operatorLoginPath)
			return
		}
		log.Debug("Anonymous request on operator route")
		h.reject(c, http.StatusUnauthorized, "operator login required", operatorLoginPath)
	}
}

// reject перенаправляет навигацию браузера на нужный вход, остальным отвечает JSON
func (h *Handler) reject(c *gin.Context, status int, msg, login string) {
	c.Set(deniedKey, true)
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, login)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Login: login})
}

func wantsHTML(c *gin.Context) bool {
	return c.Request.Method == http.MethodGet && strings.Contains(c.GetHeader("Accept"), "text/html")
}

// clientKey - ключ клиента для лимитов: id пользователя, если он привязан, иначе IP
func clientKey(c *gin.Context) string {
	if id := identityFrom(c); id.IsUser() {
		return "user:" + strconv.FormatInt(id.UserID, 10)
	}
	return "ip:" + c.ClientIP()
}

// startSession закрывает прежнюю привязку из cookie и открывает новую
func (h *Handler) startSession(c *gin.Context, identity auth.Identity) error {
	ctx := c.Request.Context()
	if old := c.GetString(tokenKey); old != "" {
		if err := h.sessions.Delete(ctx, old); err != nil {
			return err
		}
	}
	sess, err := h.sessions.Create(ctx, identity)
	if err != nil {
		return err
	}
	c.Set(identityKey, identity)
	c.Set(tokenKey, sess.Token)
	h.setSessionCookie(c, sess.Token, int(h.cfg.SessionTTL.Seconds()))
	return nil
}

// endSession удаляет привязку и cookie
func (h *Handler) endSession(c *gin.Context) error {
	token := c.GetString(tokenKey)
	h.setSessionCookie(c, "", -1)
	if token == "" {
		return nil
	}
	return h.sessions.Delete(c.Request.Context(), token)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", h.cfg.SessionCookieSecure, true)
}
