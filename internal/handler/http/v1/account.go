package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/internal/auth"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/pkg/e"
)

// @Summary Register a new user
// @Description Create a user account. Rate limited per client.
// @Tags Accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param user body RegisterRequest true "Registration request"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Username or email already exists"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /register [post]
func (h *Handler) register(c *gin.Context) {
	var input RegisterRequest
	log := h.logger.WithField("method", "register")
	if !h.bind(c, log, &input) {
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), models.RegisterInput{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		if errors.Is(err, e.ErrConflict) {
			log.WithError(err).Warn("Registration conflict")
			c.JSON(http.StatusConflict, ErrorResponse{Error: "username or email already exists"})
			return
		}
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToUserResponse(user))
}

// @Summary User login
// @Description Verify credentials and open a user session. Any previous session of the client is closed.
// @Tags Accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param credentials body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Invalid username or password"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")
	if !h.bind(c, log, &input) {
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, log, err)
		return
	}
	if err := h.startSession(c, auth.UserIdentity(user.ID, user.Username)); err != nil {
		respondError(c, log, err)
		return
	}
	log.WithField("user_id", user.ID).Info("User logged in")
	c.JSON(http.StatusOK, LoginResponse{Success: true, Domain: auth.KindUser.String(), Username: user.Username})
}

// @Summary User logout
// @Description Close the current user session
// @Tags Accounts
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /logout [post]
func (h *Handler) logout(c *gin.Context) {
	log := h.logger.WithField("method", "logout")
	if err := h.endSession(c); err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
}

// @Summary Operator login
// @Description Verify operator credentials and open an operator session. A concurrent user session of the client is closed.
// @Tags Operator
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param credentials body LoginRequest true "Operator login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Invalid username or password"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin [post]
func (h *Handler) operatorLogin(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "operatorLogin")
	if !h.bind(c, log, &input) {
		return
	}
	c.Set(auditTargetKey, "operator:"+input.Username)

	identity, err := h.operators.Verify(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, log, err)
		return
	}
	if err := h.startSession(c, identity); err != nil {
		respondError(c, log, err)
		return
	}
	log.WithField("operator", identity.Username).Info("Operator logged in")
	c.JSON(http.StatusOK, LoginResponse{Success: true, Domain: auth.KindOperator.String(), Username: identity.Username})
}

// @Summary Operator logout
// @Description Close the current operator session
// @Tags Operator
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse "Operator login required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/logout [post]
func (h *Handler) operatorLogout(c *gin.Context) {
	log := h.logger.WithField("method", "operatorLogout")
	c.Set(auditTargetKey, "operator:"+identityFrom(c).Username)
	if err := h.endSession(c); err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
}
