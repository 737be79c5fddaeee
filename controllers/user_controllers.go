package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type UserController struct {
	Identity *services.IdentityService
	Signer   *utils.TokenSigner
}

func NewUserController(identity *services.IdentityService, signer *utils.TokenSigner) *UserController {
	return &UserController{Identity: identity, Signer: signer}
}

// Register creates a customer account.
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Username string  `json:"username" binding:"required,min=3,max=100"`
		Password string  `json:"password" binding:"required,min=6"`
		FullName *string `json:"full_name" binding:"omitempty,max=255"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Phone    *string `json:"phone" binding:"omitempty,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := uc.Identity.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

func (uc *UserController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := uc.Identity.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := uc.Signer.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated account.
func (uc *UserController) Me(c *gin.Context) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	user, err := uc.Identity.GetUser(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current user", user)
}

func (uc *UserController) ListUsers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := uc.Identity.ListUsers(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of users", page)
}

func (uc *UserController) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,user_role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, _ := middlewares.CurrentPrincipal(c)
	user, err := uc.Identity.UpdateRole(c.Request.Context(), p, id, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Role updated", user)
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, _ := middlewares.CurrentPrincipal(c)
	if err := uc.Identity.DeleteUser(c.Request.Context(), p, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User deleted", nil)
}
