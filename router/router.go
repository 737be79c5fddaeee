package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Dependencies are built once at startup and shared by every handler.
type Dependencies struct {
	Config    *config.Config
	Gateway   *database.Gateway
	Completer services.Completer
	Logger    logrus.FieldLogger
}

func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if err := controllers.RegisterValidators(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	log := utils.Logger(deps.Logger)

	orderSvc := services.NewOrderService(deps.Gateway, log)
	catalogSvc := services.NewCatalogService(deps.Gateway, log)
	identitySvc := services.NewIdentityService(deps.Gateway, log)
	recommendSvc := services.NewRecommendationService(catalogSvc, deps.Completer, log)
	signer := utils.NewTokenSigner(cfg.JWTSecret, cfg.JWTTTL)

	userCtrl := controllers.NewUserController(identitySvc, signer)
	categoryCtrl := controllers.NewMenuCategoryController(catalogSvc)
	menuCtrl := controllers.NewMenuController(catalogSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	adminCtrl := controllers.NewAdminController(orderSvc)
	recommendCtrl := controllers.NewRecommendationController(recommendSvc)

	rateLimiter := middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	authRequired := middlewares.AuthMiddleware(signer, identitySvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware(log))
	r.Use(middlewares.MetricsMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		if err := deps.Gateway.Ping(c.Request.Context()); err != nil {
			utils.ErrLog().WithError(err).Error("health: database ping failed")
			utils.RespondJSON(c, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "ok", nil)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter.RateLimit())

	auth := api.Group("/auth")
	{
		auth.POST("/register", userCtrl.Register)
		auth.POST("/login", userCtrl.Login)
		auth.GET("/me", authRequired, userCtrl.Me)
	}

	// Public catalog
	api.GET("/categories", categoryCtrl.GetAllCategories)
	api.GET("/categories/:id", categoryCtrl.GetCategoryByID)
	api.GET("/menu", menuCtrl.GetAllMenus)
	api.GET("/menu/:id", menuCtrl.GetMenuByID)
	api.POST("/recipe-suggestion", recommendCtrl.Suggest)

	orders := api.Group("/orders")
	{
		orders.POST("", middlewares.OptionalAuth(signer, identitySvc), orderCtrl.CreateOrder)
		orders.GET("/my", authRequired, orderCtrl.GetMyOrders)
		orders.GET("/:id", authRequired, orderCtrl.GetOrderByID)
		orders.POST("/:id/pay", authRequired, orderCtrl.PayOrder)
	}

	admin := api.Group("/admin", authRequired)
	{
		admin.PUT("/orders/:id/status", middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff), adminCtrl.UpdateOrderStatus)

		adminOnly := admin.Group("", middlewares.RequireRoles(models.RoleAdmin))
		adminOnly.GET("/orders", adminCtrl.ListOrders)
		adminOnly.GET("/orders/:id/history", adminCtrl.OrderHistory)

		adminOnly.GET("/categories", categoryCtrl.GetAllCategories)
		adminOnly.POST("/categories", categoryCtrl.CreateCategory)
		adminOnly.PUT("/categories/:id", categoryCtrl.UpdateCategory)
		adminOnly.DELETE("/categories/:id", categoryCtrl.DeleteCategory)

		adminOnly.GET("/menu", menuCtrl.GetAllMenusAdmin)
		adminOnly.POST("/menu", menuCtrl.CreateMenu)
		adminOnly.PUT("/menu/:id", menuCtrl.UpdateMenu)
		adminOnly.DELETE("/menu/:id", menuCtrl.DeleteMenu)

		adminOnly.GET("/users", userCtrl.ListUsers)
		adminOnly.PUT("/users/:id/role", userCtrl.UpdateRole)
		adminOnly.DELETE("/users/:id", userCtrl.DeleteUser)
	}

	return r, nil
}
