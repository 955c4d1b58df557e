package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/khoido2003/natour-api/internal/handler"
	"github.com/khoido2003/natour-api/internal/middleware"
	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/service"
	"github.com/khoido2003/natour-api/pkg/logger"
	corsmiddleware "github.com/khoido2003/natour-api/pkg/middleware/cors"
	reqidmiddleware "github.com/khoido2003/natour-api/pkg/middleware/requestid"
)

type routerDeps struct {
	APIPrefix      string
	AllowedOrigins []string
	CookieName     string
	EnableDocs     bool

	Logger   *zap.Logger
	Metrics  *service.MetricsService
	Sessions middleware.SessionResolver

	Tours   *handler.TourHandler
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Monitor *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(corsmiddleware.New(d.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", d.Monitor.Health)
	r.GET("/ready", d.Monitor.Ready)
	r.GET("/metrics", d.Monitor.Prometheus)

	if d.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	protect := middleware.Protect(d.Sessions, d.CookieName)
	staff := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)
	adminOnly := middleware.RestrictTo(models.RoleAdmin)

	api := r.Group(d.APIPrefix)
	api.GET("/top-5-tours", middleware.AliasTopTours(), d.Tours.List)

	tours := api.Group("/tours")
	tours.GET("", d.Tours.List)
	tours.GET("/top-5-cheap", middleware.AliasTopTours(), d.Tours.List)
	tours.GET("/export", d.Tours.Export)
	tours.GET("/:id", d.Tours.Get)
	tours.POST("", protect, staff, d.Tours.Create)
	tours.PATCH("/:id", protect, staff, d.Tours.Update)
	tours.DELETE("/:id", protect, staff, d.Tours.Delete)

	users := api.Group("/users")
	users.POST("/signup", d.Auth.Signup)
	users.POST("/login", d.Auth.Login)
	users.GET("/logout", d.Auth.Logout)
	users.POST("/logout", d.Auth.Logout)
	users.POST("/forgotPassword", d.Auth.ForgotPassword)
	users.PATCH("/resetPassword/:token", d.Auth.ResetPassword)

	self := users.Group("", protect)
	self.PATCH("/updateMyPassword", d.Auth.UpdateMyPassword)
	self.GET("/me", d.Users.Me)
	self.PATCH("/updateMe", d.Users.UpdateMe)
	self.DELETE("/deleteMe", d.Users.DeleteMe)

	admin := users.Group("", protect, adminOnly)
	admin.GET("", d.Users.List)
	admin.GET("/:id", d.Users.Get)
	admin.PATCH("/:id", d.Users.Update)
	admin.DELETE("/:id", d.Users.Delete)

	return r
}
