package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/middleware"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Health         *HealthHandler
	Auth           *AuthHandler
	Schools        *SchoolHandler
	Students       *StudentHandler
	PaymentPeriods *PaymentPeriodHandler
	Payments       *PaymentHandler
	Uploads        *UploadHandler
	Exports        *ExportHandler
	Users          *UserHandler
	Web            *WebHandler
}

// Register mounts the routes. auth guards everything except probes, login,
// token refresh and signed downloads, which carry their own token.
func (h Handlers) Register(r *gin.Engine, apiPrefix string, auth gin.HandlerFunc) {
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)
	r.GET("/web/:resource", auth, h.Web.List)

	api := r.Group(apiPrefix)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/files/:token", h.Uploads.Download)
	api.GET("/exports/:token", h.Exports.Download)

	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)
	secured := api.Group("", auth, middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)

	secured.GET("/schools", h.Schools.List)
	secured.GET("/schools/:id", h.Schools.Get)
	secured.POST("/schools", superadmin, h.Schools.Create)
	secured.PUT("/schools/:id", superadmin, h.Schools.Update)
	secured.DELETE("/schools/:id", superadmin, h.Schools.Delete)

	secured.GET("/students", h.Students.List)
	secured.GET("/students/:id", h.Students.Get)
	secured.POST("/students", h.Students.Create)
	secured.PUT("/students/:id", h.Students.Update)
	secured.DELETE("/students/:id", h.Students.Delete)

	secured.GET("/payment-periods", h.PaymentPeriods.List)
	secured.GET("/payment-periods/:id", h.PaymentPeriods.Get)
	secured.POST("/payment-periods", h.PaymentPeriods.Create)
	secured.PUT("/payment-periods/:id", h.PaymentPeriods.Update)
	secured.DELETE("/payment-periods/:id", h.PaymentPeriods.Delete)

	secured.GET("/payments", h.Payments.List)
	secured.GET("/payments/:id", h.Payments.Get)
	secured.POST("/payments", h.Payments.Create)
	secured.DELETE("/payments/:id", h.Payments.Delete)
	secured.GET("/payments/:id/uploads", h.Uploads.List)
	secured.POST("/payments/:id/uploads", h.Uploads.Create)

	secured.GET("/uploads/:id/download-url", h.Uploads.DownloadURL)
	secured.DELETE("/uploads/:id", h.Uploads.Delete)

	secured.POST("/exports", h.Exports.Create)

	secured.GET("/users", superadmin, h.Users.List)
	secured.GET("/users/:id", middleware.RBAC(string(models.RoleSuperAdmin), middleware.Self), h.Users.Get)
	secured.POST("/users", superadmin, h.Users.Create)
	secured.PUT("/users/:id", superadmin, h.Users.Update)
	secured.DELETE("/users/:id", superadmin, h.Users.Delete)
}
