package routes

import (
	"fieldsales/controllers"
	"fieldsales/middleware"

	"github.com/gin-gonic/gin"
)

func InitializeRoutes(router *gin.Engine) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", controllers.Login)
		auth.POST("/register", controllers.Register)
		auth.POST("/forgot-password", controllers.RequestPasswordReset)
		auth.POST("/reset-password", controllers.ResetPassword)
	}

	authed := router.Group("/")
	authed.Use(middleware.AuthMiddleware(""))
	{
		authed.GET("/customers", controllers.ListCustomers)
		authed.POST("/customers", controllers.AddCustomer)

		authed.GET("/products", controllers.GetAllProducts)
		authed.POST("/products", controllers.AddProduct)
		authed.GET("/products/:id", controllers.GetProduct)
		authed.PUT("/products/:id", controllers.EditProduct)
		authed.POST("/products/:id/photo", controllers.UploadProductPhoto)

		authed.POST("/sales", controllers.CreateSale)
		authed.GET("/sales/my", controllers.GetMySales)

		authed.POST("/returns", controllers.CreateReturn)
		authed.GET("/returns/my", controllers.GetMyReturns)

		authed.POST("/stocks/add", controllers.AddStock)
		authed.POST("/stocks/remove", controllers.RemoveStock)
		authed.GET("/stocks", controllers.ListStockMovements)

		authed.GET("/zones", controllers.ListZones)
		authed.GET("/provinces", controllers.ListProvinces)
	}
}
