package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	productControllers "github.com/divijshrivastava/hisrage/controllers/product"
)

func SetupProductRoutes(api *gin.RouterGroup, db *gorm.DB) {
	products := api.Group("/products")
	{
		products.GET("/", productControllers.GetProducts(db))
		products.GET("/:identifier", productControllers.GetProduct(db))
	}
}
