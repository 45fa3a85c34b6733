package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/divijshrivastava/hisrage/controllers/cart"
	"github.com/divijshrivastava/hisrage/store"
)

func SetupCartRoutes(api *gin.RouterGroup, db *gorm.DB, carts store.CartStore) {
	cart := api.Group("/cart")
	{
		cart.GET("/", cartControllers.GetCart(db, carts))
		cart.POST("/add", cartControllers.AddItem(db, carts))
		cart.PUT("/update/:productID", cartControllers.UpdateItem(db, carts))
		cart.DELETE("/remove/:productID", cartControllers.RemoveItem(carts))
		cart.DELETE("/clear", cartControllers.ClearCart(carts))
	}
}
