package productControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/log"
)

// GET /products — active products, optional category/featured filters.
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		query := db.Preload("Category").Where("is_active = ?", true)
		if category := c.Query("category"); category != "" {
			query = query.Joins("JOIN categories ON categories.id = products.category_id").
				Where("categories.slug = ?", category)
		}
		if c.Query("featured") == "true" {
			query = query.Where("featured = ?", true)
		}

		var products []models.Product
		if err := query.Order("products.created_at DESC").
			Limit(limit).Offset(offset).
			Find(&products).Error; err != nil {
			log.L.Error("failed to fetch products", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"products": products,
			"count":    len(products),
		})
	}
}

// GET /products/:identifier — by numeric id or slug.
func GetProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.Param("identifier")

		query := db.Preload("Category").Where("is_active = ?", true)
		if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
			query = query.Where("id = ?", id)
		} else {
			query = query.Where("slug = ?", identifier)
		}

		var product models.Product
		if err := query.First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			log.L.Error("failed to fetch product", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		c.JSON(http.StatusOK, product)
	}
}
