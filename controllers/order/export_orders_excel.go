package orderControllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/log"
)

// GET /admin/orders/export — back-office order report.
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
			log.L.Error("failed to fetch orders for export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderNumber", "CreatedAt", "Email", "Phone", "City", "State",
			"ItemCount", "Subtotal", "ShippingCost", "Tax", "Total",
			"PaymentMethod", "PaymentStatus", "Status", "TrackingNumber",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			itemCount := 0
			for _, item := range o.Items {
				itemCount += item.Quantity
			}

			row := sheet.AddRow()
			row.AddCell().SetValue(o.OrderNumber)
			row.AddCell().SetValue(o.CreatedAt.Format(time.RFC3339))
			row.AddCell().SetValue(o.Email)
			row.AddCell().SetValue(o.Phone)
			row.AddCell().SetValue(o.ShippingCity)
			row.AddCell().SetValue(o.ShippingState)
			row.AddCell().SetValue(itemCount)
			row.AddCell().SetValue(o.Subtotal.String())
			row.AddCell().SetValue(o.ShippingCost.String())
			row.AddCell().SetValue(o.Tax.String())
			row.AddCell().SetValue(o.Total.String())
			row.AddCell().SetValue(o.PaymentMethod)
			row.AddCell().SetValue(string(o.PaymentStatus))
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(o.TrackingNumber)
		}

		filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

		if err := file.Write(c.Writer); err != nil {
			log.L.Error("failed to write excel export", zap.Error(err))
		}
	}
}
