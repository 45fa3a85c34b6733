package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	paymentControllers "github.com/divijshrivastava/hisrage/controllers/payment"
	"github.com/divijshrivastava/hisrage/middleware"
	"github.com/divijshrivastava/hisrage/models"
	"github.com/divijshrivastava/hisrage/pkg/log"
	"github.com/divijshrivastava/hisrage/routes"
	"github.com/divijshrivastava/hisrage/stock"
	"github.com/divijshrivastava/hisrage/store"
)

func main() {
	_ = godotenv.Load()

	db := initDatabase()

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.L.Fatal("automigrate failed", zap.Error(err))
	}

	carts := selectCartStore(db)
	ledger := stock.NewLedger(db)
	providers := paymentControllers.LoadProviders()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.Visitor())

	routes.SetupRoutes(r, db, carts, ledger, providers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.L.Info("server starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		log.L.Fatal("failed to start server", zap.Error(err))
	}
}

func frontendURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}

// initDatabase sets up the GORM DB connection.
func initDatabase() *gorm.DB {
	config := &gorm.Config{TranslateError: true}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), config)
		if err != nil {
			log.L.Fatal("db connection failed", zap.Error(err))
		}
		return db
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		log.L.Fatal("db connection failed", zap.Error(err))
	}
	return db
}

// selectCartStore picks the cart backend once at startup: the gorm-backed
// persistent store by default, redis when CART_STORE=redis.
func selectCartStore(db *gorm.DB) store.CartStore {
	if os.Getenv("CART_STORE") != "redis" {
		return store.NewGormCartStore(db)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	log.L.Info("using redis cart store", zap.String("addr", addr))
	return store.NewRedisCartStore(rdb)
}
