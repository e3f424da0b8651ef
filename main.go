package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldsales/cache"
	"fieldsales/config"
	"fieldsales/middleware"
	"fieldsales/routes"
	"fieldsales/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	gin.SetMode(gin.ReleaseMode)
	log.Printf("Running in %s mode", gin.Mode())

	r := gin.Default()

	middleware.InitMetrics()
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/metrics", func(c *gin.Context) {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		cache.Products = cache.NewRedisProductCache(addr, os.Getenv("REDIS_PASSWORD"), db)
		log.Printf("Product cache backed by redis at %s", addr)
	}

	s := gocron.NewScheduler(time.Local)
	s.Every(1).Day().At("07:00").Do(utils.CheckLowStock)
	s.StartAsync()

	config.ConnectDatabase()
	routes.InitializeRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "1414"
	}

	r.Run(":" + port)
}

func corsOrigins() []string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return strings.Split(origins, ",")
	}
	return []string{"http://localhost:19006", "http://localhost:3000"}
}
