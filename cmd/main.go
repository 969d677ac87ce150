package main

import (
	"fmt"
	"net/http"
	"time"

	_ "github.com/campusware/lms-rest-api/docs" // Import generated docs
	"github.com/campusware/lms-rest-api/internal/auth"
	"github.com/campusware/lms-rest-api/internal/config"
	"github.com/campusware/lms-rest-api/internal/controllers"
	"github.com/campusware/lms-rest-api/internal/database"
	"github.com/campusware/lms-rest-api/internal/lms"
	"github.com/campusware/lms-rest-api/internal/middleware"
	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/campusware/lms-rest-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	db               *gorm.DB
	clientRegistry   registry.ClientRegistry
	oauthService     *auth.OAuthService
	clientController *controllers.ClientController
	newsController   *controllers.NewsController
	courseController *controllers.CourseController
	searchController *controllers.SearchController
	configuration    *config.Config
)

// @title LMS REST API
// @version 1.0
// @description REST gateway for a legacy learning management system with an OAuth2 client registry
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Initialize registry, services and controllers
	clientRegistry = registry.NewClientRegistry(db)
	users := lms.NewGormUserDirectory(db)
	oauthService = auth.NewOAuthService(db, clientRegistry, users, configuration.JWTSecret,
		time.Duration(configuration.AccessTokenLifetime)*time.Minute,
		time.Duration(configuration.RefreshTokenLifetime)*time.Minute)

	clientController = controllers.NewClientController(clientRegistry)
	newsController = controllers.NewNewsController(services.NewNewsService(db))
	courseController = controllers.NewCourseController(services.NewCourseService(db))
	searchController = controllers.NewSearchController(services.NewSearchService(db))

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	log.Info("Loading configuration from environment variables")
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase initializes the database connection and returns a gorm.DB instance
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	checkPanicErr(err)

	// Migrate the schema
	err = db.AutoMigrate(
		&models.Client{},
		&models.Permission{},
		&models.AllowedUser{},
		&models.AllowedIP{},
		&models.OAuthToken{},
		&models.OAuthCode{},
		&models.LMSUser{},
		&models.ObjectReference{},
		&models.NewsItem{},
		&models.Course{},
		&models.CourseItem{},
		&models.CourseMember{},
	)
	checkPanicErr(err)

	// Create only if is empty
	var count int64
	db.Model(&models.LMSUser{}).Count(&count)
	if count == 0 {
		log.Info("Database is empty, seeding initial data")
		seedDatabase()
	} else {
		log.Info("Database already seeded with initial data")
	}
	return db
}

// seedDatabase seeds an administrative LMS user so the admin routes are
// reachable on a fresh install
func seedDatabase() {
	log.Info("Seeding database with initial data")
	password := config.GetEnvWithDefault("ADMIN_PASSWORD", "homer")
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	checkPanicErr(err)

	admin := models.LMSUser{
		Login:    config.GetEnvWithDefault("ADMIN_LOGIN", "root"),
		Password: string(hashed),
		RoleID:   models.AdminRoleID,
	}
	db.Create(&admin)
	log.WithField("login", admin.Login).Info("Database seeded successfully")
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	// Initialize Gin router
	router := gin.Default()

	// Define routes
	setupRoutes(router)

	return router
}

// Add this handler for testing.
// TODO remove when the dev bootstrap script covers token minting
func generateTestTokenHandler(c *gin.Context) {
	// Create test claims
	claims := jwt.MapClaims{
		"uid":  "1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour * 24).Unix(), // 24 hours
		"iat":  time.Now().Unix(),
	}

	// Create token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(configuration.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tokenString,
		"type":       "Bearer",
		"expires_in": 86400, // 24 hours in seconds
	})
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// Test token generation endpoint
	router.GET("/test-token", generateTestTokenHandler)

	// OAuth2 endpoints (client authenticates via form credentials)
	oauth := router.Group("/oauth")
	{
		oauth.POST("/token", oauthService.HandleToken)
		oauth.POST("/authorize", oauthService.HandleAuthorize)
		oauth.GET("/consent", oauthService.HandleConsentInfo)
	}

	jwtSecret := []byte(configuration.JWTSecret)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.TokenAuth(jwtSecret))
	{
		// Administrative client registry; admin role required
		adminApi := v1.Group("/admin")
		adminApi.Use(middleware.RequireRole("admin"))
		{
			adminApi.GET("/clients", clientController.ListClients)
			adminApi.POST("/clients", clientController.CreateClient)
			adminApi.PUT("/clients/:id", clientController.UpdateClientField)
			adminApi.DELETE("/clients/:id", clientController.DeleteClient)

			adminApi.GET("/clients/:id/permissions", clientController.ListPermissions)
			adminApi.POST("/clients/:id/permissions", clientController.AddPermission)
			adminApi.GET("/permissions/:id", clientController.GetPermission)
			adminApi.DELETE("/permissions/:id", clientController.DeletePermission)
		}

		// LMS extension routes; gated by the per-client allow-lists
		restricted := v1.Group("")
		restricted.Use(middleware.IPRestriction(clientRegistry))
		restricted.Use(middleware.RoutePermission(clientRegistry))
		{
			restricted.GET("/news/pdnews", newsController.GetPDNews)
			restricted.GET("/news/pdnews/:user_id", newsController.GetPDNewsForUser)

			restricted.GET("/courses/:ref_id", courseController.GetCourse)
			restricted.POST("/courses", courseController.CreateCourse)
			restricted.DELETE("/courses/:ref_id", courseController.DeleteCourse)
			restricted.POST("/courses/:ref_id/join", courseController.JoinCourse)
			restricted.POST("/courses/:ref_id/leave", courseController.LeaveCourse)

			restricted.GET("/search", searchController.Search)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "lms-rest-api",
	})
}
