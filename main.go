package main

import (
	"log"
	"net/http"

	controller "github.com/consentlens/backend/controller"
	"github.com/consentlens/backend/initializers"
	middleware "github.com/consentlens/backend/middleware"
	service "github.com/consentlens/backend/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("[WARN] No .env file loaded: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	providerCfg := service.LoadProviderConfig()
	if !providerCfg.Configured() {
		log.Println("[WARN] GROQ_API_KEY not set; analysis and chat will serve canned fallbacks")
	}

	docService, err := service.NewDocumentService(initializers.DB)
	if err != nil {
		log.Fatalf("Failed to initialize document service: %s", err)
	}
	analysisService := service.NewAnalysisService(providerCfg, docService)
	chatService := service.NewChatService(initializers.DB, providerCfg)
	profileService := service.NewProfileService(initializers.DB)

	docController := controller.NewDocumentController(docService)
	analysisController := controller.NewAnalysisController(analysisService)
	chatController := controller.NewChatController(chatService)
	profileController := controller.NewProfileController(profileService)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	// Global rate limiter for most routes
	router.Use(middleware.GlobalRateLimiter.Limit())

	// Provider-backed routes with stricter rate limiting
	router.POST("/analyze",
		middleware.StrictRateLimiter.Limit(),
		analysisController.Analyze)

	router.POST("/documents",
		middleware.StrictRateLimiter.Limit(),
		docController.CreateDocument)

	router.GET("/documents", docController.GetAllDocuments)
	router.GET("/documents/:id", docController.GetDocument)
	router.DELETE("/documents/:id",
		middleware.StrictRateLimiter.Limit(),
		docController.DeleteDocument)
	router.GET("/documents/:id/export", docController.ExportReport)

	router.POST("/documents/:id/chat",
		middleware.StrictRateLimiter.Limit(),
		chatController.Chat)
	router.GET("/documents/:id/chat", chatController.GetHistory)

	router.GET("/search", docController.SearchDocuments)

	router.POST("/profiles",
		middleware.StrictRateLimiter.Limit(),
		profileController.CreateProfile)
	router.GET("/profiles/:id", profileController.GetProfile)
	router.DELETE("/profiles/:id",
		middleware.StrictRateLimiter.Limit(),
		profileController.DeleteProfile)

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.Run(":8080")
}
