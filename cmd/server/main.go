package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/classboardhq/classboard-backend/internal/cache"
	"github.com/classboardhq/classboard-backend/internal/email"
	"github.com/classboardhq/classboard-backend/internal/handlers"
	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/middleware"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/repository"
	"github.com/classboardhq/classboard-backend/internal/service"
	"github.com/classboardhq/classboard-backend/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "ClassBoard Backend",
		// Support attachment uploads up to 25MB + overhead.
		BodyLimit: 28 * 1024 * 1024,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CB-CSRF",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	unreadCache := cache.NewUnreadCache(redisCache)
	inboxCache := cache.NewInboxCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	classRepo := repository.NewClassRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	classworkRepo := repository.NewClassworkRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	readMarkerRepo := repository.NewReadMarkerRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	chatMessageRepo := repository.NewChatMessageRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	pendingNotificationRepo := repository.NewPendingNotificationRepository(db)

	// Realtime plumbing: the feed carries content events, the hub owns
	// live sockets, the bridge fans feed events out to connected members.
	feed := realtime.NewFeed()
	hub := realtime.NewHub(pendingNotificationRepo)
	bridge := realtime.NewBridge(feed, hub, classRepo)

	// Outbound email (console fallback when no provider is configured)
	mailer := email.NewServiceFromEnv("ClassBoard")

	// Initialize services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, schoolRepo)
	userService := service.NewUserService(userRepo)
	schoolService := service.NewSchoolService(schoolRepo, userRepo)
	classService := service.NewClassService(classRepo, topicRepo, userRepo, schoolRepo, feed, mailer)
	contentService := service.NewContentService(classworkRepo, announcementRepo, readMarkerRepo, classRepo, topicRepo, feed)
	submissionService := service.NewSubmissionService(submissionRepo, classworkRepo, classRepo)
	chatService := service.NewChatService(conversationRepo, chatMessageRepo, userRepo, feed, hub)
	unreadService := service.NewUnreadService(classRepo, classworkRepo, announcementRepo, readMarkerRepo, unreadCache, hub)

	// The unread service consumes its own feed subscription so counters
	// invalidate on every content or membership event.
	go unreadService.Run(feed.Subscribe())

	// Initialize S3/MinIO storage (best-effort; feature endpoints return 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	avatarService := service.NewAvatarService(userRepo, s3Store)
	attachmentService := service.NewAttachmentService(classworkRepo, submissionRepo, classRepo, s3Store)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	schoolHandler := handlers.NewSchoolHandler(schoolService)
	classHandler := handlers.NewClassHandler(classService)
	contentHandler := handlers.NewContentHandler(contentService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	chatHandler := handlers.NewChatHandler(chatService, inboxCache)
	unreadHandler := handlers.NewUnreadHandler(unreadService)
	avatarHandler := handlers.NewAvatarHandler(avatarService)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentService)
	mediaHandler := handlers.NewMediaHandler(s3Store, attachmentService)
	wsHandler := handlers.NewWebSocketHandler(chatService, unreadService, userService, hub, bridge, presenceCache)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Get("/csrf", authHandler.CSRF)
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh) // No CSRF required - protected by refresh token possession
	auth.Post("/logout", middleware.CSRFRequired(), authHandler.Logout)
	api.Get("/users/check-username", userHandler.CheckUsername) // Public endpoint for username check

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired(), middleware.CSRFRequired())
	protected.Get("/users/me", userHandler.GetCurrentUser)
	protected.Put("/users/me", userHandler.UpdateProfile)
	protected.Post(
		"/users/me/avatar",
		limiter.New(limiter.Config{
			Max:        10,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalUint(c, "userID"); err == nil {
					return "avatar:" + strconv.FormatUint(uint64(uid), 10)
				}
				return c.IP()
			},
		}),
		avatarHandler.UploadMyAvatar,
	)
	protected.Delete("/users/me/avatar", avatarHandler.DeleteMyAvatar)
	protected.Get("/media/avatars/*", mediaHandler.GetAvatar)
	protected.Get("/media/attachments/*", mediaHandler.GetAttachment)
	protected.Get("/users/search", userHandler.SearchUsers)
	protected.Get("/users/:identifier", userHandler.GetUser)

	// School routes
	protected.Post("/schools", middleware.RequireRole("admin"), schoolHandler.CreateSchool)
	protected.Get("/schools", schoolHandler.ListSchools)
	protected.Get("/schools/:id", schoolHandler.GetSchool)
	protected.Put("/schools/:id", middleware.RequireRole("admin"), schoolHandler.UpdateSchool)

	// Class and roster routes
	protected.Post("/classes", middleware.RequireAnyRole("teacher", "admin"), classHandler.CreateClass)
	protected.Get("/classes", classHandler.MyClasses)
	protected.Post("/classes/join", classHandler.JoinByCode)
	protected.Get("/classes/:id", classHandler.GetClass)
	protected.Get("/classes/:id/members", classHandler.GetMembers)
	protected.Post("/classes/:id/members", classHandler.AddStudent)
	protected.Delete("/classes/:id/members/:userID", classHandler.RemoveMember)
	protected.Post("/classes/:id/leave", classHandler.LeaveClass)
	protected.Post("/classes/:id/join-code", classHandler.RegenerateJoinCode)
	protected.Post("/classes/:id/archive", classHandler.ArchiveClass)
	protected.Post("/classes/:id/invite", classHandler.InviteByEmail)
	protected.Post("/classes/:id/topics", classHandler.CreateTopic)
	protected.Get("/classes/:id/topics", classHandler.ListTopics)
	protected.Delete("/topics/:topicID", classHandler.DeleteTopic)

	// Classwork and announcement routes
	protected.Post("/classes/:id/classwork", contentHandler.CreateClasswork)
	protected.Get("/classes/:id/classwork", contentHandler.ListClasswork)
	protected.Get("/classwork/:workID", contentHandler.GetClasswork)
	protected.Put("/classwork/:workID", contentHandler.UpdateClasswork)
	protected.Delete("/classwork/:workID", contentHandler.DeleteClasswork)
	protected.Post("/classwork/:workID/attachment", attachmentHandler.UploadClassworkAttachment)
	protected.Post("/classes/:id/announcements", contentHandler.CreateAnnouncement)
	protected.Get("/classes/:id/announcements", contentHandler.ListAnnouncements)
	protected.Delete("/announcements/:announcementID", contentHandler.DeleteAnnouncement)

	// Submission routes
	protected.Put("/classwork/:workID/submission", submissionHandler.SaveDraft)
	protected.Get("/classwork/:workID/submission", submissionHandler.GetOwn)
	protected.Post("/classwork/:workID/submission/turn-in", submissionHandler.TurnIn)
	protected.Post("/classwork/:workID/submission/unsubmit", submissionHandler.Unsubmit)
	protected.Post("/classwork/:workID/submission/attachment", attachmentHandler.UploadSubmissionAttachment)
	protected.Get("/classwork/:workID/submissions", submissionHandler.ListForClasswork)
	protected.Post("/submissions/:submissionID/return", submissionHandler.Return)
	protected.Get("/submissions", submissionHandler.ListForStudent)

	// Unread counters
	protected.Get("/unread", unreadHandler.GetCounts)
	protected.Post("/unread/read", unreadHandler.MarkItemRead)
	protected.Post("/classes/:id/read", unreadHandler.MarkClassRead)

	// Chat routes
	protected.Post("/conversations/direct", chatHandler.OpenDirect)
	protected.Post("/conversations/group", chatHandler.CreateGroup)
	protected.Get("/conversations", chatHandler.Inbox)
	protected.Get("/conversations/:id", chatHandler.GetConversation)
	protected.Get("/conversations/:id/messages", chatHandler.GetMessages)
	protected.Post("/conversations/:id/messages", chatHandler.SendMessage)
	protected.Post("/conversations/:id/read", chatHandler.MarkRead)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			// Upgrade to WebSocket
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "ClassBoard is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
