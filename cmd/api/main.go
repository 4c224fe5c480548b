package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"microblog/internal/blobstore"
	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/events"
	"microblog/internal/imaging"
	"microblog/internal/middleware"
	"microblog/internal/modules/auth"
	"microblog/internal/modules/feed"
	"microblog/internal/modules/post"
	"microblog/internal/modules/stream"
	jwtsvc "microblog/internal/pkg/jwt"
	"microblog/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}
	if err := auth.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	store, err := buildBlobStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	bus := events.NewBus(cfg.EventsSync)
	defer bus.Close()

	authService := auth.NewService(userRepo, j, cfg.RefreshTokenPepper, cfg.RefreshTTL)
	authHandler := auth.NewHandler(authService)

	postService := post.NewService(postRepo, store, bus)
	postHandler := post.NewHandler(postService)

	derivation := post.NewDerivationHandler(postRepo, store, imaging.NewWebpResizer())
	bus.SubscribePostCreated(derivation.HandlePostCreated)

	feedService := feed.NewService(postRepo, userRepo)
	feedHandler := feed.NewHandler(feedService)

	hub := stream.NewHub()
	defer hub.Close()
	streamHandler := stream.NewHandler(hub, j)
	streamHandler.SubscribeBus(bus)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)
		v1.GET("/stream", streamHandler.HandleWebSocket)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			postHandler.RegisterRoutes(protected)
			feedHandler.RegisterRoutes(protected)
		}
	}

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

func buildBlobStore(cfg *config.Config) (blobstore.Store, error) {
	if cfg.S3Endpoint == "" {
		log.Println("S3_ENDPOINT is empty, using in-memory blob store")
		return blobstore.NewMemoryStore(cfg.S3PublicURL), nil
	}

	s3, err := blobstore.NewS3Store(blobstore.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(context.Background()); err != nil {
		return nil, err
	}
	return s3, nil
}
