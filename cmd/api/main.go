package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"lapakchat/internal/adapter/api"
	"lapakchat/internal/adapter/api/handler"
	apimiddleware "lapakchat/internal/adapter/api/middleware"
	"lapakchat/internal/adapter/api/router"
	"lapakchat/internal/adapter/repository"
	"lapakchat/internal/infrastructure/metrics"
	"lapakchat/internal/usecase"
	"lapakchat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from the environment in production, file path for
	// local development, application default credentials otherwise.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	participantResolver := repository.NewFirestoreParticipantResolver(firestoreClient)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	messagingUseCase := usecase.NewMessagingUseCase(
		conversationRepo,
		messageRepo,
		participantResolver,
		collector,
		cfg.PreviewMaxLen,
	)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	messagingHandler := handler.NewMessagingHandler(messagingUseCase)
	healthHandler := handler.NewHealthHandler()

	router.SetupHealthRouter(e, healthHandler)
	router.SetupMessagingRouter(e, messagingHandler, authMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
