package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/codessa-project/inkwell/internal/auth"
	"github.com/codessa-project/inkwell/internal/config"
	"github.com/codessa-project/inkwell/internal/gcp"
	"github.com/codessa-project/inkwell/internal/logging"
	"github.com/codessa-project/inkwell/internal/search"
	"github.com/codessa-project/inkwell/internal/server"
	"github.com/codessa-project/inkwell/internal/services"
)

var (
	apiInstance http.Handler
	once        sync.Once
	initErr     error
)

func init() {
	// Register the HTTP function with the framework.
	// "Inkwell" is the entry point name configured in GCP.
	functions.HTTP("Inkwell", handleInkwell)
}

func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v", err)
	}
}

func handleInkwell(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		apiInstance, initErr = bootstrap(context.Background())
	})
	if initErr != nil {
		log.Printf("CRITICAL: API initialization failed: %v", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	apiInstance.ServeHTTP(w, r)
}

// bootstrap builds the full service graph from configuration.
func bootstrap(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load(gcp.GetEnv("INKWELL_CONFIG", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.Initialize(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	appID, apiKey, err := resolveAlgoliaCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	store := gcp.NewScrollStore(fsClient, cfg.ScrollCollection)

	index, err := search.NewScrollIndex(appID, apiKey, cfg.SearchIndexName)
	if err != nil {
		return nil, err
	}

	parser, err := gcp.NewReflectionParser(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewTokenVerifier(cfg.ProjectID, nil)
	if err != nil {
		return nil, err
	}

	engine := services.NewSyncEngine(store, index, logger)
	browser := services.NewPaginatedBrowser(store, index, cfg.PageSize, logger)

	logger.Info("inkwell api initialized",
		"project", cfg.ProjectID,
		"collection", cfg.ScrollCollection,
		"index", cfg.SearchIndexName,
	)
	return server.New(engine, browser, parser, verifier, logger), nil
}

// resolveAlgoliaCredentials prefers directly configured credentials and
// falls back to Secret Manager when only secret ids are set.
func resolveAlgoliaCredentials(ctx context.Context, cfg *config.Config) (string, string, error) {
	appID := cfg.Algolia.AppID
	apiKey := cfg.Algolia.APIKey
	if appID != "" && apiKey != "" {
		return appID, apiKey, nil
	}

	client, err := gcp.NewSecretManagerClient(ctx)
	if err != nil {
		return "", "", err
	}
	defer client.Close()

	if appID == "" {
		if cfg.Algolia.AppIDSecret == "" {
			return "", "", fmt.Errorf("algolia app id is not configured")
		}
		appID, err = gcp.GetSecret(ctx, client, cfg.ProjectID, cfg.Algolia.AppIDSecret)
		if err != nil {
			return "", "", err
		}
	}
	if apiKey == "" {
		if cfg.Algolia.APIKeySecret == "" {
			return "", "", fmt.Errorf("algolia api key is not configured")
		}
		apiKey, err = gcp.GetSecret(ctx, client, cfg.ProjectID, cfg.Algolia.APIKeySecret)
		if err != nil {
			return "", "", err
		}
	}
	return appID, apiKey, nil
}
