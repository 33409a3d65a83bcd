// Command inkwell-reindex rebuilds the search index from the document
// store. Run it after changing the index schema or to repair index
// entries lost to failed dual writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/codessa-project/inkwell/internal/config"
	"github.com/codessa-project/inkwell/internal/gcp"
	"github.com/codessa-project/inkwell/internal/logging"
	"github.com/codessa-project/inkwell/internal/models"
	"github.com/codessa-project/inkwell/internal/search"
)

func main() {
	var (
		tenant      = flag.String("tenant", "", "limit reindexing to one tenant uid (default: all tenants)")
		concurrency = flag.Int("concurrency", 8, "parallel index writes")
		configPath  = flag.String("config", gcp.GetEnv("INKWELL_CONFIG", ""), "path to config file")
	)
	flag.Parse()

	if err := run(context.Background(), *tenant, *concurrency, *configPath); err != nil {
		log.Fatalf("reindex failed: %v", err)
	}
}

func run(ctx context.Context, tenant string, concurrency int, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.Initialize(cfg.Logging)
	if err != nil {
		return err
	}

	appID, apiKey, err := resolveAlgoliaCredentials(ctx, cfg)
	if err != nil {
		return err
	}
	index, err := search.NewScrollIndex(appID, apiKey, cfg.SearchIndexName)
	if err != nil {
		return err
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer fsClient.Close()
	store := gcp.NewScrollStore(fsClient, cfg.ScrollCollection)

	var indexed atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	walkErr := store.Walk(egCtx, tenant, func(scroll *models.Scroll) error {
		rec := models.NewSearchRecord(scroll)
		eg.Go(func() error {
			if err := index.Save(egCtx, rec); err != nil {
				return err
			}
			indexed.Add(1)
			return nil
		})
		return egCtx.Err()
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	if walkErr != nil {
		return walkErr
	}

	logger.Info("reindex complete", "indexed", indexed.Load(), "tenant", tenant)
	return nil
}

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
