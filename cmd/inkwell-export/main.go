// Command inkwell-export writes one tenant's scrolls to a GCS bucket as
// newline-delimited JSON, for backup or offline analysis.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"

	"github.com/codessa-project/inkwell/internal/config"
	"github.com/codessa-project/inkwell/internal/gcp"
	"github.com/codessa-project/inkwell/internal/logging"
	"github.com/codessa-project/inkwell/internal/models"
)

func main() {
	var (
		tenant     = flag.String("tenant", "", "tenant uid to export (required)")
		bucket     = flag.String("bucket", "", "destination GCS bucket (required)")
		configPath = flag.String("config", gcp.GetEnv("INKWELL_CONFIG", ""), "path to config file")
	)
	flag.Parse()

	if *tenant == "" || *bucket == "" {
		log.Fatal("both -tenant and -bucket are required")
	}
	if err := run(context.Background(), *tenant, *bucket, *configPath); err != nil {
		log.Fatalf("export failed: %v", err)
	}
}

func run(ctx context.Context, tenant, bucket, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.Initialize(cfg.Logging)
	if err != nil {
		return err
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer fsClient.Close()
	store := gcp.NewScrollStore(fsClient, cfg.ScrollCollection)

	var buf bytes.Buffer
	count := 0
	err = store.Walk(ctx, tenant, func(scroll *models.Scroll) error {
		line, err := json.Marshal(scroll)
		if err != nil {
			return fmt.Errorf("failed to encode scroll %s: %w", scroll.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		count++
		return nil
	})
	if err != nil {
		return err
	}

	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer gcsClient.Close()

	objectName := fmt.Sprintf("exports/%s/%s.ndjson", tenant, time.Now().UTC().Format("20060102T150405Z"))
	if err := gcp.SaveToGCSAtomically(ctx, gcsClient.Bucket(bucket), objectName, buf.Bytes()); err != nil {
		return err
	}

	logger.Info("export complete", "tenant", tenant, "scrolls", count, "object", objectName)
	return nil
}
