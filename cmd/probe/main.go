package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/threadscout/engagement-bot/internal/config"
	"github.com/threadscout/engagement-bot/internal/discussion"
	"github.com/threadscout/engagement-bot/internal/keywords"
	"github.com/threadscout/engagement-bot/internal/models"
	"github.com/threadscout/engagement-bot/internal/sources"
)

const sampleCount = 3

var providerNames = []string{"reddit", "hackernews", "stackoverflow"}

func main() {
	fmt.Println("🔍 ThreadScout - Discussion Search Probe")
	fmt.Println("========================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	content := strings.Join(os.Args[1:], " ")
	if content == "" {
		content = "Check out my new video at https://x.com/abc! #excited"
	}

	extractor := keywords.NewExtractor(keywords.NewProseTagger(), cfg.PhraseMappings)

	fmt.Printf("\n📝 Content: %q\n", content)
	fmt.Printf("🔑 Query:   %q\n", extractor.Extract(content))
	fmt.Println(strings.Repeat("-", 40))

	for _, name := range providerNames {
		provider, err := sources.NewProvider(name, cfg.RedditClientID, cfg.RedditClientSecret, cfg.UserAgent)
		if err != nil {
			log.Fatalf("Failed to build provider %s: %v", name, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.SearchTimeout)
		probe(ctx, discussion.NewPipeline(extractor, provider, cfg.Location), content)
		cancel()
	}

	fmt.Println("\n✅ Probe completed!")
}

func probe(ctx context.Context, pipeline *discussion.Pipeline, content string) {
	fmt.Printf("🔸 Searching %s... ", pipeline.ProviderName())

	start := time.Now()
	records, err := pipeline.SearchContent(ctx, content, "")
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		fmt.Printf("⚠️  SKIPPED (no usable search terms)\n")
		return
	case err != nil:
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d discussions in %s)\n", len(records), time.Since(start).Round(time.Millisecond))

	for i, record := range records {
		if i == sampleCount {
			break
		}
		fmt.Printf("   📌 [%s] %s (%s)\n      %s\n", record.Subreddit, record.Title, record.CreatedAtDisplay, record.Link)
	}
}
