package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lecternai/lectern"
	"github.com/lecternai/lectern/core/llm"
	"github.com/lecternai/lectern/helper"
	"github.com/lecternai/lectern/model"
)

// Summarizes a transcript file with retrieval-backed context and answers a
// question about it. Requires LECTERN_LLM_API_KEY (DeepSeek or OpenRouter).
//
// Usage: go run ./example/summarize <transcript-file> [video-id]
func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("usage: summarize <transcript-file> [video-id]")
	}
	transcriptPath := os.Args[1]
	videoID := uuid.NewString()
	if len(os.Args) > 2 {
		videoID = os.Args[2]
	}

	raw, err := os.ReadFile(transcriptPath)
	if err != nil {
		log.Fatalf("Failed to read transcript: %v", err)
	}

	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	l, err := lectern.NewLectern(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create lectern: %v", err)
	}
	defer l.Close()

	l.UseDefaultPipeline()

	completer, err := llm.NewClient(llm.Config{})
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}
	l.SetCompleter(completer)

	ctx := context.Background()

	summary, err := l.SummarizeWithContext(ctx, videoID, string(raw), model.SummaryBullet)
	if err != nil {
		log.Fatalf("Failed to summarize: %v", err)
	}
	fmt.Printf("Summary:\n%s\n\n", summary)

	answer, err := l.Answer(ctx, videoID, "What is the main takeaway?", 5)
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}
	fmt.Printf("Answer:\n%s\n\nSources:\n", answer.Text)
	for _, source := range answer.Sources {
		fmt.Printf("- chunk %d (similarity %.3f): %s\n", source.ChunkID, source.Similarity, source.Preview)
	}
}
