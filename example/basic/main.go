package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lecternai/lectern"
	"github.com/lecternai/lectern/helper"
)

const sampleTranscript = `Welcome to this lecture on vector databases.

A vector database stores high-dimensional embeddings and answers nearest
neighbor queries over them. Instead of matching exact keywords, it matches
meaning: two texts about the same topic land close together in embedding
space even when they share no words.

PostgreSQL with the pgvector extension is a practical way to run one.
You keep your relational data, add a vector column, and query both with
plain SQL. An HNSW index makes the similarity search fast enough for
interactive retrieval.

Retrieval augmented generation builds on this: chunk a document, embed the
chunks, and at question time retrieve the nearest chunks to ground the
language model's answer in the source material.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
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

	// Set up the default pipeline (token windowing + local embeddings)
	l.UseDefaultPipeline()

	ctx := context.Background()

	// Ingest the transcript under a video id
	chunks := l.Ingest(ctx, "lecture-001", sampleTranscript)
	fmt.Printf("Indexed %d chunk(s) for lecture-001\n", chunks)

	// Retrieve the most relevant chunks for a question
	embeddings, err := l.Pipeline.Embedder.Embed(ctx, []string{"how does similarity search work?"})
	if err != nil {
		log.Fatalf("Failed to embed question: %v", err)
	}

	results, err := l.Engine.Retrieve(ctx, "lecture-001", embeddings[0], 3)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Println("\nMost relevant chunks:")
	for i, result := range results {
		preview := result.Record.Content
		if len(preview) > 120 {
			preview = preview[:120] + "..."
		}
		fmt.Printf("%d. similarity=%.3f %s\n", i+1, result.Similarity, strings.ReplaceAll(preview, "\n", " "))
	}
}
