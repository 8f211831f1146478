package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/finrag"
	"github.com/siherrmann/finrag/core/llm"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

var sampleArticles = []*model.Article{
	{
		Title:       "Tesla deliveries beat estimates",
		Description: "Tesla delivered more vehicles than analysts expected in the first quarter.",
		Content:     "Tesla reported record deliveries, driven by strong demand for the Model Y in Europe and China.",
		URL:         "https://example.com/tesla-deliveries",
		Source:      "Example Wire",
		Company:     "Tesla",
		PublishedAt: "2024-04-02T08:00:00Z",
	},
	{
		Title:       "Tesla announces Cybertruck recall",
		Description: "Regulators and Tesla announced a recall affecting early Cybertruck units.",
		Content:     "The recall concerns the accelerator pedal pad and affects several thousand vehicles.",
		URL:         "https://example.com/tesla-recall",
		Source:      "Example Wire",
		Company:     "Tesla",
		PublishedAt: "2024-04-19T12:00:00Z",
	},
}

func main() {
	// Start a test PostgreSQL container
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

	config := model.DefaultConfig()
	config.Retrieval.MinScore = 0.1
	generator := llm.NewOllama(config.LLM.Host, config.LLM.Model)

	f, err := finrag.NewFinrag(dbConfig, config, finrag.WithGenerator(generator))
	if err != nil {
		log.Fatalf("Failed to create finrag: %v", err)
	}
	defer f.Close()

	// Embeddings and NER run locally with hugot
	if err := f.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	fmt.Println("Indexing articles...")
	report, err := f.ProcessAndInsertArticles(context.Background(), sampleArticles)
	if err != nil {
		log.Fatalf("Failed to index articles: %v", err)
	}
	fmt.Printf("Indexed %d articles, %d failed\n", report.Indexed, report.Failed)

	question := "What happened with Tesla deliveries?"
	if len(os.Args) > 1 {
		question = os.Args[1]
	}

	result := f.Ask(context.Background(), question, model.AskOverrides{})
	fmt.Printf("\nQ: %s\nA: %s\n", result.Question, result.Answer)
	fmt.Printf("Outcome: %s\n", result.Outcome)
	for i, article := range result.Articles {
		fmt.Printf("  %d. %s (%s) score %.4f\n", i+1, article.Title, article.Source, article.Score)
	}
}
