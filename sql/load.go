package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed articles.sql
var articlesSQL string

// ArticlesFunctions lists the article functions that must exist after loading.
var ArticlesFunctions = []string{
	"init_articles",
	"upsert_article",
	"select_article",
	"select_articles_by_index",
	"select_articles_by_hybrid",
	"count_articles",
	"delete_article",
	"delete_articles_by_index",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadArticlesSql loads article-related SQL functions.
// Without force the functions are only created if one of them is missing.
func LoadArticlesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ArticlesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing articles functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(articlesSQL)
	if err != nil {
		return fmt.Errorf("error executing articles SQL: %w", err)
	}

	exist, err := checkFunctions(db, ArticlesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL articles functions loaded successfully")
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
