package agent

import (
	"fmt"
	"strings"

	"github.com/siherrmann/finrag/model"
)

const generationErrorPrefix = "Error generating answer: "

// FormatContext renders the grounding context, one block per article in rank order.
// Each block carries at most contentChars runes of the article content.
func FormatContext(articles []*model.Article, contentChars int) string {
	parts := make([]string, 0, len(articles))
	for i, article := range articles {
		var sb strings.Builder
		fmt.Fprintf(&sb, "\nArticle %d (Score: %.2f):\n", i+1, article.Score)
		fmt.Fprintf(&sb, "Source: %s\n", article.Source)
		fmt.Fprintf(&sb, "Title: %s\n", article.Title)
		fmt.Fprintf(&sb, "Published: %s\n", article.PublishedAt)
		fmt.Fprintf(&sb, "Content: %s %s...\n", article.Description, truncateRunes(article.Content, contentChars))
		fmt.Fprintf(&sb, "URL: %s\n", article.URL)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n")
}

// BuildPrompt wraps question and grounding context into the analyst prompt.
func BuildPrompt(question string, context string) string {
	return fmt.Sprintf(`You are a financial analyst assistant. Answer the user's question based ONLY on the provided article excerpts.

Question: %s

Relevant Articles:
%s

Instructions:
- Provide a clear, concise answer based on the articles above
- Cite specific articles when making claims (e.g., "According to [Source Name]...")
- If the articles don't fully answer the question, acknowledge what information is available
- Be factual and avoid speculation

Answer:`, question, context)
}

// GenerationFailure is the answer text reported when generation fails.
func GenerationFailure(err error) string {
	return generationErrorPrefix + err.Error()
}

func truncateRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
