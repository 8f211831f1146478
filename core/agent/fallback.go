package agent

import "fmt"

// IngestHint is the command suggested when the index has nothing relevant.
const IngestHint = `finrag ingest --company "YourCompany"`

// FallbackAnswer is the deterministic reply used when retrieval found nothing.
func FallbackAnswer(question string) string {
	return fmt.Sprintf(`I couldn't find any relevant articles in the database to answer your question: "%s"

This could mean:
- No articles matching your query have been indexed yet
- The question topic is outside the scope of the indexed financial articles
- Try rephrasing your question or asking about a different company/topic

You can run the ingestion pipeline to fetch and index more articles:
`+"```"+`
%s
`+"```", question, IngestHint)
}
