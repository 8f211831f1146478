package model

// Outcome tags how an Ask call ended.
type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeGenerationFailed Outcome = "generation_failed"
	OutcomeNoArticles       Outcome = "no_articles"
)

// AskResult is the result of answering one question.
// ArticlesFound is true iff Articles is non-empty.
type AskResult struct {
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	ArticlesFound bool       `json:"articles_found"`
	NumArticles   int        `json:"num_articles"`
	Articles      []*Article `json:"articles"`
	Outcome       Outcome    `json:"outcome"`
	Error         string     `json:"error,omitempty"`
}

// IndexReport summarizes a bulk write into the article store.
type IndexReport struct {
	Indexed int      `json:"indexed"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Add merges another report into r.
func (r *IndexReport) Add(other IndexReport) {
	r.Indexed += other.Indexed
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}
