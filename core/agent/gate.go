package agent

import "github.com/siherrmann/finrag/model"

// Decision is the outcome of the relevance gate.
type Decision int

const (
	Proceed Decision = iota
	Fallback
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Decide proceeds to answer generation iff at least one article passed retrieval.
func Decide(articles []*model.Article) Decision {
	if len(articles) > 0 {
		return Proceed
	}
	return Fallback
}
