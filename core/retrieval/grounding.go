package retrieval

import (
	"fmt"
	"strings"

	"github.com/lecternai/lectern/model"
)

const groundedSystemPrompt = "You are a helpful assistant answering questions about a video transcript. " +
	"Answer using only the numbered sources provided. " +
	"If the sources do not contain the information needed, say so explicitly instead of guessing."

// BuildGroundedPrompt builds the system and user prompts for a grounded
// answer: each retrieved chunk becomes a numbered source block, followed by
// the question.
func BuildGroundedPrompt(question string, results []*model.RetrievalResult) (string, string) {
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "[Source %v]\n%v\n\n", i+1, result.Record.Content)
	}
	fmt.Fprintf(&b, "Question: %v", question)

	return groundedSystemPrompt, b.String()
}

// BuildContextBlock concatenates retrieved chunks as labeled segments for the
// summarization prompt.
func BuildContextBlock(results []*model.RetrievalResult) string {
	var b strings.Builder
	for i, result := range results {
		fmt.Fprintf(&b, "[Segment %v]\n%v\n\n", i+1, result.Record.Content)
	}
	return strings.TrimSpace(b.String())
}
