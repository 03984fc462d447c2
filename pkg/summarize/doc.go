// Package summarize produces the article_summary and probing_question
// merge tags for the first email of a sequence.
//
// It calls an OpenAI-compatible chat endpoint with the article URL and
// expects a JSON object back:
//
//	s, err := summarize.New(summarize.Config{APIKey: key})
//	sum, err := s.Summarize(ctx, "https://example.com/story")
//	// sum.Sentence, sum.Question
package summarize
