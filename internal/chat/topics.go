package chat

var topicQuestions = map[string]string{
	"nutrition": "What are some tips for maintaining a balanced and healthy diet?",
	"exercise":  "How much physical activity should I get each week?",
	"sleep":     "How can I improve the quality of my sleep?",
	"stress":    "What are some effective ways to manage everyday stress?",
	"hydration": "How much water should I drink every day?",
	"checkup":   "Which routine health check-ups are recommended for adults?",
}

// TopicQuestion returns the canned question asked when the topic shortcut with the given id is selected.
func TopicQuestion(topicID string) (string, bool) {
	q, ok := topicQuestions[topicID]
	return q, ok
}
