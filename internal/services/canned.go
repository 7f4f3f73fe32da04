package services

import (
	"context"
	"fmt"
	"strings"
)

// Canned answers from a fixed set of wellness tips without calling a model. It emits the same
// [THINKING]/[RESPONSE]/[SOURCES] layout the wellness prompt asks models for, so the backend can run
// offline.
type Canned struct{}

type cannedAnswer struct {
	keywords []string
	thinking string
	response string
	sources  string
}

// questionMarker precedes the user's question in the wellness prompt.
const questionMarker = "User question:"

var cannedAnswers = []cannedAnswer{
	{
		keywords: []string{"nutrition", "diet", "eat", "food", "meal"},
		thinking: "The user is asking about healthy eating. I should share balanced-plate basics from public guidance.",
		response: "Aim for a balanced plate: half vegetables and fruit, a quarter whole grains and a quarter " +
			"lean protein. Limit added sugar, sodium and highly processed foods, and keep portions moderate.",
		sources: "USDA, CDC, Harvard Health",
	},
	{
		keywords: []string{"exercise", "workout", "activity", "fitness", "walk"},
		thinking: "The user wants to know about physical activity. I should give the weekly activity guideline.",
		response: "Adults should aim for at least 150 minutes of moderate aerobic activity each week, such as " +
			"brisk walking, plus muscle-strengthening activities on two or more days. Start slowly and build up.",
		sources: "CDC, WHO",
	},
	{
		keywords: []string{"sleep", "insomnia", "rest", "tired"},
		thinking: "The user is asking about sleep. I should cover sleep duration and simple sleep hygiene.",
		response: "Most adults need 7 or more hours of sleep per night. Keep a regular schedule, keep your " +
			"bedroom dark and cool, and avoid screens, caffeine and large meals close to bedtime.",
		sources: "CDC, NIH",
	},
	{
		keywords: []string{"stress", "anxiety", "relax", "calm"},
		thinking: "The user wants help with stress. I should suggest everyday coping techniques.",
		response: "Try short breathing exercises, regular physical activity and time outdoors. Keep in touch " +
			"with people you trust and take breaks from news and social media. If stress feels overwhelming, " +
			"please consult a healthcare professional.",
		sources: "WHO, Mayo Clinic",
	},
	{
		keywords: []string{"hydration", "water", "drink", "hydrated"},
		thinking: "The user is asking about hydration. I should give practical ways to drink enough water.",
		response: "Drink water regularly through the day and more when it is hot or you are active. Carry a " +
			"reusable bottle, choose water over sugary drinks, and eat water-rich foods like fruit and vegetables.",
		sources: "CDC, Mayo Clinic",
	},
	{
		keywords: []string{"checkup", "check-up", "screening", "doctor"},
		thinking: "The user is asking about routine checkups. I should explain why preventive visits matter " +
			"without giving personal medical advice.",
		response: "Routine checkups help catch problems early. Ask your healthcare provider which screenings " +
			"and vaccines are recommended for your age, and keep a record of your visits.",
		sources: "CDC, NIH",
	},
}

var cannedFallback = cannedAnswer{
	thinking: "The question is not about a specific wellness topic. I should give general guidance.",
	response: "I can share general tips on nutrition, exercise, sleep, stress management, hydration and " +
		"routine checkups. For anything beyond general wellness, please consult a healthcare professional.",
	sources: "WHO",
}

// Generate answers the question found in prompt.
func (Canned) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	question := prompt
	if i := strings.LastIndex(prompt, questionMarker); i >= 0 {
		question = prompt[i+len(questionMarker):]
	}
	question = strings.ToLower(question)

	answer := cannedFallback
	for _, a := range cannedAnswers {
		if containsAny(question, a.keywords) {
			answer = a
			break
		}
	}

	return fmt.Sprintf("[THINKING]\n%s\n[/THINKING]\n\n[RESPONSE]\n%s\n[/RESPONSE]\n\n[SOURCES]\n%s\n[/SOURCES]",
		answer.thinking, answer.response, answer.sources), nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
