package worker

import "fmt"

func cityPrompt(query string) string {
	return fmt.Sprintf("Extract the city name from this query: %s. Reply with only the city name.", query)
}

func contextCheckPrompt(contextText, query string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nDoes the context answer the question? Reply only Yes or No.", contextText, query)
}

func answerPrompt(contextText, query string) string {
	return fmt.Sprintf("Answer this question using the provided context:\n\nContext: %s\n\nQuestion: %s", contextText, query)
}

func outdoorDecisionPrompt(weatherText string) string {
	return fmt.Sprintf("Weather is: %s. Is this good weather for an outdoor meeting? Reply only Yes or No.", weatherText)
}
