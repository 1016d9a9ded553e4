package cli

import "quiz-session-service/internal/domain"

func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			Title:       "JavaScript Basics",
			Description: "Test your knowledge of JavaScript fundamentals",
			Category:    "JavaScript",
			Questions: []domain.Question{
				{
					QuestionText:  "What is the output of 2 + '2' in JavaScript?",
					Options:       []string{"4", "22", "NaN", "Error"},
					CorrectAnswer: "22",
					Explanation:   "The number is coerced to a string and concatenated.",
					Points:        1,
				},
				{
					QuestionText:  "Which keyword declares a variable in JavaScript?",
					Options:       []string{"var", "let", "const", "All of the above"},
					CorrectAnswer: "All of the above",
					Points:        1,
				},
			},
		},
		{
			Title:       "Node.js Fundamentals",
			Description: "Basic concepts of Node.js",
			Category:    "Node.js",
			Questions: []domain.Question{
				{
					QuestionText:  "What is the default port for Express.js?",
					Options:       []string{"3000", "8080", "5000", "No default"},
					CorrectAnswer: "No default",
					Explanation:   "Express listens on whatever port the application passes to listen().",
					Points:        1,
				},
			},
		},
	}
}
