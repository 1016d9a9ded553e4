package domain

import "time"

// Role distinguishes quiz takers from quiz authors.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an authenticated account.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         Role      `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// IsAdmin reports whether the user may author quizzes.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Question models an MCQ question whose correct answer is one of its option strings.
type Question struct {
	ID                     string   `json:"id" bson:"id"`
	QuestionText           string   `json:"questionText" bson:"questionText" validate:"required"`
	Options                []string `json:"options" bson:"options" validate:"min=2,dive,required"`
	CorrectAnswer          string   `json:"correctAnswer" bson:"correctAnswer" validate:"required"`
	Explanation            string   `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Points                 int      `json:"points" bson:"points" validate:"min=0"` // defaults to 1 if zero
	OriginalQuestionSource string   `json:"originalQuestionSource,omitempty" bson:"originalQuestionSource,omitempty"`
}

// IsCorrect compares an answer to the correct option by value.
func (q Question) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// PointsValue returns the question weight, defaulting to 1.
func (q Question) PointsValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Quiz is a titled collection of questions.
type Quiz struct {
	ID              string     `json:"id" bson:"_id"`
	Title           string     `json:"title" bson:"title" validate:"required"`
	Description     string     `json:"description,omitempty" bson:"description,omitempty"`
	Category        string     `json:"category" bson:"category" validate:"required"`
	Questions       []Question `json:"questions" bson:"questions" validate:"min=1,dive"`
	CreatedBy       string     `json:"createdBy" bson:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	AuthorizedUsers []string   `json:"authorizedUsers" bson:"authorizedUsers"`
}

// VisibleTo reports whether a user may take the quiz.
// Admins see every quiz; everybody else must be listed in AuthorizedUsers.
func (q Quiz) VisibleTo(u User) bool {
	if u.IsAdmin() {
		return true
	}
	for _, name := range q.AuthorizedUsers {
		if name == u.Username {
			return true
		}
	}
	return false
}

// Summary returns the list view of the quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		QuestionCount: len(q.Questions),
		CreatedBy:     q.CreatedBy,
		CreatedAt:     q.CreatedAt,
	}
}

// QuestionByID finds a question by its ID.
func (q Quiz) QuestionByID(id string) (int, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// QuizSummary is the list-friendly projection of a quiz.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	QuestionCount int       `json:"questionCount"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AnswerReport is one graded answer inside a score record.
type AnswerReport struct {
	QuestionID     string `json:"questionId" bson:"questionId"`
	SelectedAnswer string `json:"selectedAnswer" bson:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect" bson:"isCorrect"`
}

// ScoreRecord is the persisted result of a finished attempt. Immutable once stored.
type ScoreRecord struct {
	ID        string         `json:"id" bson:"_id"`
	UserID    string         `json:"userId" bson:"userId"`
	QuizID    string         `json:"quizId" bson:"quizId"`
	QuizTitle string         `json:"quizTitle" bson:"quizTitle"`
	Category  string         `json:"category" bson:"category"`
	Score     int            `json:"score" bson:"score"`
	Total     int            `json:"total" bson:"total"`
	Answers   []AnswerReport `json:"answers" bson:"answers"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}
