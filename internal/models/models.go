package models

import (
	"database/sql"
	"time"
)

// Level is a competency grade, ascending A1 through C2.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var levelRank = map[Level]int{
	LevelA1: 1,
	LevelA2: 2,
	LevelB1: 3,
	LevelB2: 4,
	LevelC1: 5,
	LevelC2: 6,
}

// Rank returns the position of the level in the ascending order, 0 for
// an unknown level.
func (l Level) Rank() int {
	return levelRank[l]
}

func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Higher reports whether l is strictly above other.
func (l Level) Higher(other Level) bool {
	return l.Rank() > other.Rank()
}

const (
	MinStep = 1
	MaxStep = 3
)

// LevelsForStep returns the two levels covered by an assessment step.
func LevelsForStep(step int) ([]Level, bool) {
	switch step {
	case 1:
		return []Level{LevelA1, LevelA2}, true
	case 2:
		return []Level{LevelB1, LevelB2}, true
	case 3:
		return []Level{LevelC1, LevelC2}, true
	}
	return nil, false
}

type SessionStatus string

const (
	SessionInProgress     SessionStatus = "in_progress"
	SessionCompleted      SessionStatus = "completed"
	SessionFailedNoRetake SessionStatus = "failed_no_retake"
	SessionAbandoned      SessionStatus = "abandoned"
)

type AssessmentStatus string

const (
	AssessmentEligible AssessmentStatus = "eligible"
	AssessmentBlocked  AssessmentStatus = "blocked"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// SecondsPerQuestion sets the advisory session time limit: N questions
// give N minutes.
const SecondsPerQuestion = 60

type User struct {
	ID                    string
	Email                 string
	FirstName             string
	LastName              string
	Role                  string
	EmailVerified         bool
	AssessmentStatus      AssessmentStatus
	HighestLevelAchieved  sql.NullString
	CreatedAt             time.Time
}

type Competency struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

type Question struct {
	ID                 string
	CompetencyID       string
	Level              Level
	Text               string
	Options            []string
	CorrectOptionIndex int
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type TestSession struct {
	ID                   string
	UserID               string
	Step                 int
	TotalQuestions       int
	CurrentQuestionIndex int
	QuestionsAnswered    int
	Status               SessionStatus
	Score                sql.NullInt32
	LevelAchieved        sql.NullString
	CanProceedToNextStep bool
	BlocksRetake         bool
	TimeLimitSeconds     int
	TotalTimeSeconds     sql.NullInt32
	StartedAt            time.Time
	CompletedAt          sql.NullTime
}

type QuestionResponse struct {
	SessionID           string
	QuestionID          string
	Position            int
	SelectedOptionIndex sql.NullInt32
	IsCorrect           sql.NullBool
	IsSkipped           bool
	QuestionStartTime   sql.NullTime
	AnsweredAt          sql.NullTime
	TimeSpentSeconds    sql.NullInt32
}

// Resolved reports whether the response has been answered or skipped.
func (r *QuestionResponse) Resolved() bool {
	return r.IsSkipped || r.SelectedOptionIndex.Valid
}

type Certificate struct {
	ID            string
	UserID        string
	SessionID     string
	LevelAchieved Level
	IssuedDate    time.Time
}
