// Package progression implements the score-gated progression policy:
// given the step taken and the percentage score, it decides the level
// achieved, whether the user may advance to the next step, and whether
// the user is permanently barred from retaking.
package progression

import (
	"math"

	"assessment-service/internal/models"
)

// Outcome is the result of evaluating one completed step.
type Outcome struct {
	LevelAchieved        *models.Level
	CanProceedToNextStep bool
	BlocksRetake         bool
}

// Score converts an answer tally into an integer percentage, rounded to
// the nearest whole number.
func Score(correctAnswers, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(correctAnswers) / float64(totalQuestions) * 100))
}

// Evaluate applies the threshold table. Bands are the same for every
// step (<25, <50, <75, >=75); only the outcomes differ. Step 1 is the
// only step that can block retakes; steps 2 and 3 degrade to the prior
// step's top level instead of failing. Step 3 is terminal, so it never
// grants advancement.
func Evaluate(step, score int) Outcome {
	switch step {
	case 1:
		switch {
		case score < 25:
			return Outcome{BlocksRetake: true}
		case score < 50:
			return levelOutcome(models.LevelA1, false)
		case score < 75:
			return levelOutcome(models.LevelA2, false)
		default:
			return levelOutcome(models.LevelA2, true)
		}
	case 2:
		switch {
		case score < 25:
			return levelOutcome(models.LevelA2, false)
		case score < 50:
			return levelOutcome(models.LevelB1, false)
		case score < 75:
			return levelOutcome(models.LevelB2, false)
		default:
			return levelOutcome(models.LevelB2, true)
		}
	case 3:
		switch {
		case score < 25:
			return levelOutcome(models.LevelB2, false)
		case score < 50:
			return levelOutcome(models.LevelC1, false)
		default:
			return levelOutcome(models.LevelC2, false)
		}
	}
	return Outcome{}
}

func levelOutcome(level models.Level, canProceed bool) Outcome {
	return Outcome{
		LevelAchieved:        &level,
		CanProceedToNextStep: canProceed,
	}
}
