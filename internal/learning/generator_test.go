package learning

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingopal-app/lingopal/internal/history"
)

func generatorRecords(n int) []history.Record {
	records := make([]history.Record, n)
	for i := range records {
		records[i] = history.Record{
			SourceText:     fmt.Sprintf("sentence %d", i),
			TranslatedText: fmt.Sprintf("oracion %d", i),
		}
	}
	return records
}

func TestBuildQuizAnswersMatchTranslations(t *testing.T) {
	gen := NewLocalGenerator()
	records := generatorRecords(12)
	sections := gen.BuildSheet(records)
	questions := gen.BuildQuiz(records, sections)
	require.NotEmpty(t, questions)

	for i, q := range questions {
		require.GreaterOrEqual(t, q.AnswerIndex, 0, "question %d", i)
		require.Less(t, q.AnswerIndex, len(q.Choices), "question %d", i)
		assert.Equal(t, fmt.Sprintf("oracion %d", i), q.Choices[q.AnswerIndex],
			"question %d must keep its phrase's translation in the answer slot", i)
	}
}

func TestBuildQuizRotatesAnswersPerQuiz(t *testing.T) {
	gen := NewLocalGenerator()
	records := generatorRecords(12)
	sections := gen.BuildSheet(records)

	var phrases []Phrase
	for _, s := range sections {
		phrases = append(phrases, s.Phrases...)
	}
	offset := quizOffset(phrases)

	questions := gen.BuildQuiz(records, sections)
	require.NotEmpty(t, questions)
	for i, q := range questions {
		assert.Equal(t, (i+offset)%len(q.Choices), q.AnswerIndex,
			"question %d answer slot must mix in the quiz-level rotation", i)
	}

	// A different phrase set seeds a different rotation.
	other := generatorRecords(12)
	for i := range other {
		other[i].SourceText = fmt.Sprintf("frase %d", i)
	}
	otherSections := gen.BuildSheet(other)
	var otherPhrases []Phrase
	for _, s := range otherSections {
		otherPhrases = append(otherPhrases, s.Phrases...)
	}
	assert.NotEqual(t, offset, quizOffset(otherPhrases))
}
