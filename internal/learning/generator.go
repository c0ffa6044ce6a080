package learning

import (
	"hash/fnv"
	"strings"

	"github.com/lingopal-app/lingopal/internal/history"
)

// Generator builds learning content from a user's translation history. The
// production app fronts an LLM for this; the interface keeps that swap
// behind one seam and lets tests use the local composer.
type Generator interface {
	BuildSheet(records []history.Record) []SheetSection
	BuildWordBank(records []history.Record) []WordEntry
	BuildQuiz(records []history.Record, sections []SheetSection) []Question
}

// localGenerator composes content directly from history records: recent
// phrases grouped into sections, deduplicated vocabulary, and multiple-choice
// questions whose distractors are drawn from the user's other translations.
type localGenerator struct {
	phrasesPerSection int
	maxQuestions      int
	choicesPerQ       int
}

func NewLocalGenerator() Generator {
	return &localGenerator{
		phrasesPerSection: 5,
		maxQuestions:      10,
		choicesPerQ:       4,
	}
}

func (g *localGenerator) BuildSheet(records []history.Record) []SheetSection {
	var sections []SheetSection
	var current SheetSection
	for _, rec := range records {
		current.Phrases = append(current.Phrases, Phrase{
			Source:      rec.SourceText,
			Translation: rec.TranslatedText,
		})
		if len(current.Phrases) == g.phrasesPerSection {
			sections = append(sections, current)
			current = SheetSection{}
		}
	}
	if len(current.Phrases) > 0 {
		sections = append(sections, current)
	}
	for i := range sections {
		sections[i].Title = "Recent phrases"
	}
	return sections
}

func (g *localGenerator) BuildWordBank(records []history.Record) []WordEntry {
	seen := make(map[string]bool)
	var entries []WordEntry
	for _, rec := range records {
		word := firstWord(rec.SourceText)
		if word == "" || seen[strings.ToLower(word)] {
			continue
		}
		seen[strings.ToLower(word)] = true
		entries = append(entries, WordEntry{
			Word:        word,
			Translation: firstWord(rec.TranslatedText),
		})
	}
	return entries
}

func (g *localGenerator) BuildQuiz(records []history.Record, sections []SheetSection) []Question {
	var phrases []Phrase
	for _, s := range sections {
		phrases = append(phrases, s.Phrases...)
	}

	offset := quizOffset(phrases)
	var questions []Question
	for i, p := range phrases {
		if len(questions) == g.maxQuestions {
			break
		}
		choices := []string{p.Translation}
		// Distractors come from the surrounding phrases, wrapping around.
		for j := 1; len(choices) < g.choicesPerQ && j < len(phrases); j++ {
			alt := phrases[(i+j)%len(phrases)].Translation
			if alt != p.Translation {
				choices = append(choices, alt)
			}
		}
		if len(choices) < 2 {
			continue
		}
		// Rotate so the answer position varies per question. The per-quiz
		// offset keeps the slot from being predictable from position alone.
		answerIdx := (i + offset) % len(choices)
		choices[0], choices[answerIdx] = choices[answerIdx], choices[0]
		questions = append(questions, Question{
			Prompt:      "Translate: " + p.Source,
			Choices:     choices,
			AnswerIndex: answerIdx,
		})
	}
	return questions
}

// quizOffset derives a rotation seed from the quiz's own phrases.
func quizOffset(phrases []Phrase) int {
	h := fnv.New32a()
	for _, p := range phrases {
		h.Write([]byte(p.Source))
		h.Write([]byte{0})
	}
	return int(h.Sum32() & 0x7fffffff)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!?;:\"'")
}
