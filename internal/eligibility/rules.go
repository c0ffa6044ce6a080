// Package eligibility holds the pure decision rules shared by the learning
// content endpoints and the coin award transaction. The same functions run as
// an advisory check for the client (show/hide regenerate buttons) and as the
// authoritative gate on the server; they must stay free of I/O and clock
// access so both sides agree on identical inputs.
package eligibility

const (
	// MinRecordsForWordBank is the translation-history growth required
	// before a word bank may be regenerated. Applies to the first
	// generation too: there is no free initial word bank.
	MinRecordsForWordBank = 20

	// MinRecordsForLearningSheet is the history growth required before a
	// learning sheet may be regenerated.
	MinRecordsForLearningSheet = 5

	// MinIncrementForCoins is the minimum history growth between two
	// coin-awarded quiz versions of the same language pair.
	MinIncrementForCoins = 10
)

// CanRegenerateWordBank reports whether a word bank may be (re)generated.
// savedHistoryCount is the history count stamped on the existing bank, or 0
// when none exists. A current count below the saved count signals record
// deletion or tampering and blocks regeneration outright.
func CanRegenerateWordBank(currentHistoryCount, savedHistoryCount int) bool {
	if currentHistoryCount < savedHistoryCount {
		return false
	}
	return currentHistoryCount-savedHistoryCount >= MinRecordsForWordBank
}

// CanRegenerateLearningSheet reports whether a learning sheet may be
// (re)generated. Same backward guard as word banks, lower growth threshold.
func CanRegenerateLearningSheet(currentHistoryCount, savedHistoryCount int) bool {
	if currentHistoryCount < savedHistoryCount {
		return false
	}
	return currentHistoryCount-savedHistoryCount >= MinRecordsForLearningSheet
}

// CanRegenerateQuiz reports whether a quiz may be (re)generated for a sheet
// stamped with sheetHistoryCount. quizHistoryCount is nil when no quiz exists
// yet, which always permits generation. Otherwise any difference between the
// sheet's and quiz's stamps unlocks regeneration: exactly one quiz version
// exists per sheet version, and regenerating the sheet is what unlocks a new
// quiz. Unlike the two rules above there is deliberately no backward guard
// here; do not normalize it.
func CanRegenerateQuiz(sheetHistoryCount int, quizHistoryCount *int) bool {
	if quizHistoryCount == nil {
		return true
	}
	return sheetHistoryCount != *quizHistoryCount
}

// IsEligibleForCoins reports whether a completed quiz attempt qualifies for a
// coin payout.
//
//   - generatedHistoryCount is the stamp the quiz was generated at.
//   - currentHistoryCount is the authoritative sheet stamp, nil when it
//     cannot be verified.
//   - lastAwardedCount is the watermark of the most recent awarded version
//     for the pair, nil when the pair has never been awarded (first award is
//     exempt from the minimum-increment rule).
func IsEligibleForCoins(attemptScore, generatedHistoryCount int, currentHistoryCount, lastAwardedCount *int) bool {
	if generatedHistoryCount <= 0 {
		return false
	}
	if attemptScore < 1 {
		return false
	}
	if currentHistoryCount == nil {
		return false
	}
	if *currentHistoryCount != generatedHistoryCount {
		return false
	}
	if lastAwardedCount != nil && generatedHistoryCount < *lastAwardedCount+MinIncrementForCoins {
		return false
	}
	return true
}
