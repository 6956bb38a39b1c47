package engine

import (
	"fmt"
	"sort"
)

// Results builds the terminal results view. It is only available once the
// game is FINISHED and, absent mutation, returns identical output on every
// call: the ranking uses a stable sort over join order so ties keep a
// deterministic ordering.
func (g *Game) Results() (*Results, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseFinished {
		return nil, ErrWrongPhase
	}

	finalScores := make([]FinalScore, len(g.players))
	for i, p := range g.players {
		finalScores[i] = FinalScore{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			DrinkCount: p.DrinkCount,
			GuessScore: p.GuessScore,
			TotalScore: p.GuessScore - p.DrinkCount, // higher is better
		}
	}
	sort.SliceStable(finalScores, func(i, j int) bool {
		return finalScores[i].TotalScore > finalScores[j].TotalScore
	})

	statementResults := make([]StatementResult, 0, len(g.statements))
	for _, statement := range g.statements {
		author := g.playerByID(statement.AuthorID)
		if author == nil {
			// The data model guarantees authors exist; a miss means the
			// aggregate is corrupt. Fail this operation loudly.
			return nil, fmt.Errorf("author %s not found for statement %s: game state corrupt",
				statement.AuthorID, statement.ID)
		}

		guesses := make(map[string]string, len(statement.Votes))
		correctGuessers := []string{}
		for _, voter := range g.players {
			guessedID, ok := statement.Votes[voter.ID]
			if !ok {
				continue
			}
			guessed := g.playerByID(guessedID)
			if guessed == nil {
				continue
			}
			guesses[voter.Name] = guessed.Name
			if guessedID == statement.AuthorID {
				correctGuessers = append(correctGuessers, voter.Name)
			}
		}

		drinkers := make([]string, 0, len(statement.Drinkers))
		for _, id := range statement.Drinkers {
			if drinker := g.playerByID(id); drinker != nil {
				drinkers = append(drinkers, drinker.Name)
			}
		}

		statementResults = append(statementResults, StatementResult{
			Statement:       statement.Text,
			ActualAuthor:    author.Name,
			Guesses:         guesses,
			CorrectGuessers: correctGuessers,
			Drinkers:        drinkers,
		})
	}

	return &Results{FinalScores: finalScores, StatementResults: statementResults}, nil
}
