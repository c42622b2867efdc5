package models

// TriviaGameSettings holds the knobs a content generator uses to build a round.
type TriviaGameSettings struct {
	Categories      int      `json:"categories" yaml:"categories"`
	CluesPerCat     int      `json:"clues_per_category" yaml:"clues_per_category"`
	BaseValue       int      `json:"base_value" yaml:"base_value"`
	WagerClues      int      `json:"wager_clues" yaml:"wager_clues"`
	Difficulty      string   `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Topics          []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	ResponseSeconds int      `json:"response_seconds,omitempty" yaml:"response_seconds,omitempty"`
}

// TriviaRound is the board of categories played in one game.
type TriviaRound struct {
	Categories []*TriviaCategory `json:"categories"`
}

type TriviaCategory struct {
	Name  string        `json:"name"`
	Clues []*TriviaClue `json:"clues"`
}

type TriviaClue struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Value     int    `json:"value"`
	IsWager   bool   `json:"is_wager"`
	Completed bool   `json:"completed"`
}

// Clue returns the clue at the given position or nil when out of range.
func (r *TriviaRound) Clue(categoryIdx, clueIdx int) *TriviaClue {
	if r == nil || categoryIdx < 0 || categoryIdx >= len(r.Categories) {
		return nil
	}
	cat := r.Categories[categoryIdx]
	if clueIdx < 0 || clueIdx >= len(cat.Clues) {
		return nil
	}
	return cat.Clues[clueIdx]
}

// Remaining counts clues not yet played.
func (r *TriviaRound) Remaining() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, cat := range r.Categories {
		for _, c := range cat.Clues {
			if !c.Completed {
				n++
			}
		}
	}
	return n
}

// MaxValue returns the highest clue value on the board.
func (r *TriviaRound) MaxValue() int {
	max := 0
	if r == nil {
		return max
	}
	for _, cat := range r.Categories {
		for _, c := range cat.Clues {
			if c.Value > max {
				max = c.Value
			}
		}
	}
	return max
}

// Reset marks every clue as unplayed.
func (r *TriviaRound) Reset() {
	if r == nil {
		return
	}
	for _, cat := range r.Categories {
		for _, c := range cat.Clues {
			c.Completed = false
		}
	}
}

// Clone returns a deep copy so broadcasts never share mutable state with the session.
func (r *TriviaRound) Clone() *TriviaRound {
	if r == nil {
		return nil
	}
	out := &TriviaRound{Categories: make([]*TriviaCategory, 0, len(r.Categories))}
	for _, cat := range r.Categories {
		nc := &TriviaCategory{Name: cat.Name, Clues: make([]*TriviaClue, 0, len(cat.Clues))}
		for _, c := range cat.Clues {
			cc := *c
			nc.Clues = append(nc.Clues, &cc)
		}
		out.Categories = append(out.Categories, nc)
	}
	return out
}
