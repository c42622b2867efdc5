package content

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/mcdev12/trivianight/go/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

// Bank is a pool of categories parsed from YAML.
type Bank struct {
	Categories []BankCategory `yaml:"categories"`
}

type BankCategory struct {
	Name  string     `yaml:"name"`
	Tags  []string   `yaml:"tags"`
	Clues []BankClue `yaml:"clues"`
}

type BankClue struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// ParseBank decodes and validates a clue bank.
func ParseBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse clue bank: %w", err)
	}
	if len(bank.Categories) == 0 {
		return nil, fmt.Errorf("clue bank has no categories")
	}
	for _, cat := range bank.Categories {
		if cat.Name == "" || len(cat.Clues) == 0 {
			return nil, fmt.Errorf("clue bank category %q is empty", cat.Name)
		}
	}
	return &bank, nil
}

// LoadBank reads a bank from path, or the built-in bank when path is empty.
func LoadBank(path string) (*Bank, error) {
	if path == "" {
		return ParseBank(defaultBank)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clue bank: %w", err)
	}
	return ParseBank(data)
}

// BankGenerator builds rounds by sampling a local clue bank.
type BankGenerator struct {
	bank *Bank

	mu  sync.Mutex
	rng *rand.Rand
}

func NewBankGenerator(bank *Bank, seed uint64) *BankGenerator {
	return &BankGenerator{
		bank: bank,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *BankGenerator) Generate(ctx context.Context, settings models.TriviaGameSettings) (*models.TriviaRound, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if settings.Categories <= 0 || settings.CluesPerCat <= 0 {
		return nil, fmt.Errorf("a round needs at least one category and one clue per category")
	}
	base := settings.BaseValue
	if base <= 0 {
		base = 200
	}

	pool := g.candidates(settings.Topics)
	if len(pool) < settings.Categories {
		return nil, fmt.Errorf("only %d categories match, %d requested", len(pool), settings.Categories)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	round := &models.TriviaRound{}
	for _, cat := range pool[:settings.Categories] {
		n := settings.CluesPerCat
		if n > len(cat.Clues) {
			n = len(cat.Clues)
		}
		rc := &models.TriviaCategory{Name: cat.Name}
		for i := 0; i < n; i++ {
			rc.Clues = append(rc.Clues, &models.TriviaClue{
				Question: cat.Clues[i].Question,
				Answer:   cat.Clues[i].Answer,
				Value:    base * (i + 1),
			})
		}
		round.Categories = append(round.Categories, rc)
	}

	g.markWagers(round, settings.WagerClues)
	return round, nil
}

func (g *BankGenerator) candidates(topics []string) []BankCategory {
	if len(topics) == 0 {
		return append([]BankCategory(nil), g.bank.Categories...)
	}
	var out []BankCategory
	for _, cat := range g.bank.Categories {
		if matchesTopic(cat, topics) {
			out = append(out, cat)
		}
	}
	return out
}

func matchesTopic(cat BankCategory, topics []string) bool {
	for _, topic := range topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if strings.Contains(strings.ToLower(cat.Name), topic) {
			return true
		}
		for _, tag := range cat.Tags {
			if strings.EqualFold(tag, topic) {
				return true
			}
		}
	}
	return false
}

// markWagers flags n random clues as wagers. Callers hold g.mu.
func (g *BankGenerator) markWagers(round *models.TriviaRound, n int) {
	var all []*models.TriviaClue
	for _, cat := range round.Categories {
		all = append(all, cat.Clues...)
	}
	if n > len(all) {
		n = len(all)
	}
	for _, i := range g.rng.Perm(len(all))[:n] {
		all[i].IsWager = true
	}
}
