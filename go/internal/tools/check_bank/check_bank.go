package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mcdev12/trivianight/go/internal/content"
	"github.com/mcdev12/trivianight/go/internal/game/session"
	"github.com/mcdev12/trivianight/go/internal/models"
)

// check_bank validates a clue bank and tries every preset against it.
// Usage: go run ./go/internal/tools/check_bank [path]; no path checks the built-in bank.
func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load and parse the bank
	bank, err := content.LoadBank(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load bank: %v\n", err)
		os.Exit(1)
	}

	// 2) Count clues and look for repeated answers
	var (
		categories = len(bank.Categories)
		clues      int
		duplicates int
		seen       = make(map[string]string)
	)
	for _, cat := range bank.Categories {
		for _, c := range cat.Clues {
			clues++
			key := strings.ToLower(strings.TrimSpace(c.Answer))
			if prev, ok := seen[key]; ok {
				fmt.Fprintf(os.Stderr, "answer %q appears in %s and %s\n", c.Answer, prev, cat.Name)
				duplicates++
				continue
			}
			seen[key] = cat.Name
		}
	}

	// 3) Build one round per preset
	gen := content.NewBankGenerator(bank, 1)
	cfg := session.DefaultConfig()
	names := make([]string, 0, len(cfg.Presets))
	for preset := range cfg.Presets {
		names = append(names, string(preset))
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		settings := cfg.Presets[models.SettingsPreset(name)]
		if _, err := gen.Generate(context.Background(), settings); err != nil {
			fmt.Fprintf(os.Stderr, "preset %s: %v\n", name, err)
			failed++
		}
	}

	fmt.Printf("categories=%d clues=%d duplicate_answers=%d presets_failed=%d\n",
		categories, clues, duplicates, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
