package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/franz/playlist-resolver/internal/match"
)

// promptResolver asks the user to settle each uncertain query on the
// terminal. Enter accepts the top candidate, a number picks another,
// "m" takes a manual path, "s" skips.
type promptResolver struct {
	in             *bufio.Reader
	highConfidence int
}

func newPromptResolver(highConfidence int) *promptResolver {
	return &promptResolver{
		in:             bufio.NewReader(os.Stdin),
		highConfidence: highConfidence,
	}
}

// Resolve implements match.Resolver
func (r *promptResolver) Resolve(q *match.Query, candidates []match.Candidate) (match.Decision, error) {
	fmt.Printf("\nUNCERTAIN: %s\n", q.Display())

	highConfidence := len(candidates) > 0 && candidates[0].Score >= r.highConfidence
	for i, c := range candidates {
		marker := ""
		if i == 0 && highConfidence {
			marker = " [high confidence]"
		}
		fmt.Printf("  %d) [%3d] %s%s\n", i+1, c.Score, c.Path, marker)
	}
	fmt.Println("  s) Skip")
	fmt.Println("  m) Manual path")
	if highConfidence {
		fmt.Println("Press Enter to accept the high-confidence match.")
	}

	for {
		fmt.Print("Choice [1]: ")
		line, err := r.in.ReadString('\n')
		if err != nil {
			// EOF on stdin: behave like skip for the remaining queries
			return match.Decision{Kind: match.DecisionSkip}, nil
		}
		choice := strings.ToLower(strings.TrimSpace(line))

		switch {
		case choice == "" && len(candidates) > 0:
			return match.Decision{Kind: match.DecisionAccept, Index: 0}, nil
		case choice == "s":
			return match.Decision{Kind: match.DecisionSkip}, nil
		case choice == "m":
			fmt.Print("Enter full path: ")
			pathLine, err := r.in.ReadString('\n')
			if err != nil {
				return match.Decision{Kind: match.DecisionSkip}, nil
			}
			path := strings.TrimSpace(pathLine)
			if path == "" {
				return match.Decision{Kind: match.DecisionSkip}, nil
			}
			return match.Decision{Kind: match.DecisionManual, Path: path}, nil
		default:
			if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(candidates) {
				return match.Decision{Kind: match.DecisionAccept, Index: n - 1}, nil
			}
			fmt.Println("Invalid choice.")
		}
	}
}
