package evaluation

import (
	"strings"

	"github.com/docdex-io/docdex/internal/embedding"
)

// OverlapThreshold is the token-overlap ratio at which a retrieved
// chunk counts as matching a relevant snippet.
const OverlapThreshold = 0.6

type relevanceCandidate struct {
	lower   string
	tokens  map[string]struct{}
	matched bool
}

// RelevanceFlags marks each retrieved chunk as relevant (1) or not (0).
// A chunk matches a snippet when the snippet appears as a substring or
// when the chunk covers at least OverlapThreshold of the snippet's
// tokens. Each snippet is consumed by its first match so duplicated
// chunks cannot inflate recall.
func RelevanceFlags(retrieved, relevant []string) []int {
	if len(retrieved) == 0 {
		return []int{}
	}
	candidates := make([]relevanceCandidate, 0, len(relevant))
	for _, rel := range relevant {
		candidates = append(candidates, relevanceCandidate{
			lower:  strings.ToLower(rel),
			tokens: tokenSet(rel),
		})
	}
	flags := make([]int, 0, len(retrieved))
	for _, chunk := range retrieved {
		chunkLower := strings.ToLower(chunk)
		chunkTokens := tokenSet(chunk)
		flag := 0
		for i := range candidates {
			cand := &candidates[i]
			if cand.matched {
				continue
			}
			if cand.lower != "" && strings.Contains(chunkLower, cand.lower) {
				cand.matched = true
				flag = 1
				break
			}
			if len(cand.tokens) > 0 {
				shared := 0
				for tok := range cand.tokens {
					if _, ok := chunkTokens[tok]; ok {
						shared++
					}
				}
				if float64(shared)/float64(len(cand.tokens)) >= OverlapThreshold {
					cand.matched = true
					flag = 1
					break
				}
			}
		}
		flags = append(flags, flag)
	}
	return flags
}

func tokenSet(text string) map[string]struct{} {
	tokens := embedding.Tokens(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
