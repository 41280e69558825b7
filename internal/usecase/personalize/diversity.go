package personalize

import (
	"sort"
	"strings"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/result"
)

// Categories present in less than this share of the set get a diversity
// boost to counter popularity bias.
const underrepresentedShare = 0.10

const underrepresentedBoost = 1.2

// adjustDiversity scores each result by how unlike the rest of the set
// it is and drops near-duplicates above the ceiling, unless that would
// remove more than half the set. Order is preserved.
func (s *Service) adjustDiversity(results []*result.Result) []*result.Result {
	n := len(results)
	if n <= 1 {
		return results
	}

	words := make([]map[string]bool, n)
	for i, r := range results {
		words[i] = textWords(r.Doc().SearchText())
	}

	// Average pairwise overlap against the rest of the set.
	overlap := make([]float64, n)
	for i := range results {
		var sum float64
		for j := range results {
			if i != j {
				sum += jaccard(words[i], words[j])
			}
		}
		overlap[i] = sum / float64(n-1)
		results[i].SetDiversity(1 - overlap[i])
	}

	boostUnderrepresented(results)

	var keep, dropped []int
	for i := range results {
		if overlap[i] > s.cfg.DiversityCeiling {
			dropped = append(dropped, i)
		} else {
			keep = append(keep, i)
		}
	}

	// Over-filtering guard: dropping more than half restores the most
	// diverse of the dropped until half the set survives.
	minKeep := (n + 1) / 2
	if len(keep) < minKeep {
		sort.SliceStable(dropped, func(a, b int) bool {
			return results[dropped[a]].Diversity() > results[dropped[b]].Diversity()
		})
		for _, idx := range dropped {
			if len(keep) >= minKeep {
				break
			}
			keep = append(keep, idx)
		}
		sort.Ints(keep)
	}

	out := make([]*result.Result, 0, len(keep))
	for _, idx := range keep {
		out = append(out, results[idx])
	}
	return out
}

// boostUnderrepresented raises the diversity factor of results whose
// category holds less than a tenth of the set.
func boostUnderrepresented(results []*result.Result) {
	counts := make(map[string]int)
	for _, r := range results {
		if c := strings.ToLower(r.Doc().Category()); c != "" {
			counts[c]++
		}
	}

	total := float64(len(results))
	for _, r := range results {
		c := strings.ToLower(r.Doc().Category())
		if c == "" {
			continue
		}
		if float64(counts[c])/total < underrepresentedShare {
			r.SetDiversity(r.Diversity() * underrepresentedBoost)
		}
	}
}

// jaccard is the word-overlap similarity of two sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func textWords(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?()[]{}"'`)
		if len(w) > 1 {
			set[w] = true
		}
	}
	return set
}
