package agent

import (
	"hierarag/internal/ai"
	"hierarag/internal/model"
)

// ExtractSources collects the sources of every search result in the
// transcript, first appearance wins. Turns whose result is not a search hit
// list are skipped.
func ExtractSources(t *Transcript) []model.Source {
	seen := make(map[string]struct{})
	sources := make([]model.Source, 0)
	for _, turn := range t.Turns() {
		if turn.Message.Role != ai.RoleTool || turn.Message.Name != SearchToolName {
			continue
		}
		hits, ok := turn.Result.([]SearchResult)
		if !ok {
			continue
		}
		for _, h := range hits {
			if _, dup := seen[h.Source]; dup {
				continue
			}
			seen[h.Source] = struct{}{}
			sources = append(sources, model.NewSource(h.Source, h.Content))
		}
	}
	return sources
}
