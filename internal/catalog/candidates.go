package catalog

import "github.com/eugenenazirov/burnvault/internal/optimizer"

// ToCandidates projects items onto solver candidates. Each candidate carries its
// MediaItem as payload so selections map back without a lookup.
func ToCandidates(items []MediaItem) []optimizer.CandidateItem {
	out := make([]optimizer.CandidateItem, len(items))
	for i, item := range items {
		out[i] = optimizer.CandidateItem{
			ID:       item.ID,
			Size:     item.SizeGB,
			Category: optimizer.Category(item.Category),
			Payload:  item,
		}
	}
	return out
}

// FromCandidates recovers the MediaItems carried by candidates. Candidates
// without a MediaItem payload are rebuilt from their solver fields.
func FromCandidates(candidates []optimizer.CandidateItem) []MediaItem {
	out := make([]MediaItem, len(candidates))
	for i, candidate := range candidates {
		if item, ok := candidate.Payload.(MediaItem); ok {
			out[i] = item
			continue
		}
		out[i] = MediaItem{
			ID:       candidate.ID,
			Category: string(candidate.Category),
			SizeGB:   candidate.Size,
		}
	}
	return out
}
