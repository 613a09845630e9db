package docs

// Replacement substitutes every occurrence of Token with Value.
type Replacement struct {
	Token string `json:"token"`
	Value string `json:"value"`
}

// FillResult describes a completed fill.
type FillResult struct {
	DocumentID string `json:"documentId"`

	// Occurrences is the total number of replaced occurrences.
	Occurrences int64 `json:"occurrences"`

	// PerToken holds the occurrences replaced for each token, in request order.
	PerToken []int64 `json:"perToken"`
}
