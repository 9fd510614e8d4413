package vector

// NearestQuery asks the vector index for the K nearest prompts.
type NearestQuery struct {
	Vector []float32
	K      int
	// MinScore drops neighbours whose similarity is below it.
	MinScore float64
	// PublicOnly restricts candidates to public prompts.
	PublicOnly bool
	// ExcludeOwner drops prompts owned by this user.
	ExcludeOwner string
	ExcludeIDs   []string
}

// Neighbor is a prompt id with its similarity in [0, 1].
type Neighbor struct {
	ID    string
	Score float64
}
