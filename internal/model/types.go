package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// MaskRecord is the persistent form of a trained mask. Coefficients are
// stored as separate real and imaginary planes (row-major) so the record
// round-trips through storage bit-exactly.
type MaskRecord struct {
	VersionedRecord
	ID     string    `json:"id"`
	Domain string    `json:"domain"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Real   []float64 `json:"real"`
	Imag   []float64 `json:"imag"`
}

// GenerationStats summarizes one generation of the optimizer.
type GenerationStats struct {
	Generation        int     `json:"generation"`
	BestFitness       float64 `json:"best_fitness"`
	MeanFitness       float64 `json:"mean_fitness"`
	WorstFitness      float64 `json:"worst_fitness"`
	FailedEvaluations int     `json:"failed_evaluations,omitempty"`
}

// RunRecord snapshots an optimizer run: full configuration, convergence
// history and the outcome.
type RunRecord struct {
	VersionedRecord
	ID           string `json:"id"`
	CreatedAtUTC string `json:"created_at_utc"`

	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Wavelength  float64 `json:"wavelength"`
	Pitch       float64 `json:"pitch"`
	Distance1   float64 `json:"distance_1"`
	Distance2   float64 `json:"distance_2"`
	Labels      int     `json:"labels"`
	PhaseEncode bool    `json:"phase_encode"`
	FitnessMode string  `json:"fitness_mode"`
	MaskDomain  string  `json:"mask_domain"`

	PopulationSize   int     `json:"population_size"`
	EliteCount       int     `json:"elite_count"`
	CrossoverProb    float64 `json:"crossover_probability"`
	MutationProb     float64 `json:"mutation_probability"`
	MutationStrength float64 `json:"mutation_strength"`
	MaxGenerations   int     `json:"max_generations"`
	TargetFitness    float64 `json:"target_fitness"`
	StagnationLimit  int     `json:"stagnation_limit"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	Selection        string  `json:"selection"`
	Crossover        string  `json:"crossover"`
	Mutation         string  `json:"mutation"`
	Init             string  `json:"init"`
	BatchSize        int     `json:"batch_size"`

	BestFitness    float64           `json:"best_fitness"`
	BestGeneration int               `json:"best_generation"`
	StopReason     string            `json:"stop_reason"`
	BestMaskID     string            `json:"best_mask_id"`
	History        []GenerationStats `json:"history"`
	Warnings       []string          `json:"warnings,omitempty"`
}
