// Package evo searches mask space with a genetic algorithm. Each
// individual is a full transmission mask; fitness is classification
// performance of the optical pipeline under that mask over a labeled
// image batch.
package evo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/yoavsyo/optic-classifier/internal/classify"
	"github.com/yoavsyo/optic-classifier/internal/dataset"
	"github.com/yoavsyo/optic-classifier/internal/model"
	"github.com/yoavsyo/optic-classifier/internal/optics"
)

// WorstFitness is the sentinel recorded for individuals whose evaluation
// failed. It sorts below every legitimate score so a broken mask can
// never reach the elite set.
var WorstFitness = math.Inf(-1)

// ScoredMask pairs a mask with its evaluated fitness. Failed marks an
// absorbed evaluation error; Err keeps the message for diagnostics.
type ScoredMask struct {
	Mask    optics.Mask
	Fitness float64
	Failed  bool
	Err     string
}

// StopReason explains why a run terminated.
type StopReason string

const (
	StopMaxGenerations StopReason = "max_generations"
	StopTargetReached  StopReason = "target_reached"
	StopStagnation     StopReason = "stagnation"
)

// Config collects every optimizer parameter. All values are explicit;
// the only construction-time defaults are strategy fallbacks and a
// single-worker pool.
type Config struct {
	Pipeline  *optics.Pipeline
	Evaluator classify.Evaluator
	// Batch is the fixed training batch. When ResampleBatch is set it is
	// called once per generation (with the run RNG) to produce that
	// generation's batch instead.
	Batch         []dataset.LabeledImage
	ResampleBatch func(generation int, rng *rand.Rand) ([]dataset.LabeledImage, error)

	Selector    Selector
	Crossover   Crossover
	Mutator     Mutator
	Initializer Initializer

	// Domain constrains every individual's coefficients.
	Domain optics.Domain

	PopulationSize   int
	EliteCount       int
	CrossoverProb    float64
	MutationProb     float64
	MutationStrength float64
	MaxGenerations   int
	TargetFitness    float64
	StagnationLimit  int
	Workers          int
	Seed             int64
}

// Result reports the outcome of a run. BestMask is the best individual
// ever observed, held apart from the live population so replacement can
// never lose it.
type Result struct {
	BestMask        optics.Mask
	BestFitness     float64
	BestGeneration  int
	History         []model.GenerationStats
	StopReason      StopReason
	FinalPopulation []ScoredMask
}

// Optimizer runs the generational loop. Fitness evaluations fan out over
// a worker pool; all stochastic draws happen in the single-threaded
// breeding phase through one seeded source, so a fixed seed reproduces
// the full run regardless of worker scheduling.
type Optimizer struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) (*Optimizer, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline is required", optics.ErrConfiguration)
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", optics.ErrConfiguration, cfg.PopulationSize)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount >= cfg.PopulationSize {
		return nil, fmt.Errorf("%w: elite count must be in [0, population size), got %d", optics.ErrConfiguration, cfg.EliteCount)
	}
	if cfg.CrossoverProb < 0 || cfg.CrossoverProb > 1 {
		return nil, fmt.Errorf("%w: crossover probability must be in [0,1], got %g", optics.ErrConfiguration, cfg.CrossoverProb)
	}
	if cfg.MutationProb < 0 || cfg.MutationProb > 1 {
		return nil, fmt.Errorf("%w: mutation probability must be in [0,1], got %g", optics.ErrConfiguration, cfg.MutationProb)
	}
	if cfg.MutationStrength < 0 {
		return nil, fmt.Errorf("%w: mutation strength must be >= 0, got %g", optics.ErrConfiguration, cfg.MutationStrength)
	}
	if cfg.MaxGenerations <= 0 {
		return nil, fmt.Errorf("%w: max generations must be > 0, got %d", optics.ErrConfiguration, cfg.MaxGenerations)
	}
	if cfg.StagnationLimit < 0 {
		return nil, fmt.Errorf("%w: stagnation limit must be >= 0, got %d", optics.ErrConfiguration, cfg.StagnationLimit)
	}
	if len(cfg.Batch) == 0 && cfg.ResampleBatch == nil {
		return nil, fmt.Errorf("%w: a training batch or a batch source is required", optics.ErrConfiguration)
	}
	pcfg := cfg.Pipeline.Config()
	if len(cfg.Batch) > 0 {
		if err := dataset.ValidateBatch(cfg.Batch, pcfg.Width, pcfg.Height, cfg.Evaluator.Regions().Labels()); err != nil {
			return nil, fmt.Errorf("%w: training batch: %v", optics.ErrConfiguration, err)
		}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = TournamentSelector{Size: 3}
	}
	if cfg.Crossover == nil {
		cfg.Crossover = UniformCrossover{}
	}
	if cfg.Mutator == nil {
		cfg.Mutator = GaussianMutator{}
	}
	if cfg.Initializer == nil {
		cfg.Initializer = RandomPhaseInit{}
	}

	return &Optimizer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run executes the full optimization and returns the best mask ever
// observed. A context cancellation aborts between evaluations.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	pcfg := o.cfg.Pipeline.Config()
	domain := o.cfg.Domain

	population := make([]ScoredMask, o.cfg.PopulationSize)
	for i := range population {
		mask, err := o.cfg.Initializer.Random(o.rng, pcfg.Width, pcfg.Height, domain)
		if err != nil {
			return Result{}, fmt.Errorf("initialize individual %d: %w", i, err)
		}
		population[i] = ScoredMask{Mask: mask.Clamp(), Fitness: WorstFitness, Failed: true}
	}

	var (
		history        []model.GenerationStats
		best           ScoredMask
		bestGeneration int
		haveBest       bool
		sinceImproved  int
		reason         StopReason = StopMaxGenerations
	)

	for gen := 0; gen < o.cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		batch := o.cfg.Batch
		if o.cfg.ResampleBatch != nil {
			resampled, err := o.cfg.ResampleBatch(gen, o.rng)
			if err != nil {
				return Result{}, fmt.Errorf("resample batch for generation %d: %w", gen, err)
			}
			batch = resampled
			if err := dataset.ValidateBatch(batch, pcfg.Width, pcfg.Height, o.cfg.Evaluator.Regions().Labels()); err != nil {
				return Result{}, fmt.Errorf("resampled batch for generation %d: %w", gen, err)
			}
			// Carried elite scores refer to the previous batch; rescore
			// everyone against this generation's batch.
			for i := range population {
				population[i].Fitness = WorstFitness
				population[i].Failed = true
				population[i].Err = ""
			}
		}

		if err := o.evaluatePopulation(ctx, population, batch); err != nil {
			return Result{}, err
		}

		sort.SliceStable(population, func(i, j int) bool {
			return population[i].Fitness > population[j].Fitness
		})

		stats, succeeded := summarize(population, gen)
		history = append(history, stats)
		if succeeded == 0 {
			return Result{}, fmt.Errorf("all %d individuals failed evaluation in generation %d", len(population), gen)
		}

		improved := false
		if top := population[0]; !top.Failed && (!haveBest || top.Fitness > best.Fitness) {
			best = ScoredMask{Mask: top.Mask.Clone(), Fitness: top.Fitness}
			bestGeneration = gen
			haveBest = true
			improved = true
		}
		if improved {
			sinceImproved = 0
		} else {
			sinceImproved++
		}

		if o.cfg.TargetFitness > 0 && best.Fitness >= o.cfg.TargetFitness {
			reason = StopTargetReached
			break
		}
		if o.cfg.StagnationLimit > 0 && sinceImproved >= o.cfg.StagnationLimit {
			reason = StopStagnation
			break
		}
		if gen == o.cfg.MaxGenerations-1 {
			break
		}

		next, err := o.breed(ctx, population)
		if err != nil {
			return Result{}, err
		}
		population = next
	}

	return Result{
		BestMask:        best.Mask,
		BestFitness:     best.Fitness,
		BestGeneration:  bestGeneration,
		History:         history,
		StopReason:      reason,
		FinalPopulation: population,
	}, nil
}

// breed builds the next generation: elites carry over with their scores,
// the remainder comes from selection, crossover and mutation. All random
// draws go through the run RNG in slot order.
func (o *Optimizer) breed(ctx context.Context, ranked []ScoredMask) ([]ScoredMask, error) {
	viable := make([]ScoredMask, 0, len(ranked))
	for _, item := range ranked {
		if !item.Failed {
			viable = append(viable, item)
		}
	}
	if len(viable) == 0 {
		return nil, fmt.Errorf("no viable parents available")
	}

	next := make([]ScoredMask, 0, o.cfg.PopulationSize)
	for i := 0; i < o.cfg.EliteCount && i < len(viable); i++ {
		elite := viable[i]
		next = append(next, ScoredMask{Mask: elite.Mask.Clone(), Fitness: elite.Fitness})
	}

	for len(next) < o.cfg.PopulationSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parent, err := o.cfg.Selector.Pick(o.rng, viable)
		if err != nil {
			return nil, err
		}
		var child optics.Mask
		if o.rng.Float64() < o.cfg.CrossoverProb {
			mate, err := o.cfg.Selector.Pick(o.rng, viable)
			if err != nil {
				return nil, err
			}
			child = o.cfg.Crossover.Combine(o.rng, parent, mate)
		} else {
			child = parent.Clone()
		}
		child = o.cfg.Mutator.Mutate(o.rng, child, o.cfg.MutationProb, o.cfg.MutationStrength)
		child = child.Clamp()
		next = append(next, ScoredMask{Mask: child, Fitness: WorstFitness, Failed: true})
	}
	return next, nil
}

// evaluatePopulation scores every not-yet-scored individual over the
// batch using a bounded worker pool. Elites keep their carried scores.
// Evaluation errors are absorbed into the worst-fitness sentinel.
func (o *Optimizer) evaluatePopulation(ctx context.Context, population []ScoredMask, batch []dataset.LabeledImage) error {
	type job struct {
		idx  int
		mask optics.Mask
	}
	type result struct {
		idx    int
		scored ScoredMask
		err    error
	}

	pending := make([]job, 0, len(population))
	for i, item := range population {
		if item.Failed && item.Err == "" {
			pending = append(pending, job{idx: i, mask: item.Mask})
		}
	}
	if len(pending) == 0 {
		return nil
	}

	jobs := make(chan job)
	results := make(chan result, len(pending))

	workerCount := o.cfg.Workers
	if workerCount > len(pending) {
		workerCount = len(pending)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				results <- result{idx: j.idx, scored: o.evaluateMask(j.mask, batch)}
			}
		}()
	}

	for _, j := range pending {
		jobs <- j
	}
	close(jobs)

	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			return res.err
		}
		population[res.idx] = res.scored
	}
	return nil
}

// evaluateMask runs the full batch through the pipeline under one mask.
// Any failure is absorbed: the individual scores WorstFitness and the
// error text is kept for the generation diagnostics.
func (o *Optimizer) evaluateMask(mask optics.Mask, batch []dataset.LabeledImage) ScoredMask {
	if err := mask.Validate(); err != nil {
		return ScoredMask{Mask: mask, Fitness: WorstFitness, Failed: true, Err: err.Error()}
	}

	samples := make([]classify.Sample, 0, len(batch))
	for _, img := range batch {
		intensity, err := o.cfg.Pipeline.Run(img.Pixels, mask)
		if err != nil {
			return ScoredMask{Mask: mask, Fitness: WorstFitness, Failed: true, Err: err.Error()}
		}
		samples = append(samples, classify.Sample{Intensity: intensity, Label: img.Label})
	}
	fitness, err := o.cfg.Evaluator.BatchScore(samples)
	if err != nil {
		return ScoredMask{Mask: mask, Fitness: WorstFitness, Failed: true, Err: err.Error()}
	}
	return ScoredMask{Mask: mask, Fitness: fitness}
}

// summarize reduces a ranked generation to its history entry. Failed
// evaluations are counted, not averaged, so an absorbed failure stays
// distinguishable from a legitimately poor score.
func summarize(ranked []ScoredMask, generation int) (model.GenerationStats, int) {
	stats := model.GenerationStats{Generation: generation}
	total := 0.0
	succeeded := 0
	for _, item := range ranked {
		if item.Failed {
			stats.FailedEvaluations++
			continue
		}
		if succeeded == 0 {
			stats.BestFitness = item.Fitness
			stats.WorstFitness = item.Fitness
		}
		if item.Fitness > stats.BestFitness {
			stats.BestFitness = item.Fitness
		}
		if item.Fitness < stats.WorstFitness {
			stats.WorstFitness = item.Fitness
		}
		total += item.Fitness
		succeeded++
	}
	if succeeded > 0 {
		stats.MeanFitness = total / float64(succeeded)
	}
	return stats, succeeded
}
