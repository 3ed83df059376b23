package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yoavsyo/optic-classifier/pkg/optic"
)

func loadRunRequestFromConfig(path string) (optic.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return optic.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return optic.RunRequest{}, fmt.Errorf("load config: %w", err)
	}

	var req optic.RunRequest
	if v, ok := asInt(raw["width"]); ok {
		req.Width = v
	}
	if v, ok := asInt(raw["height"]); ok {
		req.Height = v
	}
	if v, ok := asFloat64(raw["wavelength"]); ok {
		req.Wavelength = v
	}
	if v, ok := asFloat64(raw["pitch"]); ok {
		req.Pitch = v
	}
	if v, ok := asFloat64(raw["distance_1"]); ok {
		req.Distance1 = v
	}
	if v, ok := asFloat64(raw["distance_2"]); ok {
		req.Distance2 = v
	}
	if v, ok := asInt(raw["labels"]); ok {
		req.Labels = v
	}
	if v, ok := asString(raw["fitness_mode"]); ok {
		req.FitnessMode = v
	}
	if v, ok := asString(raw["mask_domain"]); ok {
		req.MaskDomain = v
	}
	if v, ok := asBool(raw["amplitude_encode"]); ok {
		req.AmplitudeEncode = v
	}
	if v, ok := asString(raw["dataset_csv"]); ok {
		req.DatasetCSV = v
	}
	if v, ok := asInt(raw["batch_size"]); ok {
		req.BatchSize = v
	}
	if v, ok := asBool(raw["resample_each_gen"]); ok {
		req.ResampleEachGen = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["elite_count"]); ok {
		req.EliteCount = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asFloat64(raw["crossover_probability"]); ok {
		req.CrossoverProb = v
	}
	if v, ok := asFloat64(raw["mutation_probability"]); ok {
		req.MutationProb = v
	}
	if v, ok := asFloat64(raw["mutation_strength"]); ok {
		req.MutationStrength = v
	}
	if v, ok := asFloat64(raw["target_fitness"]); ok {
		req.TargetFitness = v
	}
	if v, ok := asInt(raw["stagnation_limit"]); ok {
		req.StagnationLimit = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asString(raw["selection"]); ok {
		req.Selection = v
	}
	if v, ok := asString(raw["crossover"]); ok {
		req.Crossover = v
	}
	if v, ok := asString(raw["mutation"]); ok {
		req.Mutation = v
	}
	if v, ok := asString(raw["init"]); ok {
		req.Init = v
	}
	return req, nil
}

// overrideFromFlags copies flag values into the request. With applyAll
// every value is copied; otherwise only flags the user set explicitly
// override the config file.
func overrideFromFlags(req *optic.RunRequest, set map[string]bool, flagValue map[string]any, applyAll bool) {
	for name, v := range flagValue {
		if !applyAll && !set[name] {
			continue
		}
		switch name {
		case "width":
			req.Width = v.(int)
		case "height":
			req.Height = v.(int)
		case "wavelength":
			req.Wavelength = v.(float64)
		case "pitch":
			req.Pitch = v.(float64)
		case "distance-1":
			req.Distance1 = v.(float64)
		case "distance-2":
			req.Distance2 = v.(float64)
		case "labels":
			req.Labels = v.(int)
		case "fitness-mode":
			req.FitnessMode = v.(string)
		case "mask-domain":
			req.MaskDomain = v.(string)
		case "amplitude-encode":
			req.AmplitudeEncode = v.(bool)
		case "dataset":
			req.DatasetCSV = v.(string)
		case "batch":
			req.BatchSize = v.(int)
		case "resample":
			req.ResampleEachGen = v.(bool)
		case "pop":
			req.Population = v.(int)
		case "elite":
			req.EliteCount = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "crossover-prob":
			req.CrossoverProb = v.(float64)
		case "mutation-prob":
			req.MutationProb = v.(float64)
		case "mutation-strength":
			req.MutationStrength = v.(float64)
		case "target-fitness":
			req.TargetFitness = v.(float64)
		case "stagnation":
			req.StagnationLimit = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "selection":
			req.Selection = v.(string)
		case "crossover":
			req.Crossover = v.(string)
		case "mutation":
			req.Mutation = v.(string)
		case "init":
			req.Init = v.(string)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
