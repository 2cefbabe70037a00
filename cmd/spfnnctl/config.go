package main

import (
	"encoding/json"
	"fmt"
	"os"

	"spfnn/internal/model"
)

// loadEngineConfig reads the network config JSON:
//
//	{"xdim": 480, "hdim": 512, "ydim": 363, "sdim": 7, "style_neurons": [...], "phase_index": 362}
func loadEngineConfig(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Config{}, err
	}

	var cfg model.Config
	if v, ok := asInt(raw["xdim"]); ok {
		cfg.XDim = v
	}
	if v, ok := asInt(raw["hdim"]); ok {
		cfg.HDim = v
	}
	if v, ok := asInt(raw["ydim"]); ok {
		cfg.YDim = v
	}
	if v, ok := asInt(raw["phase_index"]); ok {
		cfg.PhaseIndex = v
	}
	if items, ok := raw["style_neurons"].([]any); ok {
		cfg.StyleNeurons = make([]int, 0, len(items))
		for i, item := range items {
			v, ok := asInt(item)
			if !ok {
				return model.Config{}, fmt.Errorf("style_neurons[%d]: expected integer, got %T", i, item)
			}
			cfg.StyleNeurons = append(cfg.StyleNeurons, v)
		}
	}
	if v, ok := asInt(raw["sdim"]); ok {
		cfg.SDim = v
	} else {
		cfg.SDim = len(cfg.StyleNeurons)
	}

	if err := cfg.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
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
