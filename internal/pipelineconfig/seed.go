package pipelineconfig

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document consumed by the seed command. It declares the
// step configuration per run type and any prompt templates to install.
type SeedFile struct {
	RunTypes map[string]SeedRunType `yaml:"run_types"`
	Prompts  []SeedPrompt           `yaml:"prompts"`
}

// SeedRunType is one run type's ordered step list.
type SeedRunType struct {
	Steps []SeedStep `yaml:"steps"`
}

// SeedStep is one step row in the seed file.
type SeedStep struct {
	Key     string         `yaml:"key"`
	Order   int            `yaml:"order"`
	Enabled *bool          `yaml:"enabled"`
	Params  map[string]any `yaml:"params"`
}

// SeedPrompt is one prompt template in the seed file.
type SeedPrompt struct {
	PromptID string `yaml:"prompt_id"`
	Version  string `yaml:"version"`
	Active   *bool  `yaml:"active"`
	Body     string `yaml:"body"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	return seed, nil
}

// Apply upserts the seed file's step configs and prompt templates. Enabled
// and active default to true when omitted.
func Apply(ctx context.Context, repo Repo, templates TemplateRepo, seed SeedFile) (int, error) {
	applied := 0
	for runType, rt := range seed.RunTypes {
		for _, step := range rt.Steps {
			if step.Key == "" {
				return applied, fmt.Errorf("seed run type %q: step with empty key", runType)
			}
			enabled := true
			if step.Enabled != nil {
				enabled = *step.Enabled
			}
			cfg := StepConfig{
				RunType: runType,
				StepKey: step.Key,
				Enabled: enabled,
				Order:   step.Order,
				Params:  step.Params,
			}
			if err := repo.UpsertStep(ctx, cfg); err != nil {
				return applied, fmt.Errorf("seed step %s/%s: %w", runType, step.Key, err)
			}
			applied++
		}
	}
	for _, prompt := range seed.Prompts {
		if prompt.PromptID == "" || prompt.Body == "" {
			return applied, fmt.Errorf("seed prompt with empty id or body")
		}
		active := true
		if prompt.Active != nil {
			active = *prompt.Active
		}
		version := prompt.Version
		if version == "" {
			version = "1.0"
		}
		tpl := PromptTemplate{
			PromptID: prompt.PromptID,
			Version:  version,
			Body:     prompt.Body,
			IsActive: active,
		}
		if err := templates.UpsertTemplate(ctx, tpl); err != nil {
			return applied, fmt.Errorf("seed prompt %s: %w", prompt.PromptID, err)
		}
		applied++
	}
	return applied, nil
}
