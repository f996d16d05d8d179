// Package questions loads the interview kit: the job context the coach is
// primed with and the fixed question bank for each stage.
package questions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
)

//go:embed kit.yaml
var defaultKit []byte

// Value is one company value with its cheat-sheet blurb.
type Value struct {
	Name  string `yaml:"name" json:"name"`
	Blurb string `yaml:"blurb" json:"blurb"`
}

// JobContext describes the role the candidate is practicing for.
type JobContext struct {
	Company   string  `yaml:"company" json:"company"`
	Title     string  `yaml:"title" json:"title"` // short role name for the coach persona; defaults to Role
	Role      string  `yaml:"role" json:"role"`
	Program   string  `yaml:"program" json:"program"`
	Traits    string  `yaml:"traits" json:"traits"`
	Specialty string  `yaml:"specialty" json:"specialty"`
	Values    []Value `yaml:"values" json:"values"`
}

// Kit is the complete, immutable interview kit.
type Kit struct {
	Context JobContext      `yaml:"context" json:"context"`
	Stages  []message.Stage `yaml:"stages" json:"stages"`
}

// Vocabulary lists the proper nouns an answer is likely to mention, as a
// comma-separated hint for speech recognition.
func (k *Kit) Vocabulary() string {
	words := []string{k.Context.Company}
	for _, v := range k.Context.Values {
		words = append(words, v.Name)
	}
	return strings.Join(words, ", ")
}

// Default returns the embedded kit.
func Default() (*Kit, error) {
	return Parse(defaultKit)
}

// Load reads a kit from a YAML file. An empty path returns the embedded kit.
func Load(path string) (*Kit, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kit %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a kit.
func Parse(data []byte) (*Kit, error) {
	var kit Kit
	if err := yaml.Unmarshal(data, &kit); err != nil {
		return nil, fmt.Errorf("parsing kit yaml: %w", err)
	}
	if err := kit.validate(); err != nil {
		return nil, fmt.Errorf("invalid kit: %w", err)
	}
	return &kit, nil
}

func (k *Kit) validate() error {
	if k.Context.Company == "" || k.Context.Role == "" {
		return fmt.Errorf("context must name a company and a role")
	}
	if len(k.Stages) == 0 {
		return fmt.Errorf("no stages defined")
	}
	seen := make(map[string]bool, len(k.Stages))
	for i, s := range k.Stages {
		if s.ID == "" {
			return fmt.Errorf("stage %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate stage id %q", s.ID)
		}
		seen[s.ID] = true
		if s.PromptLabel == "" {
			return fmt.Errorf("stage %q has no prompt_label", s.ID)
		}
		if len(s.Questions) == 0 {
			return fmt.Errorf("stage %q has no questions", s.ID)
		}
	}
	return nil
}

// Stage returns the stage with the given ID.
func (k *Kit) Stage(id string) (message.Stage, bool) {
	for _, s := range k.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return message.Stage{}, false
}

// Question resolves a stage and question index.
func (k *Kit) Question(stageID string, index int) (message.Stage, string, error) {
	stage, ok := k.Stage(stageID)
	if !ok {
		return message.Stage{}, "", fmt.Errorf("unknown stage %q", stageID)
	}
	if index < 0 || index >= len(stage.Questions) {
		return message.Stage{}, "", fmt.Errorf("question index %d out of range for stage %q (%d questions)", index, stageID, len(stage.Questions))
	}
	return stage, stage.Questions[index], nil
}
