package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Policy holds the escalation knobs for one pipeline run. Stage
// thresholds gate continuation to the next stage; the escalation bound
// independently gates whether the LLM stage runs even after an earlier
// success.
type Policy struct {
	// InternetThreshold is the minimum confidence for the web-search
	// stage to count as a success.
	InternetThreshold float64 `yaml:"internet_threshold"`

	// GoogleThreshold is the minimum confidence for the curated-API
	// stage to count as a success.
	GoogleThreshold float64 `yaml:"google_threshold"`

	// LLMEscalationBelow runs the LLM stage whenever the best
	// confidence so far is under this bound, success or not.
	LLMEscalationBelow float64 `yaml:"llm_escalation_below"`

	// LLMOverrideSuccess lets an LLM candidate replace an earlier
	// stage's success candidate. When false the LLM result only
	// competes with low-confidence candidates.
	LLMOverrideSuccess bool `yaml:"llm_override_success"`

	// CacheHintSimilarity is the minimum hint agreement (0-100) for a
	// prior resolution to short-circuit the pipeline.
	CacheHintSimilarity float64 `yaml:"cache_hint_similarity"`

	// MaxResults is how many results each provider is asked for.
	MaxResults int `yaml:"max_results"`

	// Concurrency bounds simultaneous resolutions in a batch.
	Concurrency int `yaml:"concurrency"`
}

// DefaultPolicy returns the stock escalation policy.
func DefaultPolicy() Policy {
	return Policy{
		InternetThreshold:   0.75,
		GoogleThreshold:     0.67,
		LLMEscalationBelow:  0.80,
		LLMOverrideSuccess:  false,
		CacheHintSimilarity: 70,
		MaxResults:          5,
		Concurrency:         3,
	}
}

// LoadPolicy reads a policy from a YAML file. Zero-valued knobs fall
// back to the defaults so a partial file only overrides what it names.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, eris.Wrapf(err, "pipeline: read policy %s", path)
	}

	var wrapper struct {
		Pipeline Policy `yaml:"pipeline"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Policy{}, eris.Wrap(err, "pipeline: parse policy")
	}

	p := wrapper.Pipeline
	def := DefaultPolicy()
	if p.InternetThreshold == 0 {
		p.InternetThreshold = def.InternetThreshold
	}
	if p.GoogleThreshold == 0 {
		p.GoogleThreshold = def.GoogleThreshold
	}
	if p.LLMEscalationBelow == 0 {
		p.LLMEscalationBelow = def.LLMEscalationBelow
	}
	if p.CacheHintSimilarity == 0 {
		p.CacheHintSimilarity = def.CacheHintSimilarity
	}
	if p.MaxResults == 0 {
		p.MaxResults = def.MaxResults
	}
	if p.Concurrency == 0 {
		p.Concurrency = def.Concurrency
	}
	return p, nil
}
