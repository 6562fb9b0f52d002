package voicefed

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const (
	DefaultModelType  = "VoiceBasedEmotionClassifier_CNN_Federated"
	DefaultServerType = "real_federated_learning_server"
	DefaultListener   = "localhost:8083"
	DefaultFeatures   = "MFCC_40"
	DefaultBatchSize  = 5

	UnknownEmotionalState = "unknown_emotional_state"
)

// Profile describes one deployment of the coordinator and prediction service:
// where the model lives, which labels it knows and how they are presented.
type Profile struct {
	Model       ModelConfig       `toml:"model"`
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Emotions    []EmotionConfig   `toml:"emotions"`
}

type ModelConfig struct {
	Name           string    `toml:"name"`
	Dir            string    `toml:"dir"`
	Type           string    `toml:"type"`
	Features       string    `toml:"features"`
	InitialWeights []float64 `toml:"initial_weights"`
}

type CoordinatorConfig struct {
	ServerType      string `toml:"server_type"`
	ListenerAddress string `toml:"listener_address"`
	BatchSize       int    `toml:"batch_size"`
}

type EmotionConfig struct {
	Name       string `toml:"name"`
	Status     string `toml:"status"`
	Severity   string `toml:"severity"`
	Suggestion string `toml:"suggestion"`
}

// Guidance is the mental-health hint attached to a prediction.
type Guidance struct {
	Status     string `json:"status"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion"`
}

func DefaultProfile() Profile {
	return Profile{
		Model: ModelConfig{
			Name:     "global_model",
			Dir:      "models",
			Type:     DefaultModelType,
			Features: DefaultFeatures,
		},
		Coordinator: CoordinatorConfig{
			ServerType:      DefaultServerType,
			ListenerAddress: DefaultListener,
			BatchSize:       DefaultBatchSize,
		},
		Emotions: []EmotionConfig{
			{
				Name:       "Anger",
				Status:     "elevated_stress",
				Severity:   "moderate",
				Suggestion: "Consider anger management techniques and deep breathing exercises",
			},
			{
				Name:       "Fear",
				Status:     "anxiety_symptoms",
				Severity:   "moderate",
				Suggestion: "Try grounding exercises and seek support if needed",
			},
			{
				Name:       "Happy",
				Status:     "positive_emotional_state",
				Severity:   "none",
				Suggestion: "Great! Keep nurturing positive emotions and activities",
			},
			{
				Name:       "Neutral",
				Status:     "balanced_emotional_state",
				Severity:   "none",
				Suggestion: "Maintain emotional balance with self-care practices",
			},
			{
				Name:       "Sad",
				Status:     "low_mood_indicators",
				Severity:   "moderate",
				Suggestion: "Consider reaching out to supportive people and engaging in uplifting activities",
			},
		},
	}
}

// LoadProfile reads a TOML profile. Fields left out of the file keep their
// default values. An empty path returns the default profile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("error reading profile file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Profile{}, fmt.Errorf("error parsing profile file: %w", err)
	}

	var cfg Profile
	if err := tree.Unmarshal(&cfg); err != nil {
		return Profile{}, fmt.Errorf("error unmarshaling profile: %w", err)
	}
	cfg.withDefaults()

	if cfg.Coordinator.BatchSize < 0 {
		return Profile{}, fmt.Errorf("invalid batch size %d", cfg.Coordinator.BatchSize)
	}
	for _, e := range cfg.Emotions {
		if e.Name == "" {
			return Profile{}, errors.New("emotion without a name")
		}
	}

	return cfg, nil
}

func (p *Profile) withDefaults() {
	def := DefaultProfile()

	if p.Model.Name == "" {
		p.Model.Name = def.Model.Name
	}
	if p.Model.Dir == "" {
		p.Model.Dir = def.Model.Dir
	}
	if p.Model.Type == "" {
		p.Model.Type = def.Model.Type
	}
	if p.Model.Features == "" {
		p.Model.Features = def.Model.Features
	}
	if p.Coordinator.ServerType == "" {
		p.Coordinator.ServerType = def.Coordinator.ServerType
	}
	if p.Coordinator.ListenerAddress == "" {
		p.Coordinator.ListenerAddress = def.Coordinator.ListenerAddress
	}
	if p.Coordinator.BatchSize == 0 {
		p.Coordinator.BatchSize = def.Coordinator.BatchSize
	}
	if len(p.Emotions) == 0 {
		p.Emotions = def.Emotions
	}
}

func (p Profile) Vocabulary() []string {
	names := make([]string, len(p.Emotions))
	for i, e := range p.Emotions {
		names[i] = e.Name
	}

	return names
}

func (p Profile) Supports(emotion string) bool {
	for _, e := range p.Emotions {
		if e.Name == emotion {
			return true
		}
	}

	return false
}

func (p Profile) GuidanceFor(emotion string) Guidance {
	for _, e := range p.Emotions {
		if e.Name == emotion {
			return Guidance{
				Status:     e.Status,
				Severity:   e.Severity,
				Suggestion: e.Suggestion,
			}
		}
	}

	return Guidance{
		Status:     UnknownEmotionalState,
		Severity:   "mild",
		Suggestion: "Take time to understand your current feelings",
	}
}
