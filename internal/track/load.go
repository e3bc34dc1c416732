package track

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/satindergrewal/entrain/internal/audio"
)

var (
	ErrNoSteps           = errors.New("track has no steps")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// Format is the on-disk encoding of a track file.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor picks YAML for .yaml/.yml paths and JSON otherwise.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// The file types mirror the public model with pointers where a missing key
// means "use the default" and with the alternate key names older files use.

type settingsFile struct {
	SampleRate        *float64 `json:"sample_rate" yaml:"sample_rate"`
	CrossfadeDuration *float64 `json:"crossfade_duration" yaml:"crossfade_duration"`
	CrossfadeCurve    string   `json:"crossfade_curve" yaml:"crossfade_curve"`
	OutputFilename    string   `json:"output_filename" yaml:"output_filename"`
}

type clipFile struct {
	FilePath    string   `json:"file_path" yaml:"file_path"`
	Description string   `json:"description" yaml:"description"`
	Start       *float64 `json:"start" yaml:"start"`
	StartTime   *float64 `json:"start_time" yaml:"start_time"`
	Duration    float64  `json:"duration" yaml:"duration"`
	Amp         *float64 `json:"amp" yaml:"amp"`
	Gain        *float64 `json:"gain" yaml:"gain"`
	Pan         float64  `json:"pan" yaml:"pan"`
	FadeIn      float64  `json:"fade_in" yaml:"fade_in"`
	FadeOut     float64  `json:"fade_out" yaml:"fade_out"`
}

type stepFile struct {
	Duration    *float64 `json:"duration" yaml:"duration"`
	Description string   `json:"description" yaml:"description"`
	Voices      *[]Voice `json:"voices" yaml:"voices"`
}

type trackFile struct {
	Settings        *settingsFile   `json:"global_settings" yaml:"global_settings"`
	BackgroundNoise BackgroundNoise `json:"background_noise" yaml:"background_noise"`
	Clips           []clipFile      `json:"clips" yaml:"clips"`
	Steps           []stepFile      `json:"steps" yaml:"steps"`
}

func decode(data []byte, f Format, v any) error {
	if f == YAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func first(def float64, vs ...*float64) float64 {
	for _, v := range vs {
		if v != nil {
			return *v
		}
	}
	return def
}

// Parse decodes a track. Missing settings take their defaults.
func Parse(data []byte, f Format) (*Track, error) {
	var tf trackFile
	if err := decode(data, f, &tf); err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}

	t := &Track{Settings: DefaultSettings(), BackgroundNoise: tf.BackgroundNoise}
	if s := tf.Settings; s != nil {
		t.Settings.SampleRate = first(DefaultSampleRate, s.SampleRate)
		t.Settings.CrossfadeDuration = first(DefaultCrossfade, s.CrossfadeDuration)
		t.Settings.CrossfadeCurve = audio.ParseFadeCurve(s.CrossfadeCurve)
		if s.OutputFilename != "" {
			t.Settings.OutputFilename = s.OutputFilename
		}
	}
	if t.Settings.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, t.Settings.SampleRate)
	}
	t.Settings.CrossfadeDuration = max(0, t.Settings.CrossfadeDuration)

	for _, c := range tf.Clips {
		t.Clips = append(t.Clips, Clip{
			FilePath:    c.FilePath,
			Description: c.Description,
			Start:       first(0, c.Start, c.StartTime),
			Duration:    c.Duration,
			Amp:         first(1, c.Amp, c.Gain),
			Pan:         c.Pan,
			FadeIn:      c.FadeIn,
			FadeOut:     c.FadeOut,
		})
	}

	for _, s := range tf.Steps {
		t.Steps = append(t.Steps, s.step())
	}
	if len(t.Steps) == 0 {
		return nil, ErrNoSteps
	}
	return t, nil
}

func (s stepFile) step() Step {
	st := Step{Duration: first(0, s.Duration), Description: s.Description}
	if s.Voices != nil {
		st.Voices = *s.Voices
	}
	return st
}

// Load reads a JSON or YAML track file, chosen by extension.
func Load(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track %s: %w", path, err)
	}
	t, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(logrus.Fields{
		"path":  path,
		"steps": len(t.Steps),
		"clips": len(t.Clips),
	}).Debug("Track loaded")
	return t, nil
}

// LoadExternalSteps reads the top-level steps array of a track file and
// returns the entries that carry both a duration and a voices list.
func LoadExternalSteps(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read steps %s: %w", path, err)
	}
	var tf struct {
		Steps []stepFile `json:"steps" yaml:"steps"`
	}
	if err := decode(data, FormatFor(path), &tf); err != nil {
		return nil, fmt.Errorf("parse steps %s: %w", path, err)
	}

	var steps []Step
	for i, s := range tf.Steps {
		if s.Duration == nil || s.Voices == nil {
			log.WithFields(logrus.Fields{"path": path, "index": i}).
				Warn("Skipping step without duration or voices")
			continue
		}
		steps = append(steps, s.step())
	}
	return steps, nil
}

// Marshal encodes t in the given format.
func Marshal(t *Track, f Format) ([]byte, error) {
	if f == YAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(t, "", "  ")
}

// Save writes t to path, choosing the format by extension.
func Save(t *Track, path string) error {
	data, err := Marshal(t, FormatFor(path))
	if err != nil {
		return fmt.Errorf("encode track: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write track %s: %w", path, err)
	}
	return nil
}

// MarshalJSON writes the point as a [time, amp] pair.
func (p EnvelopePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Time, p.Amp})
}

func (p *EnvelopePoint) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	return p.set(pair)
}

func (p EnvelopePoint) MarshalYAML() (any, error) {
	return []float64{p.Time, p.Amp}, nil
}

func (p *EnvelopePoint) UnmarshalYAML(node *yaml.Node) error {
	var pair []float64
	if err := node.Decode(&pair); err != nil {
		return err
	}
	return p.set(pair)
}

func (p *EnvelopePoint) set(pair []float64) error {
	if len(pair) < 2 {
		return fmt.Errorf("envelope point needs [time, amp], got %v", pair)
	}
	p.Time, p.Amp = pair[0], pair[1]
	return nil
}
