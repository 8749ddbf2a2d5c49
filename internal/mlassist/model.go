// Package mlassist is the statistical extension point of the classifier: an
// optional ONNX text model that scores a response for decisiveness-style
// labels. Scores are advisory. They are surfaced in audit events only and
// never change the rule-based verdict, which keeps classification
// deterministic.
package mlassist

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gopkg.in/yaml.v3"
)

// LabelThresholds represents warn/flag cutoffs for one label.
type LabelThresholds struct {
	Warn *float32 `yaml:"warn" json:"warn"`
	Flag *float32 `yaml:"flag" json:"flag"`
}

// Result captures raw scores and derived flags.
type Result struct {
	Scores map[string]float32 `json:"scores"`
	Flags  []string           `json:"flags"`
}

// Model wraps the ONNX session and tokenizer.
type Model struct {
	session    *ort.AdvancedSession
	tokenizer  *WordPieceTokenizer
	labels     []string
	thresholds map[string]LabelThresholds
	seqLen     int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadModel initializes the ONNX session, tokenizer, and thresholds from a
// model bundle directory.
func LoadModel(bundleDir string, seqLen int) (*Model, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	if seqLen <= 0 {
		seqLen = 256
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "decisiveness_v1.onnx")
	labelsPath := filepath.Join(bundleDir, "labels.yaml")
	vocabPath := filepath.Join(bundleDir, "tokenizer", "vocab.txt")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	labels, thresholds, err := loadLabels(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	tokenizer, err := LoadWordPieceTokenizer(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	outputShape := ort.NewShape(1, int64(len(labels)))
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Model{
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		thresholds:    thresholds,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

// Score runs inference on a raw response text.
func (m *Model) Score(text string) (*Result, error) {
	if m == nil || m.session == nil || m.tokenizer == nil {
		return nil, errors.New("ml assist model not initialized")
	}

	inputIDs, attn := m.tokenizer.Encode(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputIDs.GetData(), inputIDs)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := m.output.GetData()
	scores := make(map[string]float32, len(m.labels))
	flags := []string{}

	for i, logit := range raw {
		if i >= len(m.labels) {
			break
		}
		label := m.labels[i]
		score := float32(1.0 / (1.0 + math.Exp(-float64(logit))))
		scores[label] = score

		if th, ok := m.thresholds[label]; ok {
			if th.Flag != nil && score >= *th.Flag {
				flags = append(flags, label+"_high")
			} else if th.Warn != nil && score >= *th.Warn {
				flags = append(flags, label+"_medium")
			}
		}
	}

	return &Result{
		Scores: scores,
		Flags:  flags,
	}, nil
}

type labelsFile struct {
	Labels     []string                   `yaml:"labels"`
	Thresholds map[string]LabelThresholds `yaml:"thresholds"`
}

func loadLabels(path string) ([]string, map[string]LabelThresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var lf labelsFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, nil, err
	}
	if len(lf.Labels) == 0 {
		return nil, nil, errors.New("labels file defines no labels")
	}
	if lf.Thresholds == nil {
		lf.Thresholds = make(map[string]LabelThresholds)
	}
	return lf.Labels, lf.Thresholds, nil
}

// resolveSharedLibraryPath attempts to locate a platform-specific onnxruntime shared library.
// If ONNXRUNTIME_SHARED_LIBRARY_PATH is set, it wins; otherwise we probe common names/locations.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
