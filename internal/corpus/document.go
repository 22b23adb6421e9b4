package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/certmap/internal/model"
)

// Document files hold either a bare list of records or a mapping with the
// list under a named key ("provisions", "questions", "judgments", "answers").

// YAMLLoader reads .yaml and .yml documents
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML loader
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

func (l *YAMLLoader) Name() string         { return "yaml" }
func (l *YAMLLoader) Extensions() []string { return []string{".yaml", ".yml"} }

func (l *YAMLLoader) LoadProvisions(r io.Reader) ([]model.Provision, error) {
	records, err := decodeYAMLList[provisionRecord](r, "provisions")
	if err != nil {
		return nil, err
	}
	return convertProvisions(records)
}

func (l *YAMLLoader) LoadQuestions(r io.Reader) ([]model.Question, error) {
	records, err := decodeYAMLList[questionRecord](r, "questions")
	if err != nil {
		return nil, err
	}
	return convertQuestions(records), nil
}

func (l *YAMLLoader) LoadJudgments(r io.Reader) ([]model.ComplianceJudgment, error) {
	records, err := decodeYAMLList[judgmentRecord](r, "judgments")
	if err != nil {
		return nil, err
	}
	return convertJudgments(records)
}

func (l *YAMLLoader) LoadAnswers(r io.Reader) ([]model.Answer, error) {
	records, err := decodeYAMLList[answerRecord](r, "answers")
	if err != nil {
		return nil, err
	}
	return convertAnswers(records)
}

func decodeYAMLList[T any](r io.Reader, key string) ([]T, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	var items []T
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return items, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value != key {
				continue
			}
			if err := root.Content[i+1].Decode(&items); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			return items, nil
		}
		return nil, fmt.Errorf("document has no %q list", key)
	default:
		return nil, fmt.Errorf("expected a list or a %q mapping", key)
	}
}

// JSONLoader reads .json documents
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

func (l *JSONLoader) Name() string         { return "json" }
func (l *JSONLoader) Extensions() []string { return []string{".json"} }

func (l *JSONLoader) LoadProvisions(r io.Reader) ([]model.Provision, error) {
	records, err := decodeJSONList[provisionRecord](r, "provisions")
	if err != nil {
		return nil, err
	}
	return convertProvisions(records)
}

func (l *JSONLoader) LoadQuestions(r io.Reader) ([]model.Question, error) {
	records, err := decodeJSONList[questionRecord](r, "questions")
	if err != nil {
		return nil, err
	}
	return convertQuestions(records), nil
}

func (l *JSONLoader) LoadJudgments(r io.Reader) ([]model.ComplianceJudgment, error) {
	records, err := decodeJSONList[judgmentRecord](r, "judgments")
	if err != nil {
		return nil, err
	}
	return convertJudgments(records)
}

func (l *JSONLoader) LoadAnswers(r io.Reader) ([]model.Answer, error) {
	records, err := decodeJSONList[answerRecord](r, "answers")
	if err != nil {
		return nil, err
	}
	return convertAnswers(records)
}

func decodeJSONList[T any](r io.Reader, key string) ([]T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var items []T
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return items, nil
	case '{':
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		raw, ok := wrapped[key]
		if !ok {
			return nil, fmt.Errorf("document has no %q list", key)
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected a list or a %q object", key)
	}
}

func convertJudgments(records []judgmentRecord) ([]model.ComplianceJudgment, error) {
	out := make([]model.ComplianceJudgment, 0, len(records))
	for i, r := range records {
		j, err := r.toModel(i)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func convertAnswers(records []answerRecord) ([]model.Answer, error) {
	out := make([]model.Answer, 0, len(records))
	for i, r := range records {
		a, err := r.toModel(i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
