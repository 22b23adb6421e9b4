package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no loader handles
	ErrUnsupportedFormat = errors.New("unsupported corpus format")
	// ErrNotSupported is returned when a loader cannot carry the requested record type
	ErrNotSupported = errors.New("record type not supported by format")
)

// Loader decodes corpus records from one file format
type Loader interface {
	// Name returns the format name
	Name() string

	// Extensions lists the lower-case file extensions handled, with the dot
	Extensions() []string

	LoadProvisions(r io.Reader) ([]model.Provision, error)
	LoadQuestions(r io.Reader) ([]model.Question, error)
}

// DocumentLoader is implemented by formats that can carry nested records
type DocumentLoader interface {
	Loader
	LoadJudgments(r io.Reader) ([]model.ComplianceJudgment, error)
	LoadAnswers(r io.Reader) ([]model.Answer, error)
}

// Registry maps file extensions to loaders
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates a registry with the built-in yaml, json, csv and html loaders
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(NewYAMLLoader())
	r.Register(NewJSONLoader())
	r.Register(NewCSVLoader())
	r.Register(NewHTMLLoader())
	return r
}

// Register adds a loader; later registrations replace earlier ones per extension
func (r *Registry) Register(l Loader) {
	for _, ext := range l.Extensions() {
		r.loaders[ext] = l
	}
}

// Find returns the loader for a path
func (r *Registry) Find(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := r.loaders[ext]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(r.Extensions(), ", "))
}

// Extensions lists the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// LoadProvisions reads a provision corpus from path
func (r *Registry) LoadProvisions(path string) ([]model.Provision, error) {
	var out []model.Provision
	err := r.withLoader(path, func(l Loader, f io.Reader) (err error) {
		out, err = l.LoadProvisions(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load provisions: %w", err)
	}
	return out, nil
}

// LoadQuestions reads audit questions from path
func (r *Registry) LoadQuestions(path string) ([]model.Question, error) {
	var out []model.Question
	err := r.withLoader(path, func(l Loader, f io.Reader) (err error) {
		out, err = l.LoadQuestions(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}

// LoadJudgments reads compliance judgments from a yaml or json file
func (r *Registry) LoadJudgments(path string) ([]model.ComplianceJudgment, error) {
	var out []model.ComplianceJudgment
	err := r.withDocumentLoader(path, func(l DocumentLoader, f io.Reader) (err error) {
		out, err = l.LoadJudgments(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load judgments: %w", err)
	}
	return out, nil
}

// LoadAnswers reads question answers from a yaml or json file
func (r *Registry) LoadAnswers(path string) ([]model.Answer, error) {
	var out []model.Answer
	err := r.withDocumentLoader(path, func(l DocumentLoader, f io.Reader) (err error) {
		out, err = l.LoadAnswers(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return out, nil
}

func (r *Registry) withLoader(path string, fn func(Loader, io.Reader) error) error {
	l, err := r.Find(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := fn(l, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (r *Registry) withDocumentLoader(path string, fn func(DocumentLoader, io.Reader) error) error {
	return r.withLoader(path, func(l Loader, f io.Reader) error {
		dl, ok := l.(DocumentLoader)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotSupported, l.Name())
		}
		return fn(dl, f)
	})
}

var defaultRegistry = NewRegistry()

// LoadProvisions reads a provision corpus using the built-in loaders
func LoadProvisions(path string) ([]model.Provision, error) {
	return defaultRegistry.LoadProvisions(path)
}

// LoadQuestions reads audit questions using the built-in loaders
func LoadQuestions(path string) ([]model.Question, error) {
	return defaultRegistry.LoadQuestions(path)
}

// LoadJudgments reads compliance judgments using the built-in loaders
func LoadJudgments(path string) ([]model.ComplianceJudgment, error) {
	return defaultRegistry.LoadJudgments(path)
}

// LoadAnswers reads question answers using the built-in loaders
func LoadAnswers(path string) ([]model.Answer, error) {
	return defaultRegistry.LoadAnswers(path)
}
