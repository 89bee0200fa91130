// Package population loads the candidates and slots an allocation runs over.
package population

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/vacancy/internal/domain/model"
)

// ErrLoadPopulation wraps every failure to read or validate a population.
var ErrLoadPopulation = errors.New("load population failed")

// Source supplies the population at startup.
type Source interface {
	Load(ctx context.Context) (model.Population, error)
}

// FileSource reads a population from a YAML or JSON file.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (model.Population, error) {
	return LoadFile(ctx, s.Path)
}

// LoadFile parses path by extension (.json, otherwise YAML) and validates
// the result.
func LoadFile(ctx context.Context, path string) (model.Population, error) {
	if err := ctx.Err(); err != nil {
		return model.Population{}, err
	}
	if path == "" {
		return model.Population{}, fmt.Errorf("%w: no population file configured", ErrLoadPopulation)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Population{}, fmt.Errorf("%w: %w", ErrLoadPopulation, err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(raw, format)
}

// Parse decodes raw as "json" or "yaml" and validates it.
func Parse(raw []byte, format string) (model.Population, error) {
	var pop model.Population
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(raw, &pop)
	default:
		err = yaml.Unmarshal(raw, &pop)
	}
	if err != nil {
		return model.Population{}, fmt.Errorf("%w: decode %s: %w", ErrLoadPopulation, format, err)
	}
	if err := pop.Validate(); err != nil {
		return model.Population{}, fmt.Errorf("%w: %w", ErrLoadPopulation, err)
	}
	return pop, nil
}

// Static is a Source over an in-memory population.
type Static model.Population

// Load implements Source.
func (s Static) Load(ctx context.Context) (model.Population, error) {
	pop := model.Population(s)
	if err := pop.Validate(); err != nil {
		return model.Population{}, fmt.Errorf("%w: %w", ErrLoadPopulation, err)
	}
	return pop, nil
}
