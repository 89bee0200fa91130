package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/okian/vacancy/internal/adapters/repository"
	"github.com/okian/vacancy/internal/domain/allocation"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/preference"
	"github.com/okian/vacancy/internal/domain/ranking"
	"github.com/okian/vacancy/internal/population"
)

// inputFlags are shared by allocate and validate.
type inputFlags struct {
	population  string
	preferences string
	sqlite      string
	policy      string
}

// inputs is a population with its ranking and the preference lists that
// passed validation.
type inputs struct {
	pop      model.Population
	ranks    *ranking.Model
	prefs    *preference.Store
	rejected []error
}

func (in *inputs) allocation() allocation.Input {
	return allocation.Input{
		Order:       in.ranks.Order(),
		Preferences: in.prefs.Snapshot(),
		Capacities:  in.pop.Capacities(),
	}
}

// load reads the population, then preference lists from the SQLite cache and
// the preferences file, the file winning on conflicts. Invalid lists are
// collected in rejected rather than failing the load.
func (f *inputFlags) load(ctx context.Context) (*inputs, error) {
	pop, err := population.LoadFile(ctx, f.population)
	if err != nil {
		return nil, err
	}
	ranks, err := ranking.New(pop.Candidates)
	if err != nil {
		return nil, err
	}
	policy, err := preference.ParsePolicy(f.policy)
	if err != nil {
		return nil, err
	}

	lists := make(map[string]model.PreferenceList)
	if f.sqlite != "" {
		cache, err := repository.NewSQLiteStore(ctx, f.sqlite)
		if err != nil {
			return nil, err
		}
		stored, err := cache.LoadPreferences(ctx)
		_ = cache.Close()
		if err != nil {
			return nil, err
		}
		for id, l := range stored {
			lists[id] = l
		}
	}
	if f.preferences != "" {
		raw, err := os.ReadFile(f.preferences)
		if err != nil {
			return nil, err
		}
		var fromFile map[string][]string
		if err := yaml.Unmarshal(raw, &fromFile); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.preferences, err)
		}
		for id, l := range fromFile {
			lists[id] = l
		}
	}

	in := &inputs{
		pop:   pop,
		ranks: ranks,
		prefs: preference.New(pop.Slots, ranks, preference.WithPolicy(policy)),
	}
	ids := make([]string, 0, len(lists))
	for id := range lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := in.prefs.Set(id, lists[id]); err != nil {
			in.rejected = append(in.rejected, err)
		}
	}
	return in, nil
}
