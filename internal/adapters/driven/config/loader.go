// Package config resolves domain.Settings from layered sources.
//
// Precedence, lowest first: built-in defaults, the TOML config file,
// a .env file in the working directory, the process environment and
// finally command-line flags applied with Resolved.Override.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// DefaultDotEnvPath is the .env file read from the working directory.
const DefaultDotEnvPath = ".env"

// Source names the layer a setting was resolved from.
type Source string

// Setting sources, lowest precedence first.
const (
	SourceDefault Source = "default"
	SourceFile    Source = "config file"
	SourceDotEnv  Source = ".env"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// Loader builds Settings from a config store and the environment.
type Loader struct {
	// Store is the TOML config file. Nil skips the file layer.
	Store driven.ConfigStore

	// DotEnvPath is the .env file. Empty skips the .env layer.
	DotEnvPath string

	// LookupEnv reads the environment, os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

// Resolved is the outcome of Load.
type Resolved struct {
	Settings domain.Settings
	Sources  map[string]Source
}

// Entry is one key as shown by `config show`.
type Entry struct {
	Key    string
	Value  string
	Source Source
	Help   string
}

// Load resolves settings. Malformed values fail with
// domain.ErrInvalidConfig naming the key and layer. Range checks are
// left to Settings.Validate so that flags can still fix them.
func (l *Loader) Load() (*Resolved, error) {
	r := &Resolved{
		Settings: domain.DefaultSettings(),
		Sources:  make(map[string]Source, len(keys)),
	}
	for _, k := range keys {
		r.Sources[k.Name] = SourceDefault
	}

	if l.Store != nil {
		for _, k := range keys {
			v, ok := l.Store.Get(k.Name)
			if !ok {
				continue
			}
			if err := r.apply(k, formatStored(v), SourceFile); err != nil {
				return nil, fmt.Errorf("%s: %w", l.Store.Path(), err)
			}
		}
	}

	dotenv, err := l.readDotEnv()
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if v, ok := firstSet(k.Env, mapLookup(dotenv)); ok {
			if err := r.apply(k, v, SourceDotEnv); err != nil {
				return nil, fmt.Errorf("%s: %w", l.DotEnvPath, err)
			}
		}
	}

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, k := range keys {
		if v, ok := firstSet(k.Env, lookup); ok {
			if err := r.apply(k, v, SourceEnv); err != nil {
				return nil, fmt.Errorf("environment: %w", err)
			}
		}
	}

	return r, nil
}

// Override applies a command-line value to a key.
func (r *Resolved) Override(name, raw string) error {
	k, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, name)
	}
	return r.apply(k, raw, SourceFlag)
}

// Entries lists every key with its effective value. Secrets are masked.
func (r *Resolved) Entries() []Entry {
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v := k.get(&r.Settings)
		if k.Secret {
			v = MaskSecret(v)
		}
		entries = append(entries, Entry{
			Key:    k.Name,
			Value:  v,
			Source: r.Sources[k.Name],
			Help:   k.Help,
		})
	}
	return entries
}

func (r *Resolved) apply(k Key, raw string, src Source) error {
	if err := k.set(&r.Settings, raw); err != nil {
		return err
	}
	r.Sources[k.Name] = src
	logger.Debug("config: %s from %s", k.Name, src)
	return nil
}

// readDotEnv parses the .env file without touching the process environment.
func (l *Loader) readDotEnv() (map[string]string, error) {
	if l.DotEnvPath == "" {
		return nil, nil
	}
	values, err := godotenv.Read(l.DotEnvPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, l.DotEnvPath, err)
	}
	return values, nil
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// firstSet returns the first non-empty variable among names.
func firstSet(names []string, lookup func(string) (string, bool)) (string, bool) {
	for _, name := range names {
		if v, ok := lookup(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
