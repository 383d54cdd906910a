// Package uci implements the UCIStore port with the OpenWrt `uci`
// command line tool. Mutations are staged through uci immediately and
// mirrored into an in-process cache so reads see them before commit.
package uci

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

const commandTimeout = 10 * time.Second

// commandRunner executes an external command and returns its combined
// output. Tests inject fakes.
type commandRunner interface {
	run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, commandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// serviceFor maps a UCI config to the init script that consumes it.
var serviceFor = map[string]string{
	out.UCINetwork:  "network",
	out.UCIFirewall: "firewall",
}

// Store is the exec-backed UCIStore.
type Store struct {
	runner commandRunner
	mu     sync.Mutex
	cache  map[string][]*out.UCISection
	log    *logger.Logger
}

// NewStore returns a Store that shells out to uci.
func NewStore() *Store {
	return &Store{
		runner: execRunner{},
		cache:  make(map[string][]*out.UCISection),
		log:    logger.GetLogger(),
	}
}

func (s *Store) uci(ctx context.Context, args ...string) (string, error) {
	return s.runner.run(ctx, "uci", args...)
}

// Load reads config through `uci show` into the cache.
func (s *Store) Load(ctx context.Context, config string) error {
	output, err := s.uci(ctx, "-q", "show", config)
	if err != nil {
		return fmt.Errorf("failed to load uci config %s: %w", config, err)
	}

	sections, err := parseShow(config, output)
	if err != nil {
		return fmt.Errorf("failed to parse uci config %s: %w", config, err)
	}

	s.mu.Lock()
	s.cache[config] = sections
	s.mu.Unlock()

	s.log.Debug("uci config loaded", "config", config, "sections", len(sections))
	return nil
}

func (s *Store) loaded(ctx context.Context, config string) ([]*out.UCISection, error) {
	s.mu.Lock()
	sections, ok := s.cache[config]
	s.mu.Unlock()
	if ok {
		return sections, nil
	}

	if err := s.Load(ctx, config); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[config], nil
}

// Sections returns the sections of sectionType in config order.
func (s *Store) Sections(ctx context.Context, config, sectionType string) ([]out.UCISection, error) {
	sections, err := s.loaded(ctx, config)
	if err != nil {
		return nil, err
	}

	result := []out.UCISection{}
	for _, section := range sections {
		if section.Type == sectionType {
			result = append(result, *section)
		}
	}
	return result, nil
}

// Section returns the section named name, or nil when absent.
func (s *Store) Section(ctx context.Context, config, name string) (*out.UCISection, error) {
	section, err := s.find(ctx, config, name)
	if err != nil || section == nil {
		return nil, err
	}
	copied := *section
	return &copied, nil
}

func (s *Store) find(ctx context.Context, config, name string) (*out.UCISection, error) {
	sections, err := s.loaded(ctx, config)
	if err != nil {
		return nil, err
	}
	for _, section := range sections {
		if section.Name == name {
			return section, nil
		}
	}
	return nil, nil
}

// Get returns the value of an option, or an unset value when the
// section or option does not exist.
func (s *Store) Get(ctx context.Context, config, section, option string) (out.UCIValue, error) {
	found, err := s.find(ctx, config, section)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	return found.Options[option], nil
}

// Set stages an option value. Multi-element values are written as UCI
// lists, single-element ones as scalars, and empty ones delete the
// option.
func (s *Store) Set(ctx context.Context, config, section, option string, value out.UCIValue) error {
	key := fmt.Sprintf("%s.%s.%s", config, section, option)

	switch len(value) {
	case 0:
		// Absent options make delete fail; -q swallows that.
		if _, err := s.uci(ctx, "-q", "delete", key); err != nil {
			s.log.Debug("uci delete of unset option", "key", key)
		}
	case 1:
		if _, err := s.uci(ctx, "set", key+"="+value[0]); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	default:
		if _, err := s.uci(ctx, "-q", "delete", key); err != nil {
			s.log.Debug("uci delete before list rewrite", "key", key)
		}
		for _, item := range value {
			if _, err := s.uci(ctx, "add_list", key+"="+item); err != nil {
				return fmt.Errorf("failed to append to list %s: %w", key, err)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cached := range s.cache[config] {
		if cached.Name == section {
			if len(value) == 0 {
				delete(cached.Options, option)
			} else {
				cached.Options[option] = value
			}
			break
		}
	}
	return nil
}

// CreateSection creates a section. A named section is created in place;
// an anonymous one returns the id uci generated for it.
func (s *Store) CreateSection(ctx context.Context, config, sectionType, name string) (string, error) {
	id := name
	if name == "" {
		output, err := s.uci(ctx, "add", config, sectionType)
		if err != nil {
			return "", fmt.Errorf("failed to add %s section to %s: %w", sectionType, config, err)
		}
		id = strings.TrimSpace(output)
		if id == "" {
			return "", fmt.Errorf("uci add %s %s returned no section id", config, sectionType)
		}
	} else {
		if _, err := s.uci(ctx, "set", fmt.Sprintf("%s.%s=%s", config, name, sectionType)); err != nil {
			return "", fmt.Errorf("failed to create section %s.%s: %w", config, name, err)
		}
	}

	s.mu.Lock()
	s.cache[config] = append(s.cache[config], &out.UCISection{
		Name:    id,
		Type:    sectionType,
		Options: map[string]out.UCIValue{},
	})
	s.mu.Unlock()

	s.log.Debug("uci section created", "config", config, "type", sectionType, "section", id)
	return id, nil
}

// DeleteSection stages removal of a section.
func (s *Store) DeleteSection(ctx context.Context, config, section string) error {
	if _, err := s.uci(ctx, "delete", fmt.Sprintf("%s.%s", config, section)); err != nil {
		return fmt.Errorf("failed to delete section %s.%s: %w", config, section, err)
	}

	s.mu.Lock()
	sections := s.cache[config]
	for i, cached := range sections {
		if cached.Name == section {
			s.cache[config] = append(sections[:i:i], sections[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.log.Debug("uci section deleted", "config", config, "section", section)
	return nil
}

// Save commits staged changes of config to disk.
func (s *Store) Save(ctx context.Context, config string) error {
	if _, err := s.uci(ctx, "commit", config); err != nil {
		return fmt.Errorf("failed to commit uci config %s: %w", config, err)
	}
	s.log.Debug("uci config committed", "config", config)
	return nil
}

// Apply reloads the service that consumes config so committed changes
// take effect. rollbackTimeout bounds how long the reload may take; the
// exec transport has no confirmation channel, so an expired window
// surfaces as a reload error rather than an automatic revert.
func (s *Store) Apply(ctx context.Context, config string, rollbackTimeout int) error {
	service, ok := serviceFor[config]
	if !ok {
		return fmt.Errorf("no service mapped for uci config %s", config)
	}

	applyCtx := ctx
	if rollbackTimeout > 0 {
		var cancel context.CancelFunc
		applyCtx, cancel = context.WithTimeout(ctx, time.Duration(rollbackTimeout)*time.Second)
		defer cancel()
	}

	if _, err := s.runner.run(applyCtx, "/etc/init.d/"+service, "reload"); err != nil {
		return fmt.Errorf("failed to reload %s: %w", service, err)
	}
	s.log.Debug("uci config applied", "config", config, "service", service)
	return nil
}

// FlushCache drops all cached configs.
func (s *Store) FlushCache(ctx context.Context) error {
	s.mu.Lock()
	s.cache = make(map[string][]*out.UCISection)
	s.mu.Unlock()
	return nil
}
