package uci

import (
	"fmt"
	"strings"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
)

// parseShow parses `uci show <config>` output into sections, preserving
// config order. Lines come in two shapes:
//
//	network.lan=interface
//	network.lan.proto='static'
//
// Anonymous sections keep the @type[n] selector uci prints for them.
// List options render as multiple quoted items on one line; both list
// and scalar values land in UCIValue.
func parseShow(config, output string) ([]*out.UCISection, error) {
	sections := []*out.UCISection{}
	byName := map[string]*out.UCISection{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("malformed uci line %q", line)
		}
		if !strings.HasPrefix(key, config+".") {
			continue
		}
		key = strings.TrimPrefix(key, config+".")

		sectionName, option, hasOption := strings.Cut(key, ".")
		if !hasOption {
			section := &out.UCISection{
				Name:    sectionName,
				Type:    value,
				Options: map[string]out.UCIValue{},
			}
			sections = append(sections, section)
			byName[sectionName] = section
			continue
		}

		section, ok := byName[sectionName]
		if !ok {
			return nil, fmt.Errorf("option %q before its section definition", line)
		}
		section.Options[option] = parseValue(value)
	}

	return sections, nil
}

// parseValue splits a uci show value into its quoted items. Unquoted
// values are taken verbatim as a scalar.
func parseValue(raw string) out.UCIValue {
	if !strings.HasPrefix(raw, "'") {
		return out.UCIValue{raw}
	}

	items := []string{}
	rest := raw
	for strings.HasPrefix(rest, "'") {
		rest = rest[1:]
		end := strings.Index(rest, "'")
		if end < 0 {
			items = append(items, rest)
			break
		}
		items = append(items, rest[:end])
		rest = strings.TrimLeft(rest[end+1:], " ")
	}
	return out.UCIValue(items)
}
