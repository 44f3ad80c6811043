package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envExpander rewrites ${VAR} references in the string scalars of a YAML
// tree and remembers which variables were unset.
type envExpander struct {
	lookup  func(string) (string, bool)
	missing map[string]struct{}
}

func newEnvExpander(lookup func(string) (string, bool)) *envExpander {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envExpander{lookup: lookup, missing: make(map[string]struct{})}
}

// expandConfigEnv expands raw against the process environment and returns
// the re-encoded document with the sorted names of unset variables.
func expandConfigEnv(raw []byte) (string, []string, error) {
	return newEnvExpander(nil).expand(raw)
}

func (e *envExpander) expand(raw []byte) (string, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}
	e.walk(&root)

	out, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return string(out), e.missingNames(), nil
}

func (e *envExpander) walk(node *yaml.Node) {
	switch node.Kind {
	case yaml.MappingNode:
		// Keys are left alone; only values are expanded.
		for i := 1; i < len(node.Content); i += 2 {
			e.walk(node.Content[i])
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			e.walk(node.Alias)
		}
	case yaml.ScalarNode:
		e.rewrite(node)
	default:
		for _, child := range node.Content {
			e.walk(child)
		}
	}
}

func (e *envExpander) rewrite(node *yaml.Node) {
	if (node.Tag != "" && node.Tag != "!!str") || !strings.Contains(node.Value, "$") {
		return
	}
	value := os.Expand(node.Value, e.resolve)
	if value == node.Value {
		return
	}
	if node.Style != 0 {
		node.Tag, node.Value = "!!str", value
		return
	}
	node.Tag, node.Value = resolveScalar(value)
}

func (e *envExpander) resolve(name string) string {
	if value, ok := e.lookup(name); ok {
		return value
	}
	e.missing[name] = struct{}{}
	return ""
}

func (e *envExpander) missingNames() []string {
	if len(e.missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.missing))
	for name := range e.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveScalar returns the tag and text an unquoted scalar with this value
// would decode as, so ${FLAG} set to "true" becomes a bool.
func resolveScalar(value string) (string, string) {
	trimmed := strings.TrimSpace(value)
	switch trimmed {
	case "":
		return "!!str", value
	case "null", "Null", "NULL", "~":
		return "!!null", "null"
	case "true", "True", "TRUE", "false", "False", "FALSE":
		return "!!bool", strings.ToLower(trimmed)
	}
	if !strings.ContainsAny(trimmed, "0123456789") {
		return "!!str", value
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return "!!int", strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return "!!float", strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "!!str", value
}
