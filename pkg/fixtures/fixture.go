// Package fixtures loads and runs YAML scenarios against ordered maps and
// scoped records. A fixture names its maps, types, records and aggregates and
// drives them through a list of steps, each optionally carrying an expectation.
package fixtures

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixture is one parsed scenario file.
type Fixture struct {
	Path        string
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single operation. Which fields apply depends on Op. Node typed
// fields are decoded lazily so absence can be told apart from null.
type Step struct {
	Op string `yaml:"op"`

	Map       string `yaml:"map"`
	Into      string `yaml:"into"`
	Other     string `yaml:"other"`
	Type      string `yaml:"type"`
	Record    string `yaml:"record"`
	Aggregate string `yaml:"aggregate"`
	Child     string `yaml:"child"`
	Target    string `yaml:"target"`
	Attr      string `yaml:"attr"`
	Doc       string `yaml:"doc"`

	KeyAttr      string `yaml:"key_attr"`
	ChildrenAttr string `yaml:"children_attr"`

	Key          yaml.Node `yaml:"key"`
	Value        yaml.Node `yaml:"value"`
	Pairs        yaml.Node `yaml:"pairs"`
	Shared       yaml.Node `yaml:"shared"`
	Owned        yaml.Node `yaml:"owned"`
	Defaults     yaml.Node `yaml:"defaults"`
	From         yaml.Node `yaml:"from"`
	Discriminant yaml.Node `yaml:"discriminant"`
	Rule         *RuleSpec `yaml:"rule"`

	Expect      yaml.Node `yaml:"expect"`
	ExpectError string    `yaml:"expect_error"`
	ExpectTier  string    `yaml:"expect_tier"`
	ExpectLen   *int      `yaml:"expect_len"`
}

// RuleSpec describes a transform: an optional guard on the original entry,
// and rewrites for the key and the value. With Drop set, entries failing the
// guard are left out instead of copied unchanged.
type RuleSpec struct {
	When  yaml.Node `yaml:"when"`
	Key   yaml.Node `yaml:"key"`
	Value yaml.Node `yaml:"value"`
	Drop  bool      `yaml:"drop"`
}

// ValidationError aggregates fixture validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "fixture: invalid configuration"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "fixture %s validation failed:", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadFixture parses and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	if path == "" {
		return nil, fmt.Errorf("fixture: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", absPath, err)
	}
	defer file.Close()
	return ParseFixture(file, absPath)
}

// ParseFixture decodes a fixture from r. path is used for messages only.
func ParseFixture(r io.Reader, path string) (*Fixture, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var fx Fixture
	if err := decoder.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("fixture: %s is empty", path)
		}
		return nil, fmt.Errorf("fixture: parse %s: %w", path, err)
	}
	fx.Path = path
	fx.Name = strings.TrimSpace(fx.Name)
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixtures loads every fixture named by paths. Directories are walked for
// *.yml and *.yaml files, which are loaded in lexical order.
func LoadFixtures(paths ...string) ([]*Fixture, error) {
	files, err := CollectFixtureFiles(paths...)
	if err != nil {
		return nil, err
	}
	out := make([]*Fixture, 0, len(files))
	for _, file := range files {
		fx, err := LoadFixture(file)
		if err != nil {
			return nil, err
		}
		out = append(out, fx)
	}
	return out, nil
}

// CollectFixtureFiles expands paths into a sorted, de-duplicated file list.
func CollectFixtureFiles(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("fixture: stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		var found []string
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if isFixtureFile(d.Name()) {
				found = append(found, filepath.Clean(p))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fixture: walk %s: %w", root, err)
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return files, nil
}

func isFixtureFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

func (fx *Fixture) validate() error {
	errs := ValidationError{Path: fx.Path}
	if fx.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if len(fx.Steps) == 0 {
		errs.Issues = append(errs.Issues, "at least one step is required")
	}
	for i := range fx.Steps {
		for _, issue := range fx.Steps[i].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("steps[%d] (%s): %s", i, fx.Steps[i].Op, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func present(n yaml.Node) bool {
	return n.Kind != 0
}

func (s *Step) validate() []string {
	spec, ok := stepSpecs[s.Op]
	if !ok {
		return []string{fmt.Sprintf("unknown op %q", s.Op)}
	}
	var issues []string
	for _, field := range spec.required {
		if !s.has(field) {
			issues = append(issues, fmt.Sprintf("%s is required", field))
		}
	}
	if s.ExpectError != "" {
		if _, ok := errorCodes[s.ExpectError]; !ok {
			issues = append(issues, fmt.Sprintf("unknown expect_error %q", s.ExpectError))
		}
	}
	if s.ExpectTier != "" && s.ExpectTier != "owned" && s.ExpectTier != "shared" {
		issues = append(issues, fmt.Sprintf("expect_tier must be owned or shared, got %q", s.ExpectTier))
	}
	return issues
}

func (s *Step) has(field string) bool {
	switch field {
	case "map":
		return s.Map != ""
	case "into":
		return s.Into != ""
	case "type":
		return s.Type != ""
	case "record":
		return s.Record != ""
	case "aggregate":
		return s.Aggregate != ""
	case "child":
		return s.Child != ""
	case "target":
		return s.Target != ""
	case "attr":
		return s.Attr != ""
	case "key":
		return present(s.Key)
	case "value":
		return present(s.Value)
	case "from":
		return present(s.From)
	case "discriminant":
		return present(s.Discriminant)
	case "rule":
		return s.Rule != nil
	case "expect":
		return present(s.Expect)
	case "other|pairs":
		return s.Other != "" || present(s.Pairs)
	default:
		return false
	}
}

type stepSpec struct {
	required []string
}

var stepSpecs = map[string]stepSpec{
	"map_new":           {required: []string{"map"}},
	"map_comprehend":    {required: []string{"map", "from", "value"}},
	"map_set":           {required: []string{"map", "key", "value"}},
	"map_delete":        {required: []string{"map", "key"}},
	"map_has":           {required: []string{"map", "key", "expect"}},
	"map_get":           {required: []string{"map", "key"}},
	"map_keys":          {required: []string{"map", "expect"}},
	"map_values":        {required: []string{"map", "expect"}},
	"map_sorted_keys":   {required: []string{"map"}},
	"map_sorted_values": {required: []string{"map"}},
	"map_len":           {required: []string{"map", "expect"}},
	"map_transform":     {required: []string{"map", "into", "rule"}},
	"map_equal":         {required: []string{"map", "other|pairs"}},
	"type_define":       {required: []string{"type"}},
	"type_set":          {required: []string{"type", "attr", "value"}},
	"type_get":          {required: []string{"type", "attr"}},
	"record_new":        {required: []string{"record", "type"}},
	"record_get":        {required: []string{"record", "attr"}},
	"record_set":        {required: []string{"record", "attr", "value"}},
	"record_clear":      {required: []string{"record", "attr"}},
	"record_append":     {required: []string{"record", "attr", "value"}},
	"aggregate_new":     {required: []string{"aggregate", "discriminant"}},
	"aggregate_add":     {required: []string{"aggregate", "discriminant", "child"}},
	"aggregate_list":    {required: []string{"aggregate", "discriminant"}},
	"display":           {required: []string{"target"}},
}
