package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario drives one companion profile through a sequence of actions on a
// controlled clock and checks the outcomes, the emitted signals and the
// durable state left behind.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the initial clock reading, RFC3339 or local "2026-01-12T07:00".
	Now string `yaml:"now"`

	// Data is a data directory to load the catalog from. Relative paths are
	// resolved against the scenario file. Empty means the built-in fixture.
	Data string `yaml:"data,omitempty"`

	// Schedule is an optional CUE schedule file, resolved like Data. Empty
	// means the fixture calendar.
	Schedule string `yaml:"schedule,omitempty"`

	// Seed writes raw key-value pairs before the session is first loaded.
	Seed map[string]string `yaml:"seed,omitempty"`

	// Flow lists the actions to perform, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the signals and the final state.
	Assertions []Assertion `yaml:"assertions"`

	// FlowToken is the fixed flow token stamped on every action.
	// Defaults to "test-flow-default".
	FlowToken string `yaml:"flow_token,omitempty"`
}

// FlowStep performs one action.
type FlowStep struct {
	// Invoke names the action, e.g. "configure_stamp".
	Invoke string `yaml:"invoke"`

	// Args are the action's arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect checks the action's outcome. Nil means the action must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Case is one of ok, locked, expired, validation, error.
	Case string `yaml:"case"`

	// Notice, when set, must equal the user-facing notice exactly.
	Notice string `yaml:"notice,omitempty"`
}

// Assertion validates the signals or the final state.
type Assertion struct {
	// Type is one of signal_contains, signal_order, signal_count, final_state.
	Type string `yaml:"type"`

	// Kind is the signal kind (signal_contains, signal_count).
	Kind string `yaml:"kind,omitempty"`

	// Fields are matched against the signal (signal_contains, subset match).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Count is the exact number of signals of Kind (signal_count).
	Count int `yaml:"count,omitempty"`

	// Kinds must appear in this order, not necessarily adjacent (signal_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Expect is matched against the final state snapshot (final_state,
	// subset match).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertSignalContains = "signal_contains"
	AssertSignalOrder    = "signal_order"
	AssertSignalCount    = "signal_count"
	AssertFinalState     = "final_state"
)

// Outcome cases.
const (
	CaseOK         = "ok"
	CaseLocked     = "locked"
	CaseExpired    = "expired"
	CaseValidation = "validation"
	CaseError      = "error"
)

var validCases = map[string]bool{
	CaseOK: true, CaseLocked: true, CaseExpired: true, CaseValidation: true, CaseError: true,
}

// requiredArgs lists every action and the arguments it cannot do without.
var requiredArgs = map[string][]string{
	"onboard":          {"name"},
	"switch_day":       {"day"},
	"restore":          {"day"},
	"tick":             nil,
	"set_clock":        {"now"},
	"advance":          {"by"},
	"toggle_mission":   {"id"},
	"configure_stamp":  {"activity", "target", "option"},
	"attach_photo":     {"activity", "data"},
	"remove_photo":     {"activity"},
	"complete_stamp":   {"activity"},
	"save_draft":       {"text"},
	"submit_testimony": {"text"},
	"edit_testimony":   nil,
	"submit_survey":    {"satisfaction"},
	"share":            nil,
	"reload":           nil,
}

// Actions returns the names of every supported action, sorted.
func Actions() []string {
	names := make([]string, 0, len(requiredArgs))
	for name := range requiredArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScenario reads and parses a scenario YAML file. Data and Schedule
// paths are resolved relative to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// Data and Schedule relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if basePath != "" {
		if scenario.Data != "" && !filepath.IsAbs(scenario.Data) {
			scenario.Data = filepath.Join(basePath, scenario.Data)
		}
		if scenario.Schedule != "" && !filepath.IsAbs(scenario.Schedule) {
			scenario.Schedule = filepath.Join(basePath, scenario.Schedule)
		}
	}
	for _, p := range []string{scenario.Data, scenario.Schedule} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario decodes a scenario from YAML and validates it. Unknown
// fields are rejected to catch typos.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Now == "" {
		return fmt.Errorf("now is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		required, ok := requiredArgs[step.Invoke]
		if !ok {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Invoke)
		}
		for _, arg := range required {
			if _, ok := step.Args[arg]; !ok {
				return fmt.Errorf("flow[%d]: %s requires arg %q", i, step.Invoke, arg)
			}
		}
		if step.Expect != nil && !validCases[step.Expect.Case] {
			return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSignalContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for signal_contains", index)
		}
	case AssertSignalOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for signal_order", index)
		}
	case AssertSignalCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for signal_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for signal_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
