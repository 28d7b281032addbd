package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// SuiteResult summarises a directory of scenarios.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// SuiteFailure is one scenario that did not pass.
type SuiteFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Errors       []string `json:"errors"`
}

// FindScenarios lists the .yaml/.yml files under dir, sorted. A non-empty
// filter is a glob matched against the base file name.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite loads and runs every scenario file. Load and run errors count as
// failures; they never abort the suite.
func RunSuite(paths []string) *SuiteResult {
	result := &SuiteResult{Total: len(paths)}

	for _, path := range paths {
		errs := runOne(path)
		if len(errs) == 0 {
			result.Passed++
			continue
		}
		result.Failed++
		result.Failures = append(result.Failures, SuiteFailure{ScenarioPath: path, Errors: errs})
	}
	return result
}

func runOne(path string) []string {
	scenario, err := LoadScenario(path)
	if err != nil {
		return []string{fmt.Sprintf("failed to load scenario: %v", err)}
	}
	res, err := Run(scenario)
	if err != nil {
		return []string{fmt.Sprintf("scenario execution failed: %v", err)}
	}
	if !res.Pass {
		return res.Errors
	}
	return nil
}
