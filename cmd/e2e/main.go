// Package main provides the e2e test runner for the expert service.
// It drives a running fwexpert instance (typically backed by mock-llm)
// through the analyze and generate flows over HTTP and reports
// pass/fail per scenario.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		serviceURL    string
		outputJSON    bool
		timeout       time.Duration
		globalTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "e2e [scenario]",
		Short: "Run fwexpert end-to-end tests",
		Long: `Run end-to-end tests against a running fwexpert service.

Available scenarios:
  analyze-idempotent  - Analyze twice, second call must be a no-op
  generate-demo       - Generate before analysis, expect demo-guided output
  generate-knowledge  - Analyze then generate, expect knowledge-guided output
  all                 - Run all scenarios (default)

Examples:
  e2e                               # Run all scenarios
  e2e generate-demo                 # Run specific scenario
  e2e --json                        # Output results as JSON
  e2e --service http://host:8080    # Custom service URL
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioName := "all"
			if len(args) > 0 {
				scenarioName = args[0]
			}
			client := &apiClient{
				baseURL: strings.TrimRight(serviceURL, "/"),
				http:    &http.Client{Timeout: timeout},
			}
			return run(scenarioName, client, outputJSON, globalTimeout)
		},
	}

	cmd.Flags().StringVar(&serviceURL, "service", "http://localhost:8080", "Expert service base URL")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-request timeout")
	cmd.Flags().DurationVar(&globalTimeout, "global-timeout", 10*time.Minute, "Global timeout for all scenarios")

	cmd.AddCommand(listCmd())

	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available scenarios:")
			fmt.Println()
			for _, s := range allScenarios() {
				fmt.Printf("  %-20s %s\n", s.name, s.description)
			}
			fmt.Println()
			fmt.Println("Use 'e2e all' to run all scenarios.")
		},
	}
}

// apiClient is a thin wrapper over the expert service HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func (c *apiClient) post(ctx context.Context, path string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

func (c *apiClient) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

type statsEnvelope struct {
	Success bool `json:"success"`
	Stats   struct {
		Status        string `json:"status"`
		ClassesCount  int    `json:"classes_count"`
		PatternsCount int    `json:"patterns_count"`
	} `json:"stats"`
	Error string `json:"error,omitempty"`
}

type generateEnvelope struct {
	Success bool `json:"success"`
	Result  struct {
		Script        string   `json:"script"`
		ContextSource string   `json:"context_source"`
		Warnings      []string `json:"warnings,omitempty"`
	} `json:"result"`
	Error string `json:"error,omitempty"`
}

// scenario is one named e2e flow against the service.
type scenario struct {
	name        string
	description string
	run         func(ctx context.Context, c *apiClient) error
}

func allScenarios() []scenario {
	return []scenario{
		{
			name:        "generate-demo",
			description: "Generate before analysis, expect demo-guided output",
			run: func(ctx context.Context, c *apiClient) error {
				code, body, err := c.post(ctx, "/api/framework/generate-script", map[string]any{
					"framework_type": "client",
					"description":    "verify a REST endpoint returns 200",
					"test_name":      "test_rest_status",
				})
				if err != nil {
					return err
				}
				if code != http.StatusOK {
					return fmt.Errorf("generate returned %d: %s", code, body)
				}
				var env generateEnvelope
				if err := json.Unmarshal(body, &env); err != nil {
					return err
				}
				if env.Result.ContextSource != "demo" {
					return fmt.Errorf("expected demo context, got %q", env.Result.ContextSource)
				}
				if env.Result.Script == "" {
					return fmt.Errorf("empty script")
				}
				return nil
			},
		},
		{
			name:        "analyze-idempotent",
			description: "Analyze twice, second call must be a no-op",
			run: func(ctx context.Context, c *apiClient) error {
				for i := 0; i < 2; i++ {
					code, body, err := c.post(ctx, "/api/framework/analyze", map[string]any{
						"framework_type": "pstaff",
					})
					if err != nil {
						return err
					}
					if code != http.StatusOK {
						return fmt.Errorf("analyze call %d returned %d: %s", i+1, code, body)
					}
				}
				code, body, err := c.get(ctx, "/api/framework/knowledge-stats?framework_type=pstaff")
				if err != nil {
					return err
				}
				if code != http.StatusOK {
					return fmt.Errorf("stats returned %d: %s", code, body)
				}
				var env statsEnvelope
				if err := json.Unmarshal(body, &env); err != nil {
					return err
				}
				if env.Stats.Status != "analyzed" {
					return fmt.Errorf("expected analyzed status, got %q", env.Stats.Status)
				}
				if env.Stats.ClassesCount == 0 {
					return fmt.Errorf("expected classes in knowledge base")
				}
				return nil
			},
		},
		{
			name:        "generate-knowledge",
			description: "Analyze then generate, expect knowledge-guided output",
			run: func(ctx context.Context, c *apiClient) error {
				code, body, err := c.post(ctx, "/api/framework/analyze", map[string]any{
					"framework_type": "pstaff",
				})
				if err != nil {
					return err
				}
				if code != http.StatusOK {
					return fmt.Errorf("analyze returned %d: %s", code, body)
				}
				code, body, err = c.post(ctx, "/api/framework/generate-script", map[string]any{
					"framework_type": "pstaff",
					"description":    "verify admin login through the browser",
					"test_name":      "test_admin_login",
				})
				if err != nil {
					return err
				}
				if code != http.StatusOK {
					return fmt.Errorf("generate returned %d: %s", code, body)
				}
				var env generateEnvelope
				if err := json.Unmarshal(body, &env); err != nil {
					return err
				}
				if env.Result.ContextSource != "knowledge" {
					return fmt.Errorf("expected knowledge context, got %q", env.Result.ContextSource)
				}
				if env.Result.Script == "" {
					return fmt.Errorf("empty script")
				}
				return nil
			},
		},
	}
}

type result struct {
	ScenarioName string        `json:"scenario"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

func run(scenarioName string, client *apiClient, outputJSON bool, globalTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), globalTimeout)
	defer cancel()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	list := allScenarios()

	var toRun []scenario
	if scenarioName == "all" {
		toRun = list
	} else {
		for _, s := range list {
			if s.name == scenarioName {
				toRun = []scenario{s}
				break
			}
		}
		if len(toRun) == 0 {
			return fmt.Errorf("unknown scenario: %s", scenarioName)
		}
	}

	results := make([]result, 0, len(toRun))
	allPassed := true

	for _, s := range toRun {
		if ctx.Err() != nil {
			if !outputJSON {
				fmt.Println("\nTest run interrupted!")
			}
			break
		}

		if !outputJSON {
			fmt.Printf("Running: %s ... ", s.name)
		}
		start := time.Now()
		err := s.run(ctx, client)
		r := result{ScenarioName: s.name, Success: err == nil, Duration: time.Since(start)}
		if err != nil {
			r.Error = err.Error()
			allPassed = false
			if !outputJSON {
				fmt.Printf("FAILED: %v\n", err)
			}
		} else if !outputJSON {
			fmt.Println("PASSED")
		}
		results = append(results, r)
	}

	if outputJSON {
		outputJSONResults(results)
	} else {
		outputTextSummary(results)
	}

	if !allPassed {
		return fmt.Errorf("some scenarios failed")
	}
	return nil
}

func outputJSONResults(results []result) {
	output := struct {
		Timestamp time.Time `json:"timestamp"`
		Results   []result  `json:"results"`
		Summary   struct {
			Total  int `json:"total"`
			Passed int `json:"passed"`
			Failed int `json:"failed"`
		} `json:"summary"`
	}{
		Timestamp: time.Now(),
		Results:   results,
	}

	output.Summary.Total = len(results)
	for _, r := range results {
		if r.Success {
			output.Summary.Passed++
		} else {
			output.Summary.Failed++
		}
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func outputTextSummary(results []result) {
	fmt.Println(strings.Repeat("─", 65))

	passed := 0
	failed := 0
	for _, r := range results {
		status := "✓ PASSED"
		if !r.Success {
			status = "✗ FAILED"
			failed++
		} else {
			passed++
		}
		fmt.Printf("  %s  %s (%dms)\n", status, r.ScenarioName, r.Duration.Milliseconds())
		if !r.Success && r.Error != "" {
			errMsg := r.Error
			if len(errMsg) > 80 {
				errMsg = errMsg[:77] + "..."
			}
			fmt.Printf("           %s\n", errMsg)
		}
	}

	fmt.Println(strings.Repeat("─", 65))
	fmt.Printf("  Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
}
