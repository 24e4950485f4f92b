// Command smoke probes a running API instance against a target list and
// reports per-endpoint status mismatches. Intended for post-deploy checks.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type result struct {
	Target   target
	Status   int
	Match    bool
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base        string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated endpoints")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var breaking int

	for _, t := range targets {
		res := probe(client, base, token, t)
		if res.Err != nil {
			fmt.Printf("FAIL %-6s %-50s error: %v\n", t.Method, t.Path, res.Err)
			if t.Critical {
				breaking++
			}
			continue
		}
		mark := "ok"
		if !res.Match {
			mark = fmt.Sprintf("want %d got %d", t.Expect, res.Status)
			if t.Critical {
				breaking++
			}
		}
		fmt.Printf("%-4s %-6s %-50s %s (%s)\n", verdict(res.Match), t.Method, t.Path, mark, res.Duration.Round(time.Millisecond))
	}

	if breaking > 0 {
		fmt.Printf("\n%d critical endpoint(s) failing\n", breaking)
		os.Exit(1)
	}
}

func verdict(match bool) string {
	if match {
		return "PASS"
	}
	return "FAIL"
}

func loadTargets(path string) ([]target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg struct {
		Targets []target `json:"targets"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Expect == 0 {
			cfg.Targets[i].Expect = http.StatusOK
		}
	}
	return cfg.Targets, nil
}

func probe(client *http.Client, base, token string, t target) result {
	start := time.Now()
	req, err := http.NewRequest(t.Method, base+t.Path, nil)
	if err != nil {
		return result{Target: t, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return result{Target: t, Err: err}
	}
	defer resp.Body.Close()

	return result{
		Target:   t,
		Status:   resp.StatusCode,
		Match:    resp.StatusCode == t.Expect,
		Duration: time.Since(start),
	}
}
