package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/utils"
)

// Script is a list of keyword calls read from YAML:
//
//	steps:
//	  - keyword: Connect MQ
//	    args: [QM1, localhost, 1414, DEV.APP.SVRCONN]
//	  - keyword: Get MQ Messages
//	    args: [DEV.QUEUE.1]
//	    kwargs: {message_amount: 2}
//	    expect: [first, second]
//
// String values may reference environment variables as ${NAME}. Any other $
// is kept as written and $$ stands for a literal $.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one keyword call of a Script.
type Step struct {
	Name    string         `yaml:"name"`
	Keyword string         `yaml:"keyword"`
	Args    []any          `yaml:"args"`
	Kwargs  map[string]any `yaml:"kwargs"`
	// Expect, when set, must equal the keyword's return value.
	Expect any `yaml:"expect"`
}

// StepError reports the step that stopped a script.
type StepError struct {
	Index   int
	Keyword string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Keyword, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func execScript(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	sugar, err := utils.NewSugaredLoggerTo(cfg.Verbose, cfg.LogOutput)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	script, err := loadScript(c.String("file"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.close(closeCtx)
	}()

	return runScript(ctx, rt.reg, script, c.App.Writer, sugar)
}

// loadScript reads and expands the script at path.
func loadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return parseScript(f, os.LookupEnv)
}

func parseScript(r io.Reader, lookup func(string) (string, bool)) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var script Script
	if err := dec.Decode(&script); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("script has no steps")
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("script has no steps")
	}

	exp := expander{lookup: lookup}
	for i := range script.Steps {
		step := &script.Steps[i]
		if strings.TrimSpace(step.Keyword) == "" {
			return nil, fmt.Errorf("step %d has no keyword", i+1)
		}
		for j, arg := range step.Args {
			step.Args[j] = exp.value(arg)
		}
		for k, v := range step.Kwargs {
			step.Kwargs[k] = exp.value(v)
		}
		step.Expect = exp.value(step.Expect)
	}
	if len(exp.missing) > 0 {
		return nil, fmt.Errorf("script references undefined variables: %s", strings.Join(exp.missing, ", "))
	}
	return &script, nil
}

// varRef matches an escaped $$ or a ${NAME} reference.
var varRef = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expander substitutes ${NAME} references and collects the undefined ones.
type expander struct {
	lookup  func(string) (string, bool)
	missing []string
}

func (e *expander) value(v any) any {
	switch v := v.(type) {
	case string:
		return varRef.ReplaceAllStringFunc(v, func(ref string) string {
			if ref == "$$" {
				return "$"
			}
			name := ref[2 : len(ref)-1]
			val, ok := e.lookup(name)
			if !ok {
				e.missing = append(e.missing, name)
			}
			return val
		})
	case []any:
		for i := range v {
			v[i] = e.value(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = e.value(v[k])
		}
		return v
	}
	return v
}

// runScript runs the steps in order and stops at the first failure.
func runScript(ctx context.Context, reg *keywords.Registry, script *Script, out io.Writer, sugar *zap.SugaredLogger) error {
	for i, step := range script.Steps {
		label := step.Keyword
		if step.Name != "" {
			label = step.Name
		}

		start := time.Now()
		ret, err := reg.Run(ctx, step.Keyword, step.Args, step.Kwargs)
		if err == nil && step.Expect != nil {
			err = checkExpected(step.Expect, ret)
		}
		elapsed := time.Since(start)

		if err != nil {
			fmt.Fprintf(out, "FAIL  %-40s %v\n", label, err)
			sugar.Debugw("step failed", "step", i+1, "keyword", step.Keyword, "duration", elapsed, "error", err)
			return &StepError{Index: i, Keyword: step.Keyword, Err: err}
		}
		fmt.Fprintf(out, "PASS  %-40s %s\n", label, formatReturn(ret))
		sugar.Debugw("step passed", "step", i+1, "keyword", step.Keyword, "duration", elapsed)
	}
	fmt.Fprintf(out, "%d steps passed\n", len(script.Steps))
	return nil
}

// checkExpected compares through JSON so YAML scalars match typed returns.
func checkExpected(want, got any) error {
	wantJSON, err := json.Marshal(want)
	if err != nil {
		return fmt.Errorf("invalid expect value: %w", err)
	}
	gotJSON, err := json.Marshal(got)
	if err != nil {
		return fmt.Errorf("failed to encode return value: %w", err)
	}
	if string(wantJSON) != string(gotJSON) {
		return fmt.Errorf("expected %s, got %s", wantJSON, gotJSON)
	}
	return nil
}

func formatReturn(ret any) string {
	if ret == nil {
		return ""
	}
	data, err := json.Marshal(ret)
	if err != nil {
		return fmt.Sprint(ret)
	}
	return string(data)
}
