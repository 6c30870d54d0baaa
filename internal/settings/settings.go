// Package settings loads the tool's optional HCL settings file. Settings
// only supply defaults; command-line flags always win.
//
// Values can reference the process environment through the env object:
//
//	github {
//	  repository = env.GITHUB_REPOSITORY
//	}
package settings

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/faasr/faasr-vm-tools/internal/ctxlog"
)

// Settings is the decoded settings file. Every block and attribute is
// optional.
type Settings struct {
	Inject *InjectSettings `hcl:"inject,block"`
	Timer  *TimerSettings  `hcl:"timer,block"`
	GitHub *GitHubSettings `hcl:"github,block"`
}

// InjectSettings configures the inject command's defaults.
type InjectSettings struct {
	Strategy     string `hcl:"strategy,optional"`
	OutputSuffix string `hcl:"output_suffix,optional"`
}

// TimerSettings configures the timer commands' defaults.
type TimerSettings struct {
	Cron string `hcl:"cron,optional"`
	Push *bool  `hcl:"push,optional"`
}

// GitHubSettings locates the repository the workflow lives in.
type GitHubSettings struct {
	Repository string `hcl:"repository,optional"`
	Ref        string `hcl:"ref,optional"`
}

// Default returns the settings used when no file is present.
func Default() *Settings {
	return &Settings{
		Inject: &InjectSettings{
			Strategy:     "parallel",
			OutputSuffix: "_augmented",
		},
		Timer:  &TimerSettings{},
		GitHub: &GitHubSettings{},
	}
}

// Load parses and decodes the settings file at path, layered over Default.
func Load(ctx context.Context, path string) (*Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading settings file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, diags)
	}

	var s Settings
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &s); diags.HasErrors() {
		return nil, fmt.Errorf("decoding settings file %s: %w", path, diags)
	}

	out := Default()
	if s.Inject != nil {
		if s.Inject.Strategy != "" {
			out.Inject.Strategy = s.Inject.Strategy
		}
		if s.Inject.OutputSuffix != "" {
			out.Inject.OutputSuffix = s.Inject.OutputSuffix
		}
	}
	if s.Timer != nil {
		if s.Timer.Cron != "" {
			out.Timer.Cron = s.Timer.Cron
		}
		if s.Timer.Push != nil {
			out.Timer.Push = s.Timer.Push
		}
	}
	if s.GitHub != nil {
		if s.GitHub.Repository != "" {
			out.GitHub.Repository = s.GitHub.Repository
		}
		if s.GitHub.Ref != "" {
			out.GitHub.Ref = s.GitHub.Ref
		}
	}

	logger.Debug("Settings loaded.", "strategy", out.Inject.Strategy)
	return out, nil
}

// evalContext exposes the process environment as the env object.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = cty.StringVal(val)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}
