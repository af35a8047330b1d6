package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/elm-tooling/epm/internal/buildplan"
	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/manifest"
)

type buildCommand struct {
	json      bool
	useCached bool
	no        bool
}

func (cmd *buildCommand) Name() string      { return "build" }
func (cmd *buildCommand) Args() string      { return "[check] ENTRY..." }
func (cmd *buildCommand) ShortHelp() string { return "compute and print the build plan" }

func (cmd *buildCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.json, "json", false, "emit the build plan as JSON")
	fs.BoolVar(&cmd.useCached, "use-cached", false, "skip the artifact freshness check (every package is reported missing)")
	fs.BoolVar(&cmd.no, "no", false, "build check: fail instead of prompting when the plan has problems")
}

// Run implements `build [--json] ENTRY...` and
// `build check [--yes|--no] ENTRY...`: compose the package build order and
// module graph via internal/buildplan, then either print the JSON document
// (`build --json`) or a human-readable summary, proceeding or exiting per
// confirmation (`build check`).
func (cmd *buildCommand) Run(ctx *epmctx.Context, args []string) error {
	isCheck := len(args) > 0 && args[0] == "check"
	entries := args
	if isCheck {
		entries = args[1:]
	}
	if len(entries) == 0 {
		return epmerr.New(epmerr.InvalidPackage, fmt.Errorf("build requires at least one ENTRY file"))
	}

	m, err := loadManifest(ctx)
	if err != nil {
		return epmerr.Wrapf(epmerr.ParseError, err, "reading %s", ctx.ManifestPath())
	}

	root := m.Name
	if m.Kind == manifest.Application {
		root = ctx.WorkingDir
	}
	core, _ := identity.Parse("elm/core")

	plan, err := buildplan.Build(m, openCache(ctx), buildplan.Options{
		Root:         root,
		EntryFiles:   entries,
		UseCached:    cmd.useCached,
		CoreIdentity: core,
	})
	if err != nil {
		return epmerr.Wrapf(epmerr.FSError, err, "computing build plan")
	}

	if !isCheck && cmd.json {
		enc := json.NewEncoder(ctx.Log.Out.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(plan.ToDocument())
	}

	printPlanSummary(ctx, plan)

	if !isCheck {
		return nil
	}
	if len(plan.Problems) == 0 {
		return nil
	}
	if cmd.no {
		return epmerr.New(epmerr.FSError, fmt.Errorf("build plan has %d problem(s)", len(plan.Problems)))
	}
	if !confirm(ctx, fmt.Sprintf("Plan has %d problem(s). Proceed anyway?", len(plan.Problems))) {
		return errAborted
	}
	return nil
}

func printPlanSummary(ctx *epmctx.Context, plan *buildplan.Plan) {
	stats := plan.Stats()
	ctx.Log.Printf("%d package(s): %d present, %d stale, %d missing", len(plan.PackageBuildOrder), stats.Present, stats.Stale, stats.Missing)
	ctx.Log.Printf("%d module(s) in %d parallel batch(es)", len(plan.BuildOrder), len(plan.ParallelBatches))
	for _, prob := range plan.Problems {
		if prob.Module != "" {
			ctx.Log.Printf("problem: %s: %s", prob.Module, prob.Message)
		} else {
			ctx.Log.Printf("problem: %s", prob.Message)
		}
	}
}
