// Package sweep runs grids of headless demo simulations across physics
// parameters to find settings that settle the scene fastest.
package sweep

import (
	"context"
	"fmt"
	"math"

	"spheretree/internal/config"
	"spheretree/internal/physics"
	"spheretree/internal/scene"
	"spheretree/internal/sim"
)

// Param is one swept axis.
type Param struct {
	Name   string
	Values []float64
}

// Result is one grid cell: the parameter combination, the frame at
// which the scene settled (maxFrames+1 if it never did) and the
// kinetic energy left at the end.
type Result struct {
	Params       map[string]float64
	SettleFrame  int
	FinalKinetic float64
}

// Runner executes one simulation per parameter combination.
type Runner struct {
	cfg       *config.Config
	count     int
	seed      int64
	maxFrames int
	eps       float64
}

func NewRunner(cfg *config.Config, count int, seed int64, maxFrames int) *Runner {
	return &Runner{cfg: cfg, count: count, seed: seed, maxFrames: maxFrames, eps: 1e-3}
}

// Run simulates one cell. Every run reuses the same seed, so cells
// differ only in the swept parameters.
func (r *Runner) Run(params map[string]float64) (Result, error) {
	phys := r.cfg.Physics
	for name, value := range params {
		switch name {
		case "restitution":
			phys.Restitution = value
		case "damping":
			phys.Damping = value
		case "radius":
			phys.Radius = value
		default:
			return Result{}, fmt.Errorf("unknown sweep parameter %q", name)
		}
	}

	reg := scene.DemoRegistry(r.cfg.SceneLayout(), r.count, r.seed)
	loop := sim.New(reg, phys, r.cfg.TPS)

	res := Result{
		Params:      make(map[string]float64, len(params)),
		SettleFrame: r.maxFrames + 1,
	}
	for k, v := range params {
		res.Params[k] = v
	}

	for frame := 1; frame <= r.maxFrames; frame++ {
		loop.RunFrames(1)
		if physics.Settled(reg.All(), r.eps) {
			res.SettleFrame = frame
			break
		}
	}
	res.FinalKinetic = physics.KineticEnergy(reg.All())
	return res, nil
}

// Grid enumerates every combination of the given axes and runs each
// cell, returning all results plus the cell with the earliest settle.
func Grid(ctx context.Context, params []Param, runner *Runner) ([]Result, *Result, error) {
	results := make([]Result, 0)
	if err := gridRecursive(ctx, params, 0, make(map[string]float64), runner, &results); err != nil {
		return nil, nil, err
	}

	var best *Result
	bestFrame := math.MaxInt
	for i := range results {
		if results[i].SettleFrame < bestFrame {
			bestFrame = results[i].SettleFrame
			best = &results[i]
		}
	}
	return results, best, nil
}

func gridRecursive(ctx context.Context, params []Param, depth int, current map[string]float64, runner *Runner, out *[]Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(params) {
		res, err := runner.Run(current)
		if err != nil {
			return err
		}
		*out = append(*out, res)
		return nil
	}

	p := params[depth]
	for _, v := range p.Values {
		current[p.Name] = v
		if err := gridRecursive(ctx, params, depth+1, current, runner, out); err != nil {
			return err
		}
	}
	delete(current, p.Name)
	return nil
}
