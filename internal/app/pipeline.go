package app

import (
	"context"
	"errors"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
	"assetopt/internal/logging"
)

// Pipeline drives a full run: brand pass, then clients pass, then the report.
// The passes never overlap.
type Pipeline struct {
	Planner    *Planner
	Executor   *Executor
	Reporter   ReportWriter
	ReportPath string
	// OnPlan is called with each plan before it is executed.
	OnPlan func(domain.Plan)
	Logger logging.Logger
}

func (p *Pipeline) Run(ctx context.Context) (domain.RunResult, error) {
	var result domain.RunResult
	if p.Planner == nil || p.Executor == nil {
		return result, errors.New("pipeline requires Planner and Executor")
	}

	stop := p.Logger.Measure("Pipeline run")
	defer stop()

	brand, err := p.runPass(ctx, p.Planner.PlanBrand)
	if err != nil {
		return result, err
	}
	result.Brand = brand

	clients, err := p.runPass(ctx, p.Planner.PlanClients)
	if err != nil {
		return result, err
	}
	result.Clients = clients

	if p.ReportPath != "" {
		if _, err := p.Reporter.Write(ctx, p.ReportPath, result); err != nil {
			if isCanceled(err) {
				return result, appErrors.Wrap(appErrors.Canceled, "report", p.ReportPath, err)
			}
			return result, appErrors.Wrap(appErrors.IOFailure, "write report", p.ReportPath, err)
		}
	}
	return result, nil
}

// Plan plans both passes without executing anything.
func (p *Pipeline) Plan(ctx context.Context) ([]domain.Plan, error) {
	if p.Planner == nil {
		return nil, errors.New("pipeline requires Planner")
	}
	brand, err := p.Planner.PlanBrand(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := p.Planner.PlanClients(ctx)
	if err != nil {
		return nil, err
	}
	return []domain.Plan{brand, clients}, nil
}

func (p *Pipeline) runPass(ctx context.Context, plan func(context.Context) (domain.Plan, error)) (domain.PassResult, error) {
	planned, err := plan(ctx)
	if err != nil {
		return domain.PassResult{}, err
	}
	for _, warning := range planned.Warnings {
		p.Logger.Warnf("%s", warning)
	}
	if p.OnPlan != nil {
		p.OnPlan(planned)
	}

	result, err := p.Executor.Execute(ctx, planned)
	if err != nil {
		if isCanceled(err) {
			return result, appErrors.Wrap(appErrors.Canceled, "execute", string(planned.Pass), err)
		}
		return result, appErrors.Wrap(appErrors.Internal, "execute", string(planned.Pass), err)
	}
	return result, nil
}
