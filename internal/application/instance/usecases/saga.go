package usecases

import (
	"context"

	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

const (
	StepValidateTemplate       = "validate_template"
	StepCreateProject          = "create_project"
	StepCreateEnvironment      = "create_environment"
	StepFetchTemplateVariables = "fetch_template_variables"
	StepMergeVariables         = "merge_variables"
	StepCreateService          = "create_service"
	StepSetVariables           = "set_variables"
	StepTriggerDeploy          = "trigger_deploy"
	StepPersistInstance        = "persist_instance"
)

type sagaStep struct {
	name string
	do   func(ctx context.Context) error
	// undo may be nil when the step leaves nothing behind.
	undo func(ctx context.Context) error
}

type sagaOutcome struct {
	completed  []string
	failedStep string
	err        error
	rolledBack bool
}

// runSaga executes steps in order. beforeStep, when set, runs ahead of every
// step but the first and fails that step if it returns an error. On the first
// failure the undo of every completed step runs in reverse; undo errors are
// logged and do not stop the remaining compensations.
func runSaga(ctx context.Context, log logger.Interface, steps []sagaStep, beforeStep func(ctx context.Context, step string) error) sagaOutcome {
	var out sagaOutcome
	done := make([]sagaStep, 0, len(steps))

	for i, step := range steps {
		var err error
		if i > 0 && beforeStep != nil {
			err = beforeStep(ctx, step.name)
		}
		if err == nil {
			err = step.do(ctx)
		}
		if err != nil {
			out.failedStep = step.name
			out.err = err
			out.rolledBack = compensate(ctx, log, done)
			return out
		}
		done = append(done, step)
		out.completed = append(out.completed, step.name)
	}
	return out
}

func compensate(ctx context.Context, log logger.Interface, done []sagaStep) bool {
	// compensation must run even when the caller has gone away
	undoCtx := context.WithoutCancel(ctx)
	clean := true

	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.undo == nil {
			continue
		}
		if err := step.undo(undoCtx); err != nil {
			clean = false
			log.Errorw("compensation failed, remote resources may be orphaned",
				"step", step.name,
				"error", err)
			continue
		}
		log.Infow("compensated provisioning step", "step", step.name)
	}
	return clean
}
