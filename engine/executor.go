package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runSteps executes steps sequentially. The first failure aborts the run;
// steps already applied are not rolled back. The optional progress callback
// receives a percentage and the name of the step about to run.
func runSteps(log logrus.FieldLogger, progress func(percent float64, name string), steps []Step) error {
	total := len(steps)

	for i, step := range steps {
		if progress != nil {
			progress(float64(i)/float64(total)*100, step.Name)
		}
		log.WithField("step", step.Name).Debug("starting")

		result := step.Action()

		if result.Err != nil {
			log.WithField("step", step.Name).WithError(result.Err).Error("step failed")
			return fmt.Errorf("%s: %w", step.Name, result.Err)
		}

		if result.Skip {
			if result.Info != "" {
				log.WithField("step", step.Name).Infof("skipped: %s", result.Info)
			} else {
				log.WithField("step", step.Name).Info("skipped")
			}
			continue
		}

		if result.Info != "" {
			log.WithField("step", step.Name).Infof("completed: %s", result.Info)
		} else {
			log.WithField("step", step.Name).Info("completed")
		}
	}

	if progress != nil {
		progress(100, "Complete")
	}
	return nil
}
