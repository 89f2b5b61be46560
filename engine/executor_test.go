package engine

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunStepsStopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")

	steps := []Step{
		SimpleStep("one", func() error { ran = append(ran, "one"); return nil }),
		{Name: "two", Action: func() StepResult {
			ran = append(ran, "two")
			return Skipped("nothing to do")
		}},
		SimpleStep("three", func() error { ran = append(ran, "three"); return boom }),
		SimpleStep("four", func() error { ran = append(ran, "four"); return nil }),
	}

	err := runSteps(discardLogger(), nil, steps)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "three")
	assert.Equal(t, []string{"one", "two", "three"}, ran)
}

func TestRunStepsReportsProgress(t *testing.T) {
	var names []string
	var last float64
	progress := func(percent float64, name string) {
		names = append(names, name)
		last = percent
	}

	steps := []Step{
		SimpleStep("one", func() error { return nil }),
		SimpleStep("two", func() error { return nil }),
	}
	require.NoError(t, runSteps(discardLogger(), progress, steps))
	assert.Equal(t, []string{"one", "two", "Complete"}, names)
	assert.Equal(t, float64(100), last)
}
