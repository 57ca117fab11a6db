package distill_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

func validOptions(input string) distill.Options {
	return distill.Options{
		InputPath: input,
		Converter: distill.ConverterFunc(func(context.Context, distill.ConvertRequest) (*distill.ConvertResult, error) {
			return &distill.ConvertResult{Content: "x", Pages: 1, PagesWithText: 1, Characters: 1}, nil
		}),
		Prober: distill.ProberFunc(func(context.Context, string) (*distill.ProbeInfo, error) {
			return &distill.ProbeInfo{Pages: 1, HasText: true}, nil
		}),
	}
}

func TestNewEngineAppliesDefaults(t *testing.T) {
	eng, err := distill.NewEngine(validOptions(t.TempDir()))
	require.NoError(t, err)
	assert.NotNil(t, eng)
}

func TestNewEngineValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*distill.Options)
	}{
		{"missing input", func(o *distill.Options) { o.InputPath = "" }},
		{"workers above ceiling", func(o *distill.Options) { o.Workers = 17 }},
		{"workers negative", func(o *distill.Options) { o.Workers = -1 }},
		{"bad output extension", func(o *distill.Options) { o.OutputExt = "pdf" }},
		{"bad language override", func(o *distill.Options) { o.Language = "fr" }},
		{"negative size limit", func(o *distill.Options) { o.MaxFileSizeMB = -5 }},
		{"negative page limit", func(o *distill.Options) { o.MaxPages = -1 }},
		{"negative timeout", func(o *distill.Options) { o.TimeoutPerFile = -1 }},
		{"nil converter", func(o *distill.Options) { o.Converter = nil }},
		{"nil prober", func(o *distill.Options) { o.Prober = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions(t.TempDir())
			tt.mutate(&opts)
			_, err := distill.NewEngine(opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, distill.ErrInvalidOptions)
		})
	}
}

func TestWorkerBoundsAccepted(t *testing.T) {
	for _, workers := range []int{distill.MinWorkers, 8, distill.MaxWorkers} {
		opts := validOptions(t.TempDir())
		opts.Workers = workers
		_, err := distill.NewEngine(opts)
		require.NoError(t, err, "workers=%d", workers)
	}
}
