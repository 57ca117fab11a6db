// Package testutil provides mock implementations of the distill collaborator
// interfaces plus filesystem fixtures shared by the test suites.
package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

// MockConverter mocks distill.Converter. Configure with testify
// expectations, e.g. .On("Convert", mock.Anything, mock.Anything).Return(...).
type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, req distill.ConvertRequest) (*distill.ConvertResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*distill.ConvertResult)
	return res, args.Error(1)
}

// MockProber mocks distill.Prober.
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, path string) (*distill.ProbeInfo, error) {
	args := m.Called(ctx, path)
	info, _ := args.Get(0).(*distill.ProbeInfo)
	return info, args.Error(1)
}

// MockHooks mocks distill.Hooks.
type MockHooks struct {
	mock.Mock
}

func (m *MockHooks) OnRunStart(runID string, totalFiles int) error {
	args := m.Called(runID, totalFiles)
	return args.Error(0)
}

func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockHooks) OnFileStatusUpdate(path string, status distill.Status, reason distill.Reason, duration time.Duration) error {
	args := m.Called(path, status, reason, duration)
	return args.Error(0)
}

func (m *MockHooks) OnRunComplete(summary distill.RunSummary) error {
	args := m.Called(summary)
	return args.Error(0)
}
