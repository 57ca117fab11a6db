package hooks

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

type MockTUIProgram struct {
	mock.Mock
}

func (m *MockTUIProgram) Send(msg any) {
	m.Called(msg)
}

type MockProgressBar struct {
	mock.Mock
}

func (m *MockProgressBar) Add(num int) error {
	args := m.Called(num)
	return args.Error(0)
}

func (m *MockProgressBar) Describe(description string) {
	m.Called(description)
}

func (m *MockProgressBar) ChangeMax(newMax int) {
	m.Called(newMax)
}

func (m *MockProgressBar) Close() error {
	args := m.Called()
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHooksSatisfyEngineInterface(t *testing.T) {
	var h distill.Hooks = NewCLIHooks(discardLogger(), nil, nil)
	require.NotNil(t, h)
}

func TestOnRunStartTUIMode(t *testing.T) {
	program := new(MockTUIProgram)
	program.On("Send", RunStartMsg{RunID: "r-1", Total: 7}).Once()

	h := NewCLIHooks(discardLogger(), program, nil)
	require.NoError(t, h.OnRunStart("r-1", 7))
	program.AssertExpectations(t)
}

func TestOnRunStartBarMode(t *testing.T) {
	bar := new(MockProgressBar)
	bar.On("ChangeMax", 3).Once()
	bar.On("Describe", mock.AnythingOfType("string")).Once()

	h := NewCLIHooks(discardLogger(), nil, bar)
	require.NoError(t, h.OnRunStart("r-1", 3))
	bar.AssertExpectations(t)
}

func TestOnFileDiscovered(t *testing.T) {
	program := new(MockTUIProgram)
	program.On("Send", FileDiscoveredMsg{Path: "data/raw/es/a.pdf"}).Once()

	h := NewCLIHooks(discardLogger(), program, nil)
	require.NoError(t, h.OnFileDiscovered("data/raw/es/a.pdf"))
	program.AssertExpectations(t)
}

func TestOnFileStatusUpdateForwardsToTUI(t *testing.T) {
	program := new(MockTUIProgram)
	program.On("Send", FileStatusMsg{
		Path:     "a.pdf",
		Status:   distill.StatusConverted,
		Duration: 120 * time.Millisecond,
	}).Once()

	h := NewCLIHooks(discardLogger(), program, nil)
	require.NoError(t, h.OnFileStatusUpdate("a.pdf", distill.StatusConverted, distill.ReasonNone, 120*time.Millisecond))
	program.AssertExpectations(t)
}

func TestOnFileStatusUpdateAdvancesBar(t *testing.T) {
	bar := new(MockProgressBar)
	bar.On("Add", 1).Return(nil).Times(3)

	h := NewCLIHooks(discardLogger(), nil, bar)
	require.NoError(t, h.OnFileStatusUpdate("a.pdf", distill.StatusConverted, distill.ReasonNone, time.Millisecond))
	require.NoError(t, h.OnFileStatusUpdate("b.pdf", distill.StatusSkipped, distill.ReasonAlreadyDone, 0))
	require.NoError(t, h.OnFileStatusUpdate("c.pdf", distill.StatusFailed, distill.ReasonTimeout, time.Second))
	bar.AssertExpectations(t)
}

func TestFailureIsLoggedWithoutTUI(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	h := NewCLIHooks(logger, nil, nil)
	require.NoError(t, h.OnFileStatusUpdate("bad.pdf", distill.StatusFailed, distill.ReasonInvalidInput, 0))

	out := buf.String()
	assert.Contains(t, out, "file failed")
	assert.Contains(t, out, "bad.pdf")
	assert.Contains(t, out, "invalid_input")
}

func TestOnRunCompleteTUIMode(t *testing.T) {
	summary := distill.RunSummary{RunID: "r-9", TotalDiscovered: 2, Converted: 2}
	program := new(MockTUIProgram)
	program.On("Send", RunCompleteMsg{Summary: summary}).Once()

	h := NewCLIHooks(discardLogger(), program, nil)
	require.NoError(t, h.OnRunComplete(summary))
	program.AssertExpectations(t)
}

func TestOnRunCompleteClosesBar(t *testing.T) {
	bar := new(MockProgressBar)
	bar.On("Close").Return(nil).Once()

	h := NewCLIHooks(discardLogger(), nil, bar)
	require.NoError(t, h.OnRunComplete(distill.RunSummary{}))
	bar.AssertExpectations(t)
}
