package factory

import (
	"time"

	"github.com/mcoot/tictactoe-go/internal/client"
	"github.com/mcoot/tictactoe-go/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe-go/internal/services/gameview"
	"github.com/mcoot/tictactoe-go/internal/storage/memory"
	"github.com/mcoot/tictactoe-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MemoryStore *memory.Storage
}

// NewTestApp creates an App talking to serverURL with in-memory storage and a
// mocked clock
func NewTestApp(serverURL string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = serverURL

	app := newWithDependencies(store, mockClock, clientCfg, gameview.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MemoryStore: store,
	}
}
