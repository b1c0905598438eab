package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"scopealloc/internal/driver"
	"scopealloc/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs the driver in the background and renders its progress
// events until the event channel is closed.
func runWithUI(ctx context.Context, title string, files []string, req *driver.Request) (*driver.Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing run request")
	}
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, reqCopy)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
