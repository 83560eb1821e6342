package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ezrec/pulseos/translate"
)

var f = translate.From

var ErrResponse = errors.New(f("unexpected status response"))

// ErrHTTPStatus is a non-success HTTP status from the status server.
type ErrHTTPStatus struct {
	Code int
}

func (err ErrHTTPStatus) Error() string {
	return f("status server returned %d", err.Code)
}

func (err ErrHTTPStatus) Unwrap() error {
	return ErrResponse
}

// Client queries a status server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client // If nil, http.DefaultClient is used.
}

func (cl *Client) get(ctx context.Context, path string, value any) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(cl.BaseURL, "/")+path, nil)
	if err != nil {
		return
	}

	httpClient := cl.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = ErrHTTPStatus{Code: resp.StatusCode}
		return
	}

	err = json.NewDecoder(resp.Body).Decode(value)
	if err != nil {
		err = errors.Join(ErrResponse, err)
	}
	return
}

// Processes fetches the process table.
func (cl *Client) Processes(ctx context.Context) (procs []Process, err error) {
	err = cl.get(ctx, "/ps", &procs)
	return
}

// Cpu fetches the processor state.
func (cl *Client) Cpu(ctx context.Context) (state Cpu, err error) {
	err = cl.get(ctx, "/cpu", &state)
	return
}

// Print writes the processor state and the process table of a status server
// to w.
func (cl *Client) Print(ctx context.Context, w io.Writer) (err error) {
	state, err := cl.Cpu(ctx)
	if err != nil {
		return
	}

	procs, err := cl.Processes(ctx)
	if err != nil {
		return
	}

	running := "idle"
	if state.Halted {
		running = "halted"
	} else if state.Executing {
		running = fmt.Sprintf("pid %d", state.Pid)
	}
	fmt.Fprintf(w, "cpu: %v, pulse %d, quantum %d, ready %v\n",
		running, state.Pulses, state.Quantum, state.Ready)

	fmt.Fprintf(w, "%-4s %-10s %5s %5s %4s  %s\n", "PID", "STATUS", "TURN", "WAIT", "EXIT", "OUTPUT")
	for _, proc := range procs {
		fmt.Fprintf(w, "%-4d %-10s %5d %5d %4d  %q\n",
			proc.Pid, proc.Status, proc.Turnaround, proc.Wait, proc.ExitCode, proc.Output)
	}

	return
}
