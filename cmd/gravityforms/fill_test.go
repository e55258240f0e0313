package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gravityforms/pkg/renderers/tui"
	"github.com/goliatone/go-gravityforms/pkg/testsupport"
)

// scriptedDriver answers text prompts from inputs, cycling once exhausted,
// and leaves every other prompt empty.
type scriptedDriver struct {
	inputs []string
	asked  int
	info   []string
}

func (d *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error) {
	answer := d.inputs[d.asked%len(d.inputs)]
	d.asked++
	return answer, nil
}

func (d *scriptedDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	return "", nil
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) { return 0, nil }

func (d *scriptedDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func useDriver(t *testing.T, driver tui.PromptDriver) {
	t.Helper()
	previous := promptDriver
	promptDriver = func() tui.PromptDriver { return driver }
	t.Cleanup(func() { promptDriver = previous })
}

func TestFillSubmit_RepromptsUntilConfirmed(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t,
		testsupport.ValidationFailure(map[string]string{"2": "This email is already registered."}),
		testsupport.Success("<p>Thanks, <b>Ada</b>!</p>"),
	)
	t.Setenv("GRAVITYFORMS_SUBMISSION_ENDPOINT", endpoint.URL)
	t.Setenv("GRAVITYFORMS_SUBMISSION_VERIFY_KEY", "s3cret")

	driver := &scriptedDriver{inputs: []string{"Ada", "taken@example.com", "Ada", "ada@example.com"}}
	useDriver(t, driver)

	out, err := execute(t, "fill", "--source", writeDescriptor(t), "--submit")
	require.NoError(t, err)
	assert.Contains(t, out, "Thanks, Ada!")
	assert.NotContains(t, out, "<b>")

	requests := endpoint.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "s3cret", requests[1]["verifyKey"])
	payload, ok := requests[1]["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", payload["input_2"])
	assert.Contains(t, driver.info, "! This email is already registered.")
}

func TestFillSubmit_GivesUpAfterMaxAttempts(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t,
		testsupport.ValidationFailure(map[string]string{"1": "Name is on a blocklist."}),
	)
	t.Setenv("GRAVITYFORMS_SUBMISSION_ENDPOINT", endpoint.URL)
	useDriver(t, &scriptedDriver{inputs: []string{"Ada", "ada@example.com"}})

	_, err := execute(t, "fill", "--source", writeDescriptor(t), "--submit")
	require.ErrorContains(t, err, "form still invalid after 5 attempts")
	assert.Len(t, endpoint.Requests(), maxFillAttempts)
}

func TestFillSubmit_EndpointFailure(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t, testsupport.EndpointResponse{Status: 500})
	t.Setenv("GRAVITYFORMS_SUBMISSION_ENDPOINT", endpoint.URL)
	useDriver(t, &scriptedDriver{inputs: []string{"Ada", "ada@example.com"}})

	_, err := execute(t, "fill", "--source", writeDescriptor(t), "--submit")
	require.ErrorContains(t, err, "submission failed")
	assert.Len(t, endpoint.Requests(), 1)
}

func TestFillSubmit_RequiresEndpoint(t *testing.T) {
	t.Setenv("GRAVITYFORMS_SUBMISSION_ENDPOINT", "")
	useDriver(t, &scriptedDriver{inputs: []string{"Ada"}})

	_, err := execute(t, "fill", "--source", writeDescriptor(t), "--submit")
	require.ErrorContains(t, err, "submission.endpoint is not configured")
}
