package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/llm"
	"github.com/c360studio/fwexpert/llm/testutil"
)

const sampleScript = `from Initialize import *

log = Log()

class LoginSuite(object):
    def INITIALIZE(self):
        pass

    def TC_VERIFY_ADMIN_LOGIN(self):
        pass

    def SuiteCleanup(self):
        pass`

func validRequest() Request {
	return Request{
		Description:   "verify admin login",
		TestName:      "TC_VERIFY_ADMIN_LOGIN",
		FrameworkType: framework.TypePstaff,
	}
}

func TestGenerateHappyPath(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "```python\n" + sampleScript + "\n```", Model: "test-model"},
		},
	}
	g := New(mock)

	script, err := g.Generate(context.Background(), validRequest(), "context text", "demo exemplar")
	require.NoError(t, err)
	assert.Equal(t, sampleScript, script)

	// The single call carries both context and exemplar
	requests := mock.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "generation", requests[0].Capability)
	require.Len(t, requests[0].Messages, 2)
	prompt := requests[0].Messages[1].Content
	assert.Contains(t, prompt, "context text")
	assert.Contains(t, prompt, "demo exemplar")
	assert.Contains(t, prompt, "TC_VERIFY_ADMIN_LOGIN")
	assert.Contains(t, prompt, "SuiteCleanup")
}

func TestGenerateClientRequirements(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: sampleScript, Model: "test-model"},
		},
	}
	g := New(mock)

	req := Request{
		Description:   "configure WMI profiling",
		TestName:      "TC_001_PPS_CONFIGURE_WMI",
		FrameworkType: framework.TypeClient,
	}
	_, err := g.Generate(context.Background(), req, "", "demo exemplar")
	require.NoError(t, err)

	prompt := mock.Requests()[0].Messages[1].Content
	assert.Contains(t, prompt, "CLEANUP")
	assert.Contains(t, prompt, "pps_client")
	assert.NotContains(t, prompt, "SuiteCleanup")
}

func TestGenerateEmptyResponse(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "   ", Model: "test-model"},
		},
	}
	g := New(mock)

	_, err := g.Generate(context.Background(), validRequest(), "", "demo")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Reason, "empty")
}

func TestGenerateCollaboratorError(t *testing.T) {
	cause := errors.New("boom")
	mock := &testutil.MockLLMClient{Err: cause}
	g := New(mock)

	_, err := g.Generate(context.Background(), validRequest(), "", "demo")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, cause)

	// No internal retries beyond the client
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestGenerateValidation(t *testing.T) {
	g := New(&testutil.MockLLMClient{})

	tests := []struct {
		name string
		req  Request
	}{
		{"missing description", Request{TestName: "TC_X", FrameworkType: framework.TypePstaff}},
		{"missing test name", Request{Description: "d", FrameworkType: framework.TypePstaff}},
		{"unknown framework", Request{Description: "d", TestName: "TC_X", FrameworkType: framework.Type("nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), tt.req, "", "demo")
			var genErr *GenerationError
			assert.ErrorAs(t, err, &genErr)
		})
	}
}
