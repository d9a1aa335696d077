package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fwexpert/config"
	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/knowledge"
	"github.com/c360studio/fwexpert/llm"
	"github.com/c360studio/fwexpert/llm/testutil"
)

const knowledgeJSON = `{
  "classes": {
    "AppAccess": {
      "purpose": "Browser-based authentication",
      "key_methods": {
        "login": {"signature": "login(self, login_dict)", "purpose": "Perform browser login"}
      },
      "depends_on": ["BrowserActions"]
    }
  },
  "test_patterns": {
    "browser_admin_login": {
      "example_method": "GEN_002_FUNC_BROWSER_ADMIN_LOGIN",
      "description": "Browser-based admin authentication test",
      "required_classes": ["AppAccess", "BrowserActions"],
      "flow": "login -> verify -> logout",
      "keywords": ["admin", "login", "browser"]
    }
  },
  "mandatory_components": {
    "imports": ["from Initialize import *"],
    "global_objects": ["log = Log()"],
    "structure": ["def INITIALIZE(self): ..."]
  },
  "common_dependencies": {
    "all_tests": ["Initialize", "Log"]
  }
}`

func newTestAnalyzer(t *testing.T, mock *testutil.MockLLMClient) (*Analyzer, *knowledge.Store) {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "AppAccess.py", "class AppAccess:\n    def login(self, d):\n        pass\n")
	writeFile(t, root, "Utils.py", "class Utils:\n    def wait(self):\n        pass\n")

	store := knowledge.NewStore(knowledge.NewMemKV())
	cfg := config.AnalyzerConfig{
		Sources: map[string]config.SourceConfig{
			"pstaff": {Root: root},
		},
		BatchSize: 10,
		Condense:  false,
	}
	return New(store, mock, cfg), store
}

func TestAnalyzeHappyPath(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "```json\n" + knowledgeJSON + "\n```", Model: "test-model"},
		},
	}
	a, store := newTestAnalyzer(t, mock)

	stats, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.NoError(t, err)
	assert.Equal(t, framework.StatusAnalyzed, stats.Status)
	assert.Equal(t, 1, stats.ClassesCount)
	assert.Equal(t, 1, stats.PatternsCount)

	k, err := store.Get(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Contains(t, k.Classes, "AppAccess")
	require.Len(t, k.Patterns, 1)
	assert.Equal(t, "browser_admin_login", k.Patterns[0].Name)
	assert.Equal(t, []string{"from Initialize import *"}, k.Mandatory.Imports)
}

func TestAnalyzeIdempotent(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: knowledgeJSON, Model: "test-model"},
		},
	}
	a, _ := newTestAnalyzer(t, mock)

	_, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.NoError(t, err)
	firstCalls := mock.GetCallCount()

	// Second analyze without force returns stats without any collaborator call
	stats, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.NoError(t, err)
	assert.Equal(t, framework.StatusAnalyzed, stats.Status)
	assert.Equal(t, firstCalls, mock.GetCallCount())
}

func TestAnalyzeForceReruns(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: knowledgeJSON, Model: "test-model"},
			{Content: knowledgeJSON, Model: "test-model"},
		},
	}
	a, _ := newTestAnalyzer(t, mock)

	_, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.NoError(t, err)
	firstCalls := mock.GetCallCount()

	_, err = a.Analyze(ctx, framework.TypePstaff, true)
	require.NoError(t, err)
	assert.Greater(t, mock.GetCallCount(), firstCalls)
}

func TestAnalyzeConflict(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{}
	a, store := newTestAnalyzer(t, mock)

	// Hold the lease so Analyze cannot claim it
	lease, err := store.Begin(ctx, framework.TypePstaff)
	require.NoError(t, err)
	defer store.Abort(ctx, lease, nil)

	_, err = a.Analyze(ctx, framework.TypePstaff, true)
	assert.ErrorIs(t, err, knowledge.ErrAnalysisInProgress)
}

func TestAnalyzeMalformedResponseAborts(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "I could not produce the analysis you asked for.", Model: "test-model"},
		},
	}
	a, store := newTestAnalyzer(t, mock)

	_, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, "parse", analysisErr.Stage)

	// Failed first analysis releases the lease back to not_analyzed
	stats, err := store.Stats(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Equal(t, framework.StatusNotAnalyzed, stats.Status)

	// And a retry may begin immediately
	lease, err := store.Begin(ctx, framework.TypePstaff)
	require.NoError(t, err)
	require.NoError(t, store.Abort(ctx, lease, nil))
}

func TestAnalyzeFailureKeepsPriorKnowledgeStale(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: knowledgeJSON, Model: "test-model"},
			{Content: "not json", Model: "test-model"},
		},
	}
	a, store := newTestAnalyzer(t, mock)

	_, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.NoError(t, err)

	_, err = a.Analyze(ctx, framework.TypePstaff, true)
	require.Error(t, err)

	stats, err := store.Stats(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Equal(t, framework.StatusStale, stats.Status)

	// Prior artifact is still readable
	k, err := store.Get(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Contains(t, k.Classes, "AppAccess")
}

func TestAnalyzeNoSourceConfigured(t *testing.T) {
	ctx := context.Background()
	mock := &testutil.MockLLMClient{}
	store := knowledge.NewStore(knowledge.NewMemKV())
	a := New(store, mock, config.AnalyzerConfig{BatchSize: 5})

	_, err := a.Analyze(ctx, framework.TypeClient, false)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, "scan", analysisErr.Stage)
}

func TestIngestFiles(t *testing.T) {
	ctx := context.Background()

	const extendedJSON = `{
  "classes": {
    "AppAccess": {"purpose": "Browser-based authentication"},
    "RestClient": {"purpose": "REST API access"}
  },
  "test_patterns": {
    "rest_api_call": {
      "example_method": "GEN_002_FUNC_GET_ACTIVE_USERS_VIA_REST",
      "description": "REST API query test",
      "keywords": ["REST", "API"]
    }
  },
  "mandatory_components": {},
  "common_dependencies": {}
}`

	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: knowledgeJSON, Model: "test-model"},
			{Content: extendedJSON, Model: "test-model"},
		},
	}
	a, store := newTestAnalyzer(t, mock)

	_, err := a.Analyze(ctx, framework.TypePstaff, false)
	require.NoError(t, err)

	stats, err := a.IngestFiles(ctx, framework.TypePstaff, []File{
		{Path: "REST/RestClient.py", Content: "class RestClient: pass"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ClassesCount)
	assert.Equal(t, 2, stats.PatternsCount)

	k, err := store.Get(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Contains(t, k.Classes, "RestClient")

	// Existing pattern order preserved, new pattern appended
	require.Len(t, k.Patterns, 2)
	assert.Equal(t, "browser_admin_login", k.Patterns[0].Name)
	assert.Equal(t, "rest_api_call", k.Patterns[1].Name)
}

func TestPackBatches(t *testing.T) {
	a := &Analyzer{batchSize: 2}

	files := []File{
		{Path: "a.py", Content: "aaa"},
		{Path: "b.py", Content: "bbb"},
		{Path: "c.py", Content: "ccc"},
	}

	batches := a.pack(files)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
}
