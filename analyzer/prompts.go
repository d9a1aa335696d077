package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360studio/fwexpert/framework"
)

const analysisSystemPrompt = "You are an expert code analyzer. Analyze test automation framework source and return only valid JSON."

const mergeSystemPrompt = "You are an expert code analyzer. Analyze new framework files and merge them into an existing knowledge base. Return only valid JSON."

// buildAnalysisPrompt produces the full first-batch prompt for a framework type.
func buildAnalysisPrompt(ft framework.Type, files []File) string {
	switch ft {
	case framework.TypeClient:
		return buildClientAnalysisPrompt(files)
	default:
		return buildPstaffAnalysisPrompt(files)
	}
}

func buildPstaffAnalysisPrompt(files []File) string {
	return fmt.Sprintf(`Analyze this Python test automation framework (PSTAF) and create a comprehensive knowledge base.

=== FRAMEWORK FILES ===

%s

=== YOUR TASK ===

Create a JSON knowledge base that captures:

1. **Classes**: For each framework class, document:
   - Purpose and functionality
   - Key methods with signatures
   - Dependencies on other classes
   - Return value patterns

2. **Test Patterns**: From the example test suites, identify:
   - Common test patterns (admin login, user login, REST API calls, etc.)
   - The example test method name
   - Required classes and methods
   - Flow/sequence of operations
   - Keywords describing what each pattern is used for

3. **Mandatory Components**: Identify:
   - Required imports for different test types
   - Global object initialization pattern
   - INITIALIZE method structure
   - SuiteCleanup method structure

=== OUTPUT FORMAT ===

Return a JSON structure like this:

{
  "classes": {
    "AppAccess": {
      "purpose": "Browser-based authentication and access control",
      "key_methods": {
        "login": {
          "signature": "login(self, login_dict)",
          "purpose": "Perform browser login",
          "requires": ["BrowserActions", "ConfigUtils"],
          "input_format": "dict with type, url, username, password",
          "output_format": "dict with status (1/0) and value",
          "used_in_patterns": ["browser_admin_login"]
        }
      },
      "depends_on": ["BrowserActions", "ConfigUtils"]
    }
  },
  "test_patterns": {
    "browser_admin_login": {
      "example_method": "GEN_002_FUNC_BROWSER_ADMIN_LOGIN",
      "description": "Browser-based admin authentication test",
      "required_classes": ["AppAccess", "BrowserActions", "Utils", "ConfigUtils"],
      "required_methods": [
        {"class": "AppAccess", "method": "login"},
        {"class": "AppAccess", "method": "logout"}
      ],
      "flow": "login -> wait -> verify -> logout -> close",
      "keywords": ["admin", "login", "authentication", "browser", "GUI"]
    }
  },
  "mandatory_components": {
    "imports": ["from REST.REST import RestClient", "from Initialize import *"],
    "global_objects": ["restObj = None", "log = Log()", "initObj = Initialize()"],
    "structure": ["ROBOT_LIBRARY_SCOPE = 'GLOBAL'", "def INITIALIZE(self): ...", "def SuiteCleanup(self): ..."]
  },
  "common_dependencies": {
    "browser_tests": ["AppAccess", "BrowserActions", "Utils", "ConfigUtils", "Log"],
    "rest_tests": ["RestClient", "Utils", "ConfigUtils", "Log"],
    "all_tests": ["Initialize", "Utils", "Log"]
  }
}

Be comprehensive and precise. This knowledge base will be used to intelligently select relevant code pieces for test generation.`,
		formatFiles(files))
}

func buildClientAnalysisPrompt(files []File) string {
	return fmt.Sprintf(`Analyze this Python test automation framework (aut-pypdc Client Framework) and create a comprehensive knowledge base.

=== FRAMEWORK FILES ===

%s

=== YOUR TASK ===

Create a JSON knowledge base that captures:

1. **Classes**: For each framework class, document:
   - Purpose and functionality
   - Key methods with signatures
   - Dependencies on other classes
   - Return value patterns

2. **Test Patterns**: From the examples, identify:
   - Common test patterns (PPS REST API calls, authentication, configuration, etc.)
   - The example test method names (TC_001_..., TC_002_..., etc.)
   - Required classes and methods (PpsRestClient, FWUtils, Initialize, etc.)
   - Flow/sequence of operations
   - Keywords describing what each pattern is used for

3. **Mandatory Components**: Identify:
   - Required imports for different test types
   - Global object initialization pattern
   - INITIALIZE function structure
   - CLEANUP function structure

=== OUTPUT FORMAT ===

Return a JSON structure like this:

{
  "classes": {
    "PpsRestClient": {
      "purpose": "REST API client for PPS/Profiler operations",
      "key_methods": {
        "execute_request": {
          "signature": "execute_request(self, resource_uri, method_type, payload=None)",
          "purpose": "Execute REST API request",
          "requires": ["authentication"],
          "input_format": "uri string, method type (GET/PUT/POST/DELETE), optional payload dict",
          "output_format": "Response object with status_code and json()",
          "used_in_patterns": ["rest_api_config"]
        }
      },
      "depends_on": ["Authentication"]
    }
  },
  "test_patterns": {
    "rest_api_config": {
      "example_method": "TC_001_PPS_CONFIGURE_WMI",
      "description": "Configure PPS settings via REST API",
      "required_classes": ["PpsRestClient", "FWUtils", "Initialize", "CommonUtils"],
      "required_methods": [
        {"class": "PpsRestClient", "method": "execute_request"},
        {"class": "Initialize", "method": "initialize"}
      ],
      "flow": "INITIALIZE -> configure via REST -> verify -> CLEANUP",
      "keywords": ["REST", "API", "configuration", "PPS", "profiler"]
    }
  },
  "mandatory_components": {
    "imports": ["from FWUtils import FWUtils", "from Initialize import Initialize", "from admin_pps.PpsRestUtils import PpsRestClient"],
    "global_objects": ["objFwUtils = FWUtils()", "log = objFwUtils.get_logger(__name__, 1)", "pps_client = PpsRestClient()"],
    "structure": ["def INITIALIZE(): ...", "def TC_<ID>_PPS_<DESCRIPTION>(): ...", "def CLEANUP(): ..."]
  },
  "common_dependencies": {
    "rest_tests": ["PpsRestClient", "FWUtils", "Initialize", "CommonUtils"],
    "all_tests": ["FWUtils", "Initialize", "CommonUtils"]
  }
}

Be comprehensive and precise. This knowledge base will be used to intelligently select relevant code pieces for test generation.`,
		formatFiles(files))
}

// buildMergePrompt produces the incremental prompt: the accumulated knowledge
// plus a new batch of files, asking for the complete updated knowledge base.
func buildMergePrompt(ft framework.Type, current *framework.Knowledge, files []File) (string, error) {
	existing, err := json.MarshalIndent(wireFromKnowledge(current), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal existing knowledge: %w", err)
	}

	return fmt.Sprintf(`You are analyzing additional files for the %s test automation framework.

=== EXISTING KNOWLEDGE BASE ===
%s

=== NEW FILES TO ANALYZE ===
%s

=== YOUR TASK ===
Analyze the new files and UPDATE the knowledge base:
1. Add any NEW classes found to the "classes" section
2. Add any NEW test patterns found to "test_patterns" section
3. Update "mandatory_components" if new required imports or patterns are found
4. Update "common_dependencies" if new dependency patterns emerge

IMPORTANT:
- MERGE new information with existing knowledge
- Do NOT remove existing entries
- Only ADD or UPDATE based on new files

Return the COMPLETE UPDATED knowledge base as JSON.`,
		strings.ToUpper(ft.String()), existing, formatFiles(files)), nil
}

func formatFiles(files []File) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fmt.Sprintf("=== FILE: %s ===\n%s", f.Path, f.Content))
	}
	return strings.Join(parts, "\n\n")
}
