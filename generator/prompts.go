package generator

import (
	"fmt"
	"strings"

	"github.com/c360studio/fwexpert/framework"
)

const generationSystemPrompt = "You are an expert test automation engineer specializing in Python test frameworks. Generate clean, production-ready code following framework patterns exactly."

// buildGenerationPrompt assembles the single synthesis prompt: retrieved
// framework context, the demo exemplar as structural anchor, the request,
// and the per-framework mandatory structure.
func buildGenerationPrompt(req Request, contextText, demoExemplar string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert test automation engineer. Generate a complete, production-ready Python test script based on the test case description provided.\n\n")

	sb.WriteString("IMPORTANT FRAMEWORK CONTEXT:\n")
	sb.WriteString("Below is the framework knowledge and the example test suite you MUST follow. Study the examples carefully and use the EXACT same patterns, imports, and structure.\n\n")

	if contextText != "" {
		sb.WriteString(contextText)
		sb.WriteString("\n\n")
	}
	sb.WriteString(demoExemplar)
	sb.WriteString("\n\n")

	sb.WriteString("=== TEST CASE TO IMPLEMENT ===\n")
	fmt.Fprintf(&sb, "Test Method Name: %s\n\n", req.TestName)
	sb.WriteString("Test Case Description:\n")
	sb.WriteString(req.Description)
	sb.WriteString("\n\n")

	switch req.FrameworkType {
	case framework.TypePstaff:
		sb.WriteString(pstaffRequirements(req.TestName))
	case framework.TypeClient:
		sb.WriteString(clientRequirements(req.TestName))
	}

	return sb.String()
}

func pstaffRequirements(testName string) string {
	return fmt.Sprintf(`=== CRITICAL REQUIREMENTS ===

1. IMPORTS - Use the EXACT same imports as shown in the example suite
   (from Initialize import *, from AppAccess import *, from Log import *,
   from REST.REST import RestClient, import sys, time, inspect).

2. GLOBAL OBJECT INITIALIZATION at module level, before the class
   (log = Log(), initObj = Initialize(), util = Utils(),
   appaccess = AppAccess(), browseractions = BrowserActions(),
   restObj = RestClient()). NEVER create new instances inside test methods.

3. CLASS STRUCTURE (MANDATORY):
   - ROBOT_LIBRARY_SCOPE = 'GLOBAL' and a no-op __init__
   - def INITIALIZE(self): as the mandatory FIRST method
   - def %s(self): implementing the test case
   - def SuiteCleanup(self): as the mandatory LAST method

4. TEST METHOD STRUCTURE: tc_name = inspect.stack()[0][3] first,
   log.setloggingconf() as the first line in the try block,
   util.TC_HEADER_FOOTER('Start'/'End', tc_name) bracketing the body,
   assert return_dict['status'] == 1 after each framework operation,
   screenshot and browser close in the except path.

5. KEEP IT SIMPLE - follow the example suite methods exactly; do not
   invent xpaths or workflows the examples do not show.

6. Generate ONLY the Python code, no markdown formatting.

Generate the complete test script now with INITIALIZE, %s, and SuiteCleanup methods:`, testName, testName)
}

func clientRequirements(testName string) string {
	return fmt.Sprintf(`=== CRITICAL REQUIREMENTS ===

1. Produce the three-file structure from the examples: a Data file, a
   TestSuite file, and a pytest runner. The TestSuite file is the main
   deliverable.

2. IMPORTS - Use the EXACT same imports as shown in the example suite
   (from FWUtils import FWUtils, from Initialize import Initialize,
   from CommonUtils import CommonUtils,
   from admin_pps.PpsRestUtils import PpsRestClient, import sys).

3. GLOBAL OBJECT INITIALIZATION at module level
   (objFwUtils = FWUtils(), log = objFwUtils.get_logger(__name__, 1),
   objInitialize = Initialize(), objCommonUtils = CommonUtils(),
   pps_client = PpsRestClient()). All REST traffic goes through the
   module-level pps_client; never create per-test clients.

4. FUNCTION STRUCTURE (MANDATORY):
   - def INITIALIZE(): runs first via setup_module
   - def %s(): implementing the test case, returning True/False
   - def CLEANUP(): runs last via teardown_module
   Each function logs tc_id [START]/[PASSED or FAILED]/[END] and takes a
   screenshot via objCommonUtils.get_screenshot on assertion failure.

5. REST calls use pps_client.execute_request(resource_uri=...,
   method_type=pps_client.GET/PUT/POST, payload=...) and assert on
   response.status_code.

6. Generate ONLY the Python code, no markdown formatting.

Generate the complete test suite now with INITIALIZE, %s, and CLEANUP:`, testName, testName)
}
