// Package validator inspects generated test scripts for the structural
// conventions the target framework demands. Checks are advisory: the
// validator never blocks or rewrites a script, it only reports flags.
package validator

import (
	"fmt"
	"strings"

	"github.com/c360studio/fwexpert/framework"
)

// Flags reports which mandatory structural markers a script carries.
type Flags struct {
	HasInitialize    bool `json:"has_initialize"`
	HasCleanup       bool `json:"has_cleanup"`
	HasGlobalObjects bool `json:"has_global_objects"`
}

// markers lists the substrings checked per framework type. Initialize
// and cleanup need their exact definition line; global objects pass on
// any one of the conventional module-level instantiations.
type markers struct {
	initialize string
	cleanup    string
	globals    []string
}

func markersFor(ft framework.Type) markers {
	switch ft {
	case framework.TypePstaff:
		return markers{
			initialize: "def INITIALIZE(",
			cleanup:    "def SuiteCleanup(",
			globals: []string{
				"log = Log()",
				"appaccess = AppAccess()",
				"initObj = Initialize()",
				"restObj = RestClient()",
			},
		}
	case framework.TypeClient:
		return markers{
			initialize: "def INITIALIZE(",
			cleanup:    "def CLEANUP(",
			globals: []string{
				"objFwUtils = FWUtils()",
				"objInitialize = Initialize()",
				"objCommonUtils = CommonUtils()",
				"pps_client = PpsRestClient()",
			},
		}
	default:
		return markers{}
	}
}

// Check computes structural flags for a generated script.
func Check(script string, ft framework.Type) Flags {
	m := markersFor(ft)

	flags := Flags{
		HasInitialize: m.initialize != "" && strings.Contains(script, m.initialize),
		HasCleanup:    m.cleanup != "" && strings.Contains(script, m.cleanup),
	}
	for _, g := range m.globals {
		if strings.Contains(script, g) {
			flags.HasGlobalObjects = true
			break
		}
	}
	return flags
}

// AllPresent reports whether every mandatory marker was found.
func (f Flags) AllPresent() bool {
	return f.HasInitialize && f.HasCleanup && f.HasGlobalObjects
}

// Warnings lists human-readable advisories for missing markers.
// Empty when the script is structurally complete.
func (f Flags) Warnings() []string {
	var w []string
	if !f.HasInitialize {
		w = append(w, "script is missing the mandatory initialization routine")
	}
	if !f.HasCleanup {
		w = append(w, "script is missing the mandatory cleanup routine")
	}
	if !f.HasGlobalObjects {
		w = append(w, "script does not instantiate the framework's module-level global objects")
	}
	return w
}

// String summarises the flags for logs.
func (f Flags) String() string {
	return fmt.Sprintf("initialize=%t cleanup=%t globals=%t", f.HasInitialize, f.HasCleanup, f.HasGlobalObjects)
}
