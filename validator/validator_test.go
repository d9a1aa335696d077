package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/fwexpert/framework"
)

const pstaffComplete = `from Initialize import *
from Log import *

log = Log()
initObj = Initialize()

class LoginSuite(object):
    ROBOT_LIBRARY_SCOPE = 'GLOBAL'

    def INITIALIZE(self):
        pass

    def TC_VERIFY_ADMIN_LOGIN(self):
        pass

    def SuiteCleanup(self):
        pass
`

const clientComplete = `from FWUtils import FWUtils
from Initialize import Initialize

objFwUtils = FWUtils()
pps_client = PpsRestClient()

def INITIALIZE():
    return True

def TC_001_PPS_CONFIGURE_WMI():
    return True

def CLEANUP():
    return True
`

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		script string
		ft     framework.Type
		want   Flags
	}{
		{
			name:   "pstaff complete",
			script: pstaffComplete,
			ft:     framework.TypePstaff,
			want:   Flags{HasInitialize: true, HasCleanup: true, HasGlobalObjects: true},
		},
		{
			name:   "client complete",
			script: clientComplete,
			ft:     framework.TypeClient,
			want:   Flags{HasInitialize: true, HasCleanup: true, HasGlobalObjects: true},
		},
		{
			name:   "empty script",
			script: "",
			ft:     framework.TypePstaff,
			want:   Flags{},
		},
		{
			name:   "missing all markers",
			script: "def test_x():\n    assert True\n",
			ft:     framework.TypePstaff,
			want:   Flags{},
		},
		{
			name:   "pstaff cleanup name does not satisfy client",
			script: pstaffComplete,
			ft:     framework.TypeClient,
			want:   Flags{HasInitialize: true},
		},
		{
			name:   "initialize call without definition does not count",
			script: "result = INITIALIZE()\n",
			ft:     framework.TypePstaff,
			want:   Flags{},
		},
		{
			name:   "single global object suffices",
			script: "restObj = RestClient()\n",
			ft:     framework.TypePstaff,
			want:   Flags{HasGlobalObjects: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.script, tt.ft))
		})
	}
}

func TestFlagsAllPresent(t *testing.T) {
	assert.True(t, Check(pstaffComplete, framework.TypePstaff).AllPresent())
	assert.False(t, Check("", framework.TypePstaff).AllPresent())
}

func TestFlagsWarnings(t *testing.T) {
	flags := Check(pstaffComplete, framework.TypePstaff)
	assert.Empty(t, flags.Warnings())

	flags = Check("", framework.TypeClient)
	assert.Len(t, flags.Warnings(), 3)

	flags = Flags{HasInitialize: true, HasCleanup: true}
	warnings := flags.Warnings()
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "global objects")
}
