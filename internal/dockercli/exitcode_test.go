// SPDX-License-Identifier: MPL-2.0

package dockercli

import "testing"

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code        ExitCode
		success     bool
		engineError bool
	}{
		{code: 0, success: true, engineError: false},
		{code: 1, success: false, engineError: false},
		{code: 125, success: false, engineError: true},
		{code: 126, success: false, engineError: true},
		{code: 127, success: false, engineError: false},
		{code: 137, success: false, engineError: false},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			t.Parallel()
			if got := tt.code.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.success)
			}
			if got := tt.code.IsEngineError(); got != tt.engineError {
				t.Errorf("IsEngineError() = %v, want %v", got, tt.engineError)
			}
		})
	}
}

func TestExitCodeString(t *testing.T) {
	t.Parallel()

	if got := ExitCode(125).String(); got != "125" {
		t.Errorf("String() = %q, want %q", got, "125")
	}
}
