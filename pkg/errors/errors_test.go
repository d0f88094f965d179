// SPDX-License-Identifier: Apache-2.0
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageFormat(t *testing.T) {
	err := New(CodeValidation, "bad argument", nil)
	if got := err.Error(); got != "[VALIDATION_ERROR] bad argument" {
		t.Errorf("unexpected message: %q", got)
	}

	wrapped := New(CodeProvider, "chat failed", stderrors.New("boom"))
	if got := wrapped.Error(); !strings.Contains(got, "boom") {
		t.Errorf("cause not included: %q", got)
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("dispatch: %w", New(CodeUnreachable, "agent offline", cause))

	var ae *Error
	if !stderrors.As(err, &ae) {
		t.Fatal("expected *Error in chain")
	}
	if ae.Code != CodeUnreachable {
		t.Errorf("code = %s, want UNREACHABLE", ae.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause lost in chain")
	}
}

func TestCodeOfAndHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeDuplicateName, "tool exists", nil))
	if CodeOf(err) != CodeDuplicateName {
		t.Errorf("CodeOf = %s", CodeOf(err))
	}
	if !HasCode(err, CodeDuplicateName) {
		t.Error("HasCode should match through wrapping")
	}
	if HasCode(err, CodeNotFound) {
		t.Error("HasCode matched wrong code")
	}
	if CodeOf(stderrors.New("plain")) != CodeInternal {
		t.Error("plain errors should map to INTERNAL_ERROR")
	}
}

func TestStatusCodes(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeNotFound:      404,
		CodeUnknownAgent:  404,
		CodeValidation:    400,
		CodeConfiguration: 400,
		CodeDuplicateName: 409,
		CodeUnreachable:   502,
		CodeRemote:        502,
		CodeInternal:      500,
		CodeToolExecution: 500,
	}
	for code, want := range cases {
		if got := New(code, "x", nil).StatusCode; got != want {
			t.Errorf("%s: status = %d, want %d", code, got, want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeToolExecution, "handler failed", stderrors.New("panic: nil map")).
		WithContext("tool", "calculate")

	data, merr := json.Marshal(err)
	if merr != nil {
		t.Fatalf("marshal: %v", merr)
	}
	var out map[string]interface{}
	if uerr := json.Unmarshal(data, &out); uerr != nil {
		t.Fatalf("unmarshal: %v", uerr)
	}
	if out["code"] != "TOOL_EXECUTION_ERROR" {
		t.Errorf("code = %v", out["code"])
	}
	ctx, ok := out["context"].(map[string]interface{})
	if !ok || ctx["tool"] != "calculate" {
		t.Errorf("context = %v", out["context"])
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Error("nil should stay nil")
	}
	plain := stderrors.New("oops")
	ae := AsError(plain)
	if ae.Code != CodeInternal || !stderrors.Is(ae, plain) {
		t.Errorf("plain error not wrapped as internal: %v", ae)
	}
	typed := New(CodeRemote, "remote said no", nil)
	if AsError(typed) != typed {
		t.Error("typed error should pass through")
	}
}
