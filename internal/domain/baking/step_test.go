package baking

import (
	"errors"
	"testing"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from   StepStatus
		action StepAction
		policy StartPolicy
		want   StepStatus
		ok     bool
	}{
		{StepPending, ActionStart, StartLenient, StepInProgress, true},
		{StepInProgress, ActionStart, StartLenient, StepInProgress, true},
		{StepInProgress, ActionStart, StartStrict, StepInProgress, false},
		{StepCompleted, ActionStart, StartLenient, StepCompleted, false},
		{StepSkipped, ActionStart, StartLenient, StepSkipped, false},
		{StepFailed, ActionStart, StartLenient, StepFailed, false},

		{StepPending, ActionComplete, StartLenient, StepCompleted, true},
		{StepInProgress, ActionComplete, StartLenient, StepCompleted, true},
		{StepCompleted, ActionComplete, StartLenient, StepCompleted, false},
		{StepSkipped, ActionComplete, StartLenient, StepSkipped, false},

		{StepPending, ActionSkip, StartLenient, StepSkipped, true},
		{StepInProgress, ActionSkip, StartLenient, StepSkipped, true},
		{StepFailed, ActionSkip, StartLenient, StepFailed, false},

		{StepInProgress, ActionFail, StartLenient, StepFailed, true},
		{StepPending, ActionFail, StartLenient, StepPending, false},
		{StepCompleted, ActionFail, StartLenient, StepCompleted, false},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.from, tc.action, tc.policy)
		if tc.ok && err != nil {
			t.Fatalf("%s from %s (%s): unexpected err=%v", tc.action, tc.from, tc.policy, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s from %s (%s): want ErrInvalidTransition got=%v", tc.action, tc.from, tc.policy, err)
		}
		if got != tc.want {
			t.Fatalf("%s from %s (%s): want=%s got=%s", tc.action, tc.from, tc.policy, tc.want, got)
		}
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, s := range []StepStatus{StepCompleted, StepSkipped, StepFailed} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
		for _, a := range []StepAction{ActionStart, ActionComplete, ActionSkip, ActionFail} {
			if _, err := NextStatus(s, a, StartLenient); err == nil {
				t.Fatalf("%s from %s should be rejected", a, s)
			}
		}
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseStartPolicy(""); err != nil || p != StartLenient {
		t.Fatalf("default start policy: want=lenient got=%s err=%v", p, err)
	}
	if p, err := ParseStartPolicy("STRICT"); err != nil || p != StartStrict {
		t.Fatalf("strict: got=%s err=%v", p, err)
	}
	if _, err := ParseStartPolicy("eager"); err == nil {
		t.Fatalf("expected error for unknown start policy")
	}
	if p, err := ParseUnknownParameterPolicy("reject"); err != nil || p != UnknownParameterReject {
		t.Fatalf("reject: got=%s err=%v", p, err)
	}
	if p, _ := ParseUnknownParameterPolicy(""); p != UnknownParameterSkip {
		t.Fatalf("default unknown policy: want=skip got=%s", p)
	}
}
