package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
)

func TestInjectedTxRunner(t *testing.T) {
	boom := errors.New("boom")
	commitErr := errors.New("commit failed")
	beginErr := errors.New("begin failed")

	cases := []struct {
		name         string
		runner       *InjectedTxRunner
		body         error
		wantErr      error
		wantRan      bool
		wantCommit   int
		wantRollback int
	}{
		{name: "commit", runner: &InjectedTxRunner{}, wantRan: true, wantCommit: 1},
		{name: "body error", runner: &InjectedTxRunner{}, body: boom, wantErr: boom, wantRan: true, wantRollback: 1},
		{name: "commit failure", runner: &InjectedTxRunner{FailCommit: commitErr}, wantErr: commitErr, wantRan: true, wantRollback: 1},
		{name: "before body", runner: &InjectedTxRunner{FailBeforeBody: boom}, wantErr: boom, wantRollback: 1},
		{name: "begin failure", runner: &InjectedTxRunner{FailBegin: beginErr}, wantErr: beginErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			err := tc.runner.InTx(context.Background(), func(dbctx.Context) error {
				ran = true
				return tc.body
			})
			if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Fatalf("err: want=%v got=%v", tc.wantErr, err)
			}
			if ran != tc.wantRan {
				t.Fatalf("body ran: want=%v got=%v", tc.wantRan, ran)
			}
			r := tc.runner
			if r.BeginCalls != 1 || r.CommitCalls != tc.wantCommit || r.RollbackCalls != tc.wantRollback {
				t.Fatalf("counters: begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
			}
		})
	}
}

func TestInjectedTxRunnerRollsBackInner(t *testing.T) {
	inner := &InjectedTxRunner{}
	commitErr := errors.New("commit failed")
	r := &InjectedTxRunner{Inner: inner, FailCommit: commitErr}
	if err := r.InTx(context.Background(), func(dbctx.Context) error { return nil }); !errors.Is(err, commitErr) {
		t.Fatalf("err: want=%v got=%v", commitErr, err)
	}
	if inner.BeginCalls != 1 || inner.RollbackCalls != 1 || inner.CommitCalls != 0 {
		t.Fatalf("inner counters: begin=%d commit=%d rollback=%d", inner.BeginCalls, inner.CommitCalls, inner.RollbackCalls)
	}
}
