package apierr

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
)

func TestFromMapsAggregateCodes(t *testing.T) {
	cases := []struct {
		code   domainagg.ErrorCode
		status int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeInvalidState, http.StatusConflict},
		{domainagg.CodePersistence, http.StatusInternalServerError},
		{domainagg.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := From(domainagg.NewError(tc.code, "op", "detail", nil))
		if got.Status != tc.status {
			t.Fatalf("%s: want=%d got=%d", tc.code, tc.status, got.Status)
		}
	}
}

func TestFromHidesPersistenceDetail(t *testing.T) {
	err := domainagg.Wrap(domainagg.CodePersistence, "op", errors.New("pq: relation bake does not exist"))
	got := From(err)
	if strings.Contains(got.Error(), "relation") {
		t.Fatalf("persistence detail leaked: %q", got.Error())
	}
}

func TestFromUnknownIsInternal(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("unknown: want=500/internal got=%d/%s", got.Status, got.Code)
	}
}
