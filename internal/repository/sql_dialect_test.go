package repository

import (
	"strings"
	"testing"
)

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres like operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite like operator want LIKE got %s", got)
	}
	if got := likeOperatorByDialect(""); got != "LIKE" {
		t.Fatalf("default like operator want LIKE got %s", got)
	}
}

func TestBuildSearchLikeCondition(t *testing.T) {
	condition, argCount := buildSearchLikeConditionByDialect("sqlite", []string{"name", "description", " "})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if !strings.Contains(condition, "name LIKE ?") {
		t.Fatalf("condition should contain name LIKE, got %s", condition)
	}
	if !strings.Contains(condition, " OR ") {
		t.Fatalf("condition should join with OR, got %s", condition)
	}

	pgCondition, _ := buildSearchLikeConditionByDialect("postgres", []string{"name"})
	if pgCondition != "name ILIKE ?" {
		t.Fatalf("postgres condition mismatch, got %s", pgCondition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%tee%", 3)
	if len(args) != 3 {
		t.Fatalf("args length want 3 got %d", len(args))
	}
	for _, arg := range args {
		if arg != "%tee%" {
			t.Fatalf("unexpected arg %v", arg)
		}
	}
}
