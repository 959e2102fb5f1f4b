package credential

import (
	"context"
	"errors"
	"testing"
)

func TestStatic(t *testing.T) {
	tok, err := Static("key-123").Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "key-123" {
		t.Errorf("expected key-123, got %q", tok)
	}

	tok, err = Static("").Token(context.Background())
	if err != nil || tok != "" {
		t.Errorf("expected empty key without error, got %q, %v", tok, err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BKPER_TEST_KEY", "from-env")
	p := FromEnv("BKPER_TEST_KEY")

	tok, err := p.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "from-env" {
		t.Errorf("expected from-env, got %q", tok)
	}

	t.Setenv("BKPER_TEST_KEY", "rotated")
	if tok, _ := p.Token(context.Background()); tok != "rotated" {
		t.Errorf("expected value read at call time, got %q", tok)
	}
}

func TestFromEnv_Unset(t *testing.T) {
	tok, err := FromEnv("BKPER_TEST_DEFINITELY_UNSET").Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "" {
		t.Errorf("expected empty, got %q", tok)
	}
}

func TestFunc(t *testing.T) {
	calls := 0
	p := Func(func(context.Context) (string, error) {
		calls++
		return "tok", nil
	})
	if tok, _ := p.Token(context.Background()); tok != "tok" {
		t.Errorf("expected tok, got %q", tok)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestSet_Resolve(t *testing.T) {
	oauthCalls, keyCalls := 0, 0
	s := Set{
		OAuth: Func(func(context.Context) (string, error) {
			oauthCalls++
			return "bearer", nil
		}),
		APIKey: Func(func(context.Context) (string, error) {
			keyCalls++
			return "key", nil
		}),
	}

	r, err := s.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Token != "bearer" || r.APIKey != "key" {
		t.Errorf("unexpected resolved values %+v", r)
	}
	if oauthCalls != 1 || keyCalls != 1 {
		t.Errorf("expected each provider once, got oauth=%d key=%d", oauthCalls, keyCalls)
	}
	if r.Empty() {
		t.Error("expected non-empty")
	}
}

func TestSet_ResolveEmpty(t *testing.T) {
	r, err := Set{}.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Empty() {
		t.Errorf("expected empty, got %+v", r)
	}

	r, _ = Set{APIKey: Static("")}.Resolve(context.Background())
	if !r.Empty() {
		t.Errorf("empty static key should resolve to nothing, got %+v", r)
	}
}

func TestSet_ResolveFailure(t *testing.T) {
	boom := errors.New("login required")

	tests := []struct {
		name   string
		set    Set
		source string
	}{
		{"oauth", Set{OAuth: Func(func(context.Context) (string, error) { return "", boom }), APIKey: Static("k")}, SourceOAuth},
		{"api key", Set{OAuth: Static("t"), APIKey: Func(func(context.Context) (string, error) { return "", boom })}, SourceAPIKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.set.Resolve(context.Background())
			if !IsResolutionError(err) {
				t.Fatalf("expected ResolutionError, got %v", err)
			}
			var re *ResolutionError
			errors.As(err, &re)
			if re.Source != tc.source {
				t.Errorf("expected source %q, got %q", tc.source, re.Source)
			}
			if !errors.Is(err, boom) {
				t.Error("expected cause to unwrap")
			}
		})
	}
}

func TestSet_OAuthFailureSkipsAPIKey(t *testing.T) {
	keyCalls := 0
	s := Set{
		OAuth: Func(func(context.Context) (string, error) { return "", errors.New("denied") }),
		APIKey: Func(func(context.Context) (string, error) {
			keyCalls++
			return "k", nil
		}),
	}
	if _, err := s.Resolve(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if keyCalls != 0 {
		t.Errorf("expected api key provider not consulted, got %d calls", keyCalls)
	}
}

func TestIsResolutionError(t *testing.T) {
	if IsResolutionError(errors.New("plain")) {
		t.Error("plain error is not a resolution error")
	}
	if IsResolutionError(nil) {
		t.Error("nil is not a resolution error")
	}
}
