package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockGenerator_deterministic(t *testing.T) {
	g := NewMockGenerator()
	prompt := PromptContext{ScenarioName: "oljRecipeAvailable", DishName: "tabbouleh"}

	first, err := g.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatal(err)
	}
	if first == "" {
		t.Fatal("expected a phrase for oljRecipeAvailable")
	}
	for i := 0; i < 5; i++ {
		again, err := g.Generate(context.Background(), prompt)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("mock generator not deterministic: %q vs %q", again, first)
		}
	}
}

func TestMockGenerator_templatedScenariosStayEmpty(t *testing.T) {
	g := NewMockGenerator()
	for _, name := range []string{"greeting", "aboutBot", "nonFrench", "offTopicRedirect"} {
		got, err := g.Generate(context.Background(), PromptContext{ScenarioName: name})
		if err != nil {
			t.Fatal(err)
		}
		if got != "" {
			t.Errorf("scenario %s: expected empty generation, got %q", name, got)
		}
	}
}

type slowGenerator struct{ delay time.Duration }

func (s *slowGenerator) Name() string { return "slow" }

func (s *slowGenerator) Generate(ctx context.Context, _ PromptContext) (string, error) {
	select {
	case <-time.After(s.delay):
		return "trop tard", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestWithTimeout_cutsOffSlowProvider(t *testing.T) {
	g := NewWithTimeout(&slowGenerator{delay: 2 * time.Second}, 50*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), PromptContext{ScenarioName: "greeting"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout did not bound the call: took %s", elapsed)
	}
}

func TestWithTimeout_passesThroughFastProvider(t *testing.T) {
	g := NewWithTimeout(NewMockGenerator(), time.Second)
	got, err := g.Generate(context.Background(), PromptContext{ScenarioName: "base2PlusOljSuggestion", DishName: "hummus"})
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected phrase from wrapped mock")
	}
}
