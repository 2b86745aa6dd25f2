package router

import (
	"testing"

	"github.com/semgate-ai/semgate/pkg/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		query string
		want  Complexity
	}{
		{"ls", Trivial},
		{"what is a goroutine", Simple},
		{"how do I configure nginx for websockets", Moderate},
		{"why is my program slow", Moderate},
		{"explain the borrow checker to me", Complex},
		{"review this function for bugs", Complex},
		{"what is the best approach to sharding a postgres database", Expert},
		{"should i use microservices here", Expert},
	}
	for _, tc := range cases {
		if got := Classify(tc.query); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestClassifyLongQueries(t *testing.T) {
	// 16 words with no keywords still counts as complex.
	long := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen"
	if got := Classify(long); got != Complex {
		t.Errorf("expected long query to be complex, got %s", got)
	}
}

func TestMinTier(t *testing.T) {
	if Trivial.MinTier() != models.TierCache {
		t.Error("trivial should target cache")
	}
	if Simple.MinTier() != models.TierLocal {
		t.Error("simple should target local")
	}
	for _, c := range []Complexity{Moderate, Complex, Expert} {
		if c.MinTier() != models.TierCloud {
			t.Errorf("%s should target cloud", c)
		}
	}
}

func TestRouteParanoid(t *testing.T) {
	r := New(true)
	dec := r.Route("design a distributed architecture for payment processing", "")
	if dec.Tier != models.TierLocal {
		t.Errorf("paranoid mode must stay local, got %s", dec.Tier)
	}
	if !dec.Blocked {
		t.Error("expected decision to be marked blocked")
	}
}

func TestRouteBudgetCap(t *testing.T) {
	r := New(false)
	dec := r.Route("explain how garbage collection works in detail", models.TierLocal)
	if dec.Tier != models.TierLocal {
		t.Errorf("expected cap to local, got %s", dec.Tier)
	}
	if !dec.Capped {
		t.Error("expected decision to be marked capped")
	}

	// No cap when the chosen tier is already within budget.
	dec = r.Route("ls", models.TierLocal)
	if dec.Capped {
		t.Error("trivial query should not be capped")
	}
}

func TestCap(t *testing.T) {
	if tier, capped := Cap(models.TierCloud, models.TierLocal); tier != models.TierLocal || !capped {
		t.Errorf("expected cloud capped to local, got %s", tier)
	}
	if tier, capped := Cap(models.TierLocal, models.TierCloud); tier != models.TierLocal || capped {
		t.Errorf("expected local unchanged, got %s", tier)
	}
	if tier, capped := Cap(models.TierOpus, ""); tier != models.TierOpus || capped {
		t.Errorf("expected no cap with empty maxTier, got %s", tier)
	}
}
