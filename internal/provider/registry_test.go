package provider

import (
	"testing"

	"github.com/rmartin/veracity/internal/model"
)

// matchProvider matches only the configured tag pair.
type matchProvider struct {
	fakeProvider
	domains       map[string]bool
	jurisdictions map[string]bool
}

func (m *matchProvider) Matches(domainTag, jurisdiction string) bool {
	return m.domains[domainTag] && m.jurisdictions[jurisdiction]
}

func newRegistryFixture() (*Registry, *fakeProvider, *matchProvider) {
	web := &fakeProvider{name: "web", kind: model.KindWeb}
	stats := &matchProvider{
		fakeProvider:  fakeProvider{name: "ons", kind: model.KindDomainAPI},
		domains:       map[string]bool{"economics": true, "statistics": true, "health": true},
		jurisdictions: map[string]bool{"uk": true, "global": true},
	}
	reg := NewRegistryOf(newTestWrap(web, nil, nil), newTestWrap(stats, nil, nil))
	return reg, web, stats
}

func TestRegistry_SelectMatchesDomainAndJurisdiction(t *testing.T) {
	reg, _, _ := newRegistryFixture()

	tests := []struct {
		name         string
		domainTag    string
		jurisdiction string
		want         []string
	}{
		{"economics uk selects both", "economics", "uk", []string{"web", "ons"}},
		{"politics uk selects web only", "politics", "uk", []string{"web"}},
		{"economics us selects web only", "economics", "us", []string{"web"}},
		{"empty tags normalize to general/global", "", "", []string{"web"}},
		{"case and whitespace are ignored", "  Economics ", "UK", []string{"web", "ons"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Select(tt.domainTag, tt.jurisdiction)
			if len(got) != len(tt.want) {
				t.Fatalf("selected %d providers, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.Name() != tt.want[i] {
					t.Errorf("provider %d = %s, want %s", i, p.Name(), tt.want[i])
				}
			}
		})
	}
}

func TestRegistry_WebIsAlwaysSelected(t *testing.T) {
	reg, _, _ := newRegistryFixture()
	for _, tag := range []string{"general", "science", "nonsense"} {
		got := reg.Select(tag, "global")
		if len(got) == 0 || got[0].Name() != "web" {
			t.Fatalf("web provider missing for tag %q", tag)
		}
	}
}

func TestRegistry_SelectPreservesRegistrationOrder(t *testing.T) {
	reg, _, _ := newRegistryFixture()
	got := reg.Select("economics", "uk")
	if len(got) != 2 || got[0].Name() != "web" || got[1].Name() != "ons" {
		t.Fatalf("unexpected order: %v", names(got))
	}
}

func TestRegistry_StandardSetFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	reg := NewRegistry(cfg, nil, nil, nil)

	want := []string{"web", "wikipedia", "ons", "factcheck"}
	all := reg.All()
	if len(all) != len(want) {
		t.Fatalf("registered %d providers, want %d", len(all), len(want))
	}
	for i, p := range all {
		if p.Name() != want[i] {
			t.Errorf("provider %d = %s, want %s", i, p.Name(), want[i])
		}
	}
	for _, p := range all {
		if p.TTL() <= 0 {
			t.Errorf("provider %s has non-positive TTL %v", p.Name(), p.TTL())
		}
	}
}

func TestRegistry_APICallTotalStartsAtZero(t *testing.T) {
	reg, _, _ := newRegistryFixture()
	if got := reg.APICallTotal(); got != 0 {
		t.Errorf("expected 0 calls before any search, got %d", got)
	}
	snaps := reg.BreakerSnapshots()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 breaker snapshots, got %d", len(snaps))
	}
	for _, s := range snaps {
		if s.State != "closed" {
			t.Errorf("breaker %s starts %s, want closed", s.Name, s.State)
		}
	}
}

func names(ps []*Resilient) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name()
	}
	return out
}
