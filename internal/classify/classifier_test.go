package classify

import (
	"testing"

	"github.com/rmartin/veracity/internal/model"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name             string
		claim            model.Claim
		wantDomain       string
		wantJurisdiction string
	}{
		{
			name:             "uk inflation claim",
			claim:            model.Claim{Text: "UK inflation fell to 5.2% in October according to the ONS"},
			wantDomain:       "economics",
			wantJurisdiction: "uk",
		},
		{
			name:             "health claim with entity",
			claim:            model.Claim{Text: "Waiting lists grew last year", KeyEntities: []string{"NHS"}},
			wantDomain:       "health",
			wantJurisdiction: "uk",
		},
		{
			name:             "us politics claim",
			claim:            model.Claim{Text: "Congress passed the bill with a two-thirds majority"},
			wantDomain:       "politics",
			wantJurisdiction: "us",
		},
		{
			name:             "unmatched claim falls back",
			claim:            model.Claim{Text: "The painting was sold at auction for a record sum"},
			wantDomain:       model.DomainGeneral,
			wantJurisdiction: model.JurisdictionGlobal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.claim)
			if got.DomainTag != tt.wantDomain {
				t.Errorf("domain = %q, want %q", got.DomainTag, tt.wantDomain)
			}
			if got.Jurisdiction != tt.wantJurisdiction {
				t.Errorf("jurisdiction = %q, want %q", got.Jurisdiction, tt.wantJurisdiction)
			}
		})
	}
}

func TestClassify_EmptyTextSkipsTables(t *testing.T) {
	c := NewClassifier()
	for _, text := range []string{"", "   ", "\n\t"} {
		got := c.Classify(model.Claim{Text: text})
		if got.DomainTag != model.DomainGeneral || got.Jurisdiction != model.JurisdictionGlobal {
			t.Errorf("Classify(%q) = %+v, want general/global", text, got)
		}
		if got.Confidence != 0.0 {
			t.Errorf("Classify(%q) confidence = %v, want 0", text, got.Confidence)
		}
	}
}

func TestClassify_ConfidenceGrowsWithHits(t *testing.T) {
	c := NewClassifier()
	weak := c.Classify(model.Claim{Text: "the economy changed"})
	strong := c.Classify(model.Claim{Text: "UK inflation and unemployment both fell, the ONS said"})
	if strong.Confidence <= weak.Confidence {
		t.Errorf("expected more hits to raise confidence: weak=%v strong=%v", weak.Confidence, strong.Confidence)
	}
}
