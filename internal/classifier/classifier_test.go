package classifier

import (
	"testing"

	"golang-imputation-service/internal/models"
)

func TestIsPointInTime(t *testing.T) {
	tests := []struct {
		name          string
		qualifiedName string
		label         string
		want          bool
	}{
		{
			name:          "cash balance by name",
			qualifiedName: "us-gaap:CashAndCashEquivalentsAtCarryingValue",
			want:          true,
		},
		{
			name:          "restricted cash",
			qualifiedName: "us-gaap:RestrictedCashAndCashEquivalents",
			want:          true,
		},
		{
			name:          "end of period by label",
			qualifiedName: "us-gaap:CustomTag",
			label:         "Cash, end of period",
			want:          true,
		},
		{
			name:          "beginning of year by label",
			qualifiedName: "us-gaap:CustomTag",
			label:         "Balance, beginning of year",
			want:          true,
		},
		{
			name:          "shares outstanding",
			qualifiedName: "us-gaap:CommonStockSharesOutstanding",
			want:          true,
		},
		{
			name:          "period increase decrease",
			qualifiedName: "us-gaap:CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsPeriodIncreaseDecreaseIncludingExchangeRateEffect",
			want:          true,
		},
		{
			name:          "exchange rate effect",
			qualifiedName: "us-gaap:EffectOfExchangeRateOnCashAndCashEquivalents",
			want:          true,
		},
		{
			name:          "revenue is a flow",
			qualifiedName: "us-gaap:Revenues",
			label:         "Total revenues",
			want:          false,
		},
		{
			name:          "operating cash flow is a flow",
			qualifiedName: "us-gaap:NetCashProvidedByUsedInOperatingActivities",
			label:         "Net cash provided by operating activities",
			want:          false,
		},
		{
			name:          "net income is a flow",
			qualifiedName: "us-gaap:NetIncomeLoss",
			want:          false,
		},
		{
			name:          "case insensitive",
			qualifiedName: "custom:CASHANDCASHEQUIVALENTS",
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Concept{QualifiedName: tt.qualifiedName, Label: tt.label}
			if got := IsPointInTime(c); got != tt.want {
				t.Errorf("IsPointInTime(%s) = %v, want %v", tt.qualifiedName, got, tt.want)
			}
		})
	}
}
