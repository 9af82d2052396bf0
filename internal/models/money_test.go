package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyMarshalFixedTwoDecimals(t *testing.T) {
	m := NewMoneyFromDecimal(decimal.NewFromFloat(99.9))
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal money failed: %v", err)
	}
	if string(data) != `"99.90"` {
		t.Fatalf("unexpected money json: %s", data)
	}
}

func TestMoneyUnmarshalStringAndNumber(t *testing.T) {
	var fromString Money
	if err := json.Unmarshal([]byte(`"199.98"`), &fromString); err != nil {
		t.Fatalf("unmarshal string money failed: %v", err)
	}
	if fromString.String() != "199.98" {
		t.Fatalf("unexpected string money: %s", fromString.String())
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`49.999`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number money failed: %v", err)
	}
	if fromNumber.String() != "50.00" {
		t.Fatalf("expected rounding to 50.00, got %s", fromNumber.String())
	}
}

func TestMoneyUnmarshalInvalid(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatal("expected error for invalid money string")
	}
}
