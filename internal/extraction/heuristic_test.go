package extraction

import (
	"reflect"
	"sort"
	"testing"
)

func TestExtractIDs(t *testing.T) {
	text := "Invoice AB-12345 and reference 987654 but not 1234 or ab."
	got := ExtractIDs(text)
	sort.Strings(got)
	want := []string{"987654", "AB-12345"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractIDs() = %v, want %v", got, want)
	}
}

func TestExtractEmails(t *testing.T) {
	text := "Contact billing@example.com or support+help@sub.example.co.uk for help."
	got := ExtractEmails(text)
	want := []string{"billing@example.com", "support+help@sub.example.co.uk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractEmails() = %v, want %v", got, want)
	}
}

func TestExtractIBANs(t *testing.T) {
	text := "Please wire to GB29 NWBK 6016 1331 9268 19 before Friday."
	got := ExtractIBANs(text)
	if len(got) != 1 {
		t.Fatalf("ExtractIBANs() = %v, want one match", got)
	}
	if got[0] != "GB29NWBK60161331926819" {
		t.Errorf("ExtractIBANs()[0] = %q", got[0])
	}
}

func TestExtractMoney(t *testing.T) {
	got := ExtractMoney("Total: $1,234.56 plus EUR 99.00 fee")
	want := []MoneyAmount{
		{Currency: "USD", AmountCents: 123456},
		{Currency: "EUR", AmountCents: 9900},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractMoney() = %+v, want %+v", got, want)
	}
}

func TestExtractMoneyIgnoresNonCurrencyWords(t *testing.T) {
	for _, text := range []string{
		"quarterly report 2023",
		"top 5 vendors",
		"see page 42",
		"GDP 2023 figures",
	} {
		if got := ExtractMoney(text); len(got) != 0 {
			t.Errorf("ExtractMoney(%q) = %+v, want none", text, got)
		}
	}
}

func TestExtractDatesISOAndSlash(t *testing.T) {
	got := ExtractDates("Issued 2024-03-15, due 25/12/2024, and 03/04/2024")
	want := []string{"2024-03-15", "2024-12-25", "2024-03-04"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractDates() = %v, want %v", got, want)
	}
}

func TestExtractAllCombinesRegexExtractors(t *testing.T) {
	result := ExtractAll("Invoice AB-1234 for $50.00 on 2024-01-01 contact a@b.com")
	if len(result.IDs) == 0 || len(result.Money) == 0 || len(result.Dates) == 0 || len(result.Emails) == 0 {
		t.Fatalf("ExtractAll() missing fields: %+v", result)
	}
	if result.Entities != nil || result.Keywords != nil {
		t.Errorf("ExtractAll() should leave LLM-backed fields empty, got %+v", result)
	}
}
