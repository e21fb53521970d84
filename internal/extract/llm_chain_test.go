package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
	"github.com/joseph-ayodele/taxdocs/internal/llm/openai"
)

func modelServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func llmChain(t *testing.T, content string) *Chain {
	t.Helper()
	srv := modelServer(t, content)
	client := openai.NewClient(openai.Config{BaseURL: srv.URL, LenientOptional: true}, nil)
	return NewChain(nil, NewLLMStrategy(client, nil))
}

func TestChain_LLMAliasKeys(t *testing.T) {
	cases := []struct {
		docType constants.DocumentType
		content string
		want    string
	}{
		{constants.DocW2, `{"employer_name":"ACME CORP","employee_name":"JANE DOE","wages":"58,414.00"}`, "58414.00"},
		{constants.Doc1099INT, `{"payer_name":"FIRST BANK","box_1":"120.55"}`, "120.55"},
		{constants.Doc1099DIV, `{"payer_name":"BIG FUND","box_1a":"900.12"}`, "900.12"},
	}
	for _, tc := range cases {
		t.Run(string(tc.docType), func(t *testing.T) {
			res, err := llmChain(t, tc.content).Run(context.Background(), tc.docType, Source{Text: "form text", Path: "scan.png"})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if res.Backend != "llm" {
				t.Errorf("backend = %q", res.Backend)
			}
			got := normalize.MoneyValue(res.Record.LoadBearing()).StringFixed(2)
			if got != tc.want {
				t.Errorf("load-bearing = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestChain_LLMKeepsVerbatimRaw(t *testing.T) {
	content := `{"payer_name":"BIG FUND","total_ordinary_dividends":900.12,"investment_expenses":{"amount":3}}`
	res, err := llmChain(t, content).Run(context.Background(), constants.Doc1099DIV, Source{Text: "form text"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Record.Raw()["investment_expenses"].(map[string]any); !ok {
		t.Errorf("raw_data = %v, want the model's object untouched", res.Record.Raw())
	}
	if _, ok := res.Raw["investment_expenses"].(map[string]any); !ok {
		t.Errorf("result raw = %v", res.Raw)
	}
}
