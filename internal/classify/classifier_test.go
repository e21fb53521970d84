package classify

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
)

const w2Text = `Form W-2 Wage and Tax Statement 2024
Employer's name, address: ACME CORP   Employer identification number (EIN) 12-3456789
Employee's social security number (SSN) XXX-XX-1234
Box 1 Wages, tips, other compensation 58,414.00
Box 2 Federal income tax withheld 5,120.00
Social security wages 58,414.00   Social security tax withheld 3,621.67
Medicare wages and tips 58,414.00  Medicare tax withheld 847.00
Box 12 D 2,000.00   Box 14 SDI 120.00`

const divText = `Form 1099-DIV Dividends and Distributions 2024
PAYER'S name: BIG BROKERAGE
1a Total ordinary dividends 1,234.56
1b Qualified dividends 800.00
2a Total capital gain distr. 50.00
7 Foreign tax paid 12.00`

const intText = `Form 1099-INT Interest Income 2024
PAYER'S name: FIRST BANK   RECIPIENT'S name: JANE DOE
Box 1 Interest income 312.45
Box 4 Federal income tax withheld 0.00
Early withdrawal penalty   Interest on U.S. Savings Bonds and Treasury obligations`

func newTestClassifier() *Classifier { return NewClassifier(DefaultThreshold, nil) }

func TestClassify_KnownForms(t *testing.T) {
	c := newTestClassifier()
	cases := []struct {
		name string
		text string
		want constants.DocumentType
	}{
		{"w2", w2Text, constants.DocW2},
		{"div", divText, constants.Doc1099DIV},
		{"int", intText, constants.Doc1099INT},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, conf := c.Classify(tc.text)
			if got != tc.want {
				t.Fatalf("type: got %s want %s (scores %v)", got, tc.want, c.Scores(tc.text))
			}
			if conf < 0.5 || conf > 1 {
				t.Fatalf("confidence out of range: %v", conf)
			}
		})
	}
}

func TestClassify_EmptyTextIsUnknown(t *testing.T) {
	c := newTestClassifier()
	for _, text := range []string{"", "   \n\t  "} {
		got, conf := c.Classify(text)
		if got != constants.DocUnknown || conf != 0 {
			t.Fatalf("%q: got %s %v", text, got, conf)
		}
	}
}

func TestClassify_ThresholdBoundary(t *testing.T) {
	c := newTestClassifier()

	// Every W-2 keyword, no W-2 pattern: 0.7*0 + 0.3*10/10.
	atThreshold := "employer employee ein ssn wages withheld social security medicare\nbox 12 box 14"
	got, conf := c.Classify(atThreshold)
	if got != constants.DocW2 {
		t.Fatalf("at threshold: expected W2, got %s (%v)", got, conf)
	}
	if conf < 0.3-1e-9 || conf > 0.3+1e-9 {
		t.Fatalf("at threshold: expected 0.3, got %v", conf)
	}

	// One keyword fewer drops to 0.27.
	below := "employer employee ein ssn wages withheld social security\nbox 12 box 14"
	got, conf = c.Classify(below)
	if got != constants.DocOther {
		t.Fatalf("below threshold: expected OTHER, got %s (%v)", got, conf)
	}
	if conf >= 0.3 || conf <= 0 {
		t.Fatalf("below threshold: expected score in (0,0.3), got %v", conf)
	}
}

func TestClassify_ThresholdBoundaryFromConfig(t *testing.T) {
	atThreshold := "employer employee ein ssn wages withheld social security medicare\nbox 12 box 14"
	for _, env := range []string{"", "0.3"} {
		t.Setenv("CLASSIFY_THRESHOLD", env)
		cfg := common.LoadConfig()
		c := NewClassifier(cfg.Pipeline.ClassifyThreshold, nil)
		if got, conf := c.Classify(atThreshold); got != constants.DocW2 {
			t.Errorf("CLASSIFY_THRESHOLD=%q: threshold %v gave %s (%v), want W2", env, c.Threshold(), got, conf)
		}
	}
}

func TestClassify_ConfigurableThreshold(t *testing.T) {
	c := NewClassifier(0.9, nil)
	got, _ := c.Classify(divText)
	if got != constants.DocOther {
		t.Fatalf("expected OTHER under a strict threshold, got %s", got)
	}
	if NewClassifier(0, nil).Threshold() != DefaultThreshold {
		t.Fatalf("zero threshold should fall back to default")
	}
}

func TestScore_Monotonic(t *testing.T) {
	c := newTestClassifier()
	additions := []string{
		"Form W-2",
		"Wage and Tax Statement",
		"Box 1 Wages",
		"Box 2 Federal income tax withheld",
		"Social security wages",
		"Medicare wages",
		"employer employee ein ssn",
		"box 12 box 14",
	}
	text := "scanned page"
	prev := c.Scores(text)[constants.DocW2]
	for _, add := range additions {
		text += "\n" + add
		cur := c.Scores(text)[constants.DocW2]
		if cur+1e-12 < prev {
			t.Fatalf("score decreased after adding %q: %v -> %v", add, prev, cur)
		}
		prev = cur
	}
	if prev > 1 {
		t.Fatalf("score above 1: %v", prev)
	}
}

func TestByFilename(t *testing.T) {
	cases := map[string]constants.DocumentType{
		"acme-w2.pdf":             constants.DocW2,
		"ACME W-2 2024.PDF":       constants.DocW2,
		"chase-1099-int-2024.pdf": constants.Doc1099INT,
		"vanguard_1099DIV.pdf":    constants.Doc1099DIV,
		"brokerage-1099b.pdf":     constants.Doc1099B,
		"client-1099-nec.pdf":     constants.Doc1099NEC,
		"state-1099-g.pdf":        constants.Doc1099G,
		"ira-1099r.pdf":           constants.Doc1099R,
		"mortgage-1098.pdf":       constants.Doc1098,
		"scan0001.pdf":            constants.DocUnknown,
	}
	for name, want := range cases {
		if got := ByFilename(name); got != want {
			t.Errorf("%s: got %s want %s", name, got, want)
		}
	}
}

func TestClassifyFile(t *testing.T) {
	c := newTestClassifier()

	got, conf := c.ClassifyFile("/in/acme-w2.pdf", "blurry unreadable page")
	if got != constants.DocW2 || conf != 0.8 {
		t.Fatalf("weak text + filename: got %s %v", got, conf)
	}

	got, conf = c.ClassifyFile("/in/acme-w2.pdf", divText)
	if got != constants.Doc1099DIV || conf < 0.5 {
		t.Fatalf("strong text beats filename: got %s %v", got, conf)
	}

	got, conf = c.ClassifyFile("/in/acme-w2.pdf", "")
	if got != constants.DocW2 || conf != 0.6 {
		t.Fatalf("filename only: got %s %v", got, conf)
	}

	got, conf = c.ClassifyFile("/in/scan0001.pdf", "  ")
	if got != constants.DocUnknown || conf != 0 {
		t.Fatalf("nothing usable: got %s %v", got, conf)
	}
}

func TestInfo(t *testing.T) {
	c := newTestClassifier()
	info := c.Info(divText)
	if info.DocumentType != constants.Doc1099DIV {
		t.Fatalf("type: got %s", info.DocumentType)
	}
	if len(info.AllScores) != len(constants.ClassifiableTypes) {
		t.Fatalf("all scores: got %d entries", len(info.AllScores))
	}
	if info.WordCount != len(strings.Fields(divText)) {
		t.Fatalf("word count: got %d", info.WordCount)
	}
	for k, v := range info.AllScores {
		if r := float64(int(v*1000+0.5)) / 1000; r != v {
			t.Errorf("%s not rounded to 3 places: %v", k, v)
		}
	}
}
