package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/export"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
)

type apiFixture struct {
	srv   *httptest.Server
	w2    *entity.Document
	other *entity.Document
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenInMemory(ctx, uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)
	years := repository.NewTaxYearRepository(db, nil)
	docs := repository.NewDocumentRepository(db, nil)
	records := repository.NewRecordRepository(db, nil)
	summary := repository.NewSummaryRepository(records, nil)

	ty, err := years.GetOrCreate(ctx, 2024)
	if err != nil {
		t.Fatal(err)
	}
	f := &apiFixture{
		w2:    &entity.Document{TaxYearID: ty.ID, FileName: "w2.pdf", FilePath: "/in/w2.pdf", FileHash: "a"},
		other: &entity.Document{TaxYearID: ty.ID, FileName: "notes.png", FilePath: "/in/notes.png", FileHash: "b"},
	}
	for _, d := range []*entity.Document{f.w2, f.other} {
		if err := docs.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := docs.SaveClassification(ctx, f.w2.ID, constants.DocW2, 0.9); err != nil {
		t.Fatal(err)
	}
	if err := docs.UpdateStatus(ctx, f.w2.ID, constants.StatusValidated, nil); err != nil {
		t.Fatal(err)
	}
	if err := records.Save(ctx, &entity.W2Data{
		DocumentID:            f.w2.ID,
		EmployerName:          "ACME CORP",
		EmployeeName:          "JANE DOE",
		WagesTipsCompensation: decimal.NewNullDecimal(decimal.RequireFromString("1000.00")),
	}); err != nil {
		t.Fatal(err)
	}

	api := NewAPI(db, years, docs, records, summary, export.NewService(years, docs, records, summary, nil), nil)
	f.srv = httptest.NewServer(api.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *apiFixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestAPI_Health(t *testing.T) {
	f := newAPIFixture(t)
	var body map[string]string
	if code := f.get(t, "/healthz", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz = %d %v", code, body)
	}
}

func TestAPI_ListDocuments(t *testing.T) {
	f := newAPIFixture(t)

	var all struct {
		Count     int               `json:"count"`
		Documents []entity.Document `json:"documents"`
	}
	if code := f.get(t, "/v1/years/2024/documents", &all); code != http.StatusOK || all.Count != 2 {
		t.Fatalf("all = %d %+v", code, all)
	}

	var w2s struct {
		Count     int               `json:"count"`
		Documents []entity.Document `json:"documents"`
	}
	if code := f.get(t, "/v1/years/2024/documents?type=w-2&status=validated", &w2s); code != http.StatusOK || w2s.Count != 1 {
		t.Fatalf("filtered = %d %+v", code, w2s)
	}
	if w2s.Documents[0].ID != f.w2.ID {
		t.Errorf("wrong document: %+v", w2s.Documents[0])
	}

	cases := []struct {
		path string
		want int
	}{
		{"/v1/years/2024/documents?type=1040", http.StatusBadRequest},
		{"/v1/years/2024/documents?status=DONE", http.StatusBadRequest},
		{"/v1/years/1999/documents", http.StatusBadRequest},
		{"/v1/years/abc/documents", http.StatusBadRequest},
		{"/v1/years/2025/documents", http.StatusNotFound},
	}
	for _, tc := range cases {
		if code := f.get(t, tc.path, nil); code != tc.want {
			t.Errorf("%s = %d, want %d", tc.path, code, tc.want)
		}
	}
}

func TestAPI_Summary(t *testing.T) {
	f := newAPIFixture(t)
	var sum map[string]any
	if code := f.get(t, "/v1/years/2024/summary", &sum); code != http.StatusOK {
		t.Fatalf("summary = %d", code)
	}
	if sum["total_wages"] != "1000" && sum["total_wages"] != "1000.00" {
		t.Errorf("total_wages = %v", sum["total_wages"])
	}
	if sum["w2_count"] != float64(1) {
		t.Errorf("w2_count = %v", sum["w2_count"])
	}
}

func TestAPI_GetDocument(t *testing.T) {
	f := newAPIFixture(t)

	var body struct {
		Document entity.Document `json:"document"`
		Record   map[string]any  `json:"record"`
	}
	if code := f.get(t, "/v1/documents/"+f.w2.ID.String(), &body); code != http.StatusOK {
		t.Fatalf("get = %d", code)
	}
	if body.Document.DocumentType != constants.DocW2 || body.Record["employer_name"] != "ACME CORP" {
		t.Fatalf("body = %+v", body)
	}

	var plain map[string]any
	if code := f.get(t, "/v1/documents/"+f.other.ID.String(), &plain); code != http.StatusOK {
		t.Fatalf("get other = %d", code)
	}
	if _, ok := plain["record"]; ok {
		t.Errorf("unmodeled document should have no record: %v", plain)
	}

	if code := f.get(t, "/v1/documents/not-a-uuid", nil); code != http.StatusBadRequest {
		t.Errorf("bad id = %d", code)
	}
	if code := f.get(t, "/v1/documents/"+uuid.NewString(), nil); code != http.StatusNotFound {
		t.Errorf("missing id = %d", code)
	}
}

func TestAPI_Export(t *testing.T) {
	f := newAPIFixture(t)
	var body map[string]any
	if code := f.get(t, "/v1/years/2024/export?format=json", &body); code != http.StatusOK || body["year"] != float64(2024) {
		t.Fatalf("json export = %d %v", code, body["year"])
	}

	resp, err := http.Get(f.srv.URL + "/v1/years/2024/export")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Disposition") != "attachment; filename=taxdocs-2024.xlsx" {
		t.Fatalf("xlsx export = %d %v", resp.StatusCode, resp.Header)
	}
	if code := f.get(t, "/v1/years/2024/export?format=csv", nil); code != http.StatusBadRequest {
		t.Errorf("csv export = %d", code)
	}
}

func TestGRPCHealth(t *testing.T) {
	srv, hs := NewGRPCServer(nil)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		return resp.GetStatus()
	}
	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v", got)
	}
	SetServing(hs, true)
	if got := check(); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status after SetServing = %v", got)
	}
}
