package bkpertest

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func get(t *testing.T, url string, header map[string]string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func TestServer_GetBook(t *testing.T) {
	srv := NewServer(t, WithBooks(Book{ID: "b1", Name: "Ledger"}))

	status, body := get(t, srv.URL+"/books/b1", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var b Book
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Name != "Ledger" {
		t.Errorf("expected Ledger, got %q", b.Name)
	}

	status, body = get(t, srv.URL+"/books/missing", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if !strings.Contains(string(body), "NOT_FOUND") {
		t.Errorf("expected error envelope, got %s", body)
	}
}

func TestServer_ListBooksKeepsOrder(t *testing.T) {
	srv := NewServer(t, WithBooks(Book{ID: "b2", Name: "Second"}, Book{ID: "b1", Name: "First"}))

	_, body := get(t, srv.URL+"/books", nil)
	var list struct {
		Items []Book `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].ID != "b2" || list.Items[1].ID != "b1" {
		t.Errorf("unexpected items %+v", list.Items)
	}
}

func TestServer_RecordsRequests(t *testing.T) {
	srv := NewServer(t)

	get(t, srv.URL+"/user?key=q-key", map[string]string{"Authorization": "Bearer tok"})

	req, ok := srv.LastRequest()
	if !ok {
		t.Fatal("expected a recorded request")
	}
	if req.Method != http.MethodGet || req.Path != "user" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Bearer() != "tok" {
		t.Errorf("expected bearer tok, got %q", req.Bearer())
	}
	if req.APIKey() != "q-key" {
		t.Errorf("expected query api key, got %q", req.APIKey())
	}
	if len(srv.Requests()) != 1 {
		t.Errorf("expected 1 request, got %d", len(srv.Requests()))
	}
}

func TestServer_Force(t *testing.T) {
	srv := NewServer(t)
	srv.Force("user", http.StatusTeapot, `{"error":"short and stout"}`)
	srv.Force("/nowhere/", http.StatusServiceUnavailable, "")

	status, body := get(t, srv.URL+"/user", nil)
	if status != http.StatusTeapot || string(body) != `{"error":"short and stout"}` {
		t.Errorf("unexpected forced response %d %s", status, body)
	}
	if status, _ := get(t, srv.URL+"/nowhere", nil); status != http.StatusServiceUnavailable {
		t.Errorf("expected forced 503 on unrouted path, got %d", status)
	}

	srv.ClearForced()
	if status, _ := get(t, srv.URL+"/user", nil); status != http.StatusOK {
		t.Errorf("expected 200 after clearing, got %d", status)
	}
}

func TestServer_RequireAuth(t *testing.T) {
	srv := NewServer(t, RequireAuth())

	if status, _ := get(t, srv.URL+"/user", nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
	if status, _ := get(t, srv.URL+"/user", map[string]string{"bkper-api-key": "k"}); status != http.StatusOK {
		t.Errorf("expected 200 with api key, got %d", status)
	}
}

func TestServer_TransactionsPaging(t *testing.T) {
	srv := NewServer(t,
		WithBooks(Book{ID: "b1"}),
		WithTransactions("b1",
			Transaction{ID: "t1", Description: "Coffee"},
			Transaction{ID: "t2", Description: "Rent"},
			Transaction{ID: "t3", Description: "coffee beans"},
		),
	)

	_, body := get(t, srv.URL+"/books/b1/transactions?query=coffee&limit=1", nil)
	var page struct {
		Items  []Transaction `json:"items"`
		Cursor string        `json:"cursor"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "t1" || page.Cursor != "1" {
		t.Fatalf("unexpected first page %+v", page)
	}

	_, body = get(t, srv.URL+"/books/b1/transactions?query=coffee&limit=1&cursor=1", nil)
	page.Cursor = ""
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "t3" || page.Cursor != "" {
		t.Errorf("unexpected second page %+v", page)
	}

	if status, _ := get(t, srv.URL+"/books/b1/transactions?limit=x", nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", status)
	}
}

func TestServer_RequestID(t *testing.T) {
	srv := NewServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/user", nil)
	req.Header.Set("X-Request-Id", "req-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "req-1" {
		t.Errorf("expected echoed id, got %q", got)
	}

	resp, err = http.Get(srv.URL + "/user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected a generated request id")
	}
}

func TestServer_TLS(t *testing.T) {
	certs := GenerateCerts(t)
	srv := NewServer(t, WithTLS(certs))
	if !strings.HasPrefix(srv.URL, "https://") {
		t.Fatalf("expected https URL, got %s", srv.URL)
	}

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: certs.Pool, MinVersion: tls.VersionTLS12}}}
	resp, err := client.Get(srv.URL + "/user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	srv := NewServer(t)
	srv.engine.GET(BasePath+"/panic", func(*gin.Context) { panic("boom") })

	status, body := get(t, srv.URL+"/panic", nil)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if !strings.Contains(string(body), "INTERNAL_ERROR") {
		t.Errorf("expected INTERNAL_ERROR body, got %s", body)
	}
}
