package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/crucial707/ammotrack/internal/ai"
)

func fieldsOf(t *testing.T, name string) []field {
	t.Helper()
	for _, r := range resources {
		if r.Name == name {
			return r.formFields(true)
		}
	}
	t.Fatalf("no resource %q", name)
	return nil
}

func TestFormToJSON_Depot(t *testing.T) {
	form := url.Values{
		"id":       {"DEPOT-A"},
		"name":     {" Alpha "},
		"capacity": {"500"},
		"status":   {"active"},
		"notes":    {""},
	}
	body, errs := formToJSON(fieldsOf(t, "depots"), form)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := map[string]any{"id": "DEPOT-A", "name": "Alpha", "capacity": 500, "status": "active"}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("body = %v, want %v", body, want)
	}
}

func TestFormToJSON_Errors(t *testing.T) {
	form := url.Values{
		"name":        {"5.56 FMJ"},
		"caliber":     {"5.56"},
		"type":        {"fmj"},
		"quantity":    {"lots"},
		"expiry_date": {"31/12/2027"},
	}
	_, errs := formToJSON(fieldsOf(t, "ammunition"), form)
	want := map[string]string{
		"depot_id":    "required",
		"quantity":    "must be a whole number",
		"expiry_date": "must be a date (YYYY-MM-DD)",
	}
	if !reflect.DeepEqual(errs, want) {
		t.Errorf("errs = %v, want %v", errs, want)
	}
}

func TestFormToJSON_DateAndCheckbox(t *testing.T) {
	body, errs := formToJSON(fieldsOf(t, "alerts"), url.Values{
		"name":      {"low 9mm"},
		"item_type": {"ammunition"},
		"threshold": {"100"},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if body["enabled"] != false {
		t.Errorf("unchecked box should send enabled=false, got %v", body["enabled"])
	}

	body, _ = formToJSON(fieldsOf(t, "usage"), url.Values{
		"ammunition_id": {"LOT-1"},
		"quantity":      {"30"},
		"used_at":       {"2026-03-01"},
	})
	if body["used_at"] != "2026-03-01T00:00:00Z" {
		t.Errorf("used_at = %v", body["used_at"])
	}
}

func TestParseRounds(t *testing.T) {
	got, err := parseRounds("9mm=120\n\n 5.56 = 300 \n")
	if err != nil {
		t.Fatal(err)
	}
	if want := map[string]int{"9mm": 120, "5.56": 300}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	for _, in := range []string{"9mm", "9mm=many"} {
		if _, err := parseRounds(in); err == nil {
			t.Errorf("parseRounds(%q) should fail", in)
		}
	}
}

func TestParseItems(t *testing.T) {
	got, err := parseItems("ammunition LOT-1 250\nfirearm F-9 2")
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{
		{"item_type": "ammunition", "item_id": "LOT-1", "quantity": 250},
		{"item_type": "firearm", "item_id": "F-9", "quantity": 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := parseItems("ammunition LOT-1"); err == nil {
		t.Error("expected error for short line")
	}
}

func TestParsePersonnel(t *testing.T) {
	if _, err := parsePersonnel(""); err == nil {
		t.Error("empty personnel should fail")
	}
	got, err := parsePersonnel("DEPOT-A=40")
	if err != nil || got["DEPOT-A"] != 40 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestParseLots(t *testing.T) {
	got, err := parseLots([]string{"L2=700", " L1 = 300"})
	if err != nil {
		t.Fatal(err)
	}
	want := []ai.LotAllocation{{AmmunitionID: "L2", Quantity: 700}, {AmmunitionID: "L1", Quantity: 300}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, in := range []string{"L1", "L1=0", "=5"} {
		if _, err := parseLots([]string{in}); err == nil {
			t.Errorf("parseLots(%q) should fail", in)
		}
	}
}

func TestFormValues_Rounds(t *testing.T) {
	rec := map[string]any{
		"name":              "patrol",
		"rounds_per_person": map[string]any{"9mm": float64(30), "5.56": float64(210)},
	}
	got := formValues(fieldsOf(t, "scenarios"), rec)
	if got["rounds_per_person"] != "5.56=210\n9mm=30" {
		t.Errorf("rounds_per_person = %q", got["rounds_per_person"])
	}
	if got["name"] != "patrol" {
		t.Errorf("name = %q", got["name"])
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	setFlash(rr, "success", "Depot created.")

	req := httptest.NewRequest(http.MethodGet, "/depots", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	f := popFlash(httptest.NewRecorder(), req)
	if f == nil || f.Kind != "success" || f.Message != "Depot created." {
		t.Fatalf("got %+v", f)
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/dashboard",
		"/shipments?page=2":    "/shipments?page=2",
		"//evil.example":       "/dashboard",
		"https://evil.example": "/dashboard",
	}
	for in, want := range cases {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequireAuth_RedirectsToLogin(t *testing.T) {
	h := newRouter(newAPIClient("http://127.0.0.1:0"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/depots", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login?next=%2Fdepots" {
		t.Errorf("Location = %q", loc)
	}
}

func TestLogin_SetsCookies(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "s3cret-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"invalid credentials"}`)
			return
		}
		io.WriteString(w, `{"token":"tok-123","user":{"id":"u1","username":"alice","role":"admin"}}`)
	}))
	defer api.Close()
	h := newRouter(newAPIClient(api.URL))

	form := url.Values{"username": {"alice"}, "password": {"s3cret-pass"}, "next": {"/ammunition"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/ammunition" {
		t.Fatalf("expected redirect to /ammunition, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	cookies := map[string]string{}
	for _, c := range rr.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[cookieName] != "tok-123" || cookies[roleCookie] != "admin" {
		t.Errorf("cookies = %v", cookies)
	}

	form.Set("password", "wrong")
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "invalid credentials") {
		t.Errorf("expected login page with error, got %d", rr.Code)
	}
}

func TestResourceList_ExpiredTokenLogsOut(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid token"}`)
	}))
	defer api.Close()
	h := newRouter(newAPIClient(api.URL))

	req := httptest.NewRequest(http.MethodGet, "/depots", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "stale"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || !strings.HasPrefix(rr.Header().Get("Location"), "/login") {
		t.Fatalf("expected redirect to login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestResourceList_Renders(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("status"); got != "active" {
			t.Errorf("status filter = %q", got)
		}
		io.WriteString(w, `{"items":[{"id":"DEPOT-A","name":"Alpha","capacity":500,"status":"active"}],"limit":20,"offset":0}`)
	}))
	defer api.Close()
	h := newRouter(newAPIClient(api.URL))

	req := httptest.NewRequest(http.MethodGet, "/depots?status=active", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "tok"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"DEPOT-A", "Alpha", "500"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "/depots/DEPOT-A/delete") {
		t.Error("viewer should not see delete links")
	}
}
