//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"carbon-tracker-go/internal/config"
	"carbon-tracker-go/internal/db"
	analyticsdomain "carbon-tracker-go/internal/domain/analytics"
	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	companydomain "carbon-tracker-go/internal/domain/company"
	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	userdomain "carbon-tracker-go/internal/domain/user"
	analyticsrepo "carbon-tracker-go/internal/repository/postgres/analytics"
	catalogrepo "carbon-tracker-go/internal/repository/postgres/catalog"
	companyrepo "carbon-tracker-go/internal/repository/postgres/company"
	consumptionrepo "carbon-tracker-go/internal/repository/postgres/consumption"
	userrepo "carbon-tracker-go/internal/repository/postgres/user"
	"carbon-tracker-go/internal/transport/httpserver"
	"carbon-tracker-go/internal/transport/httpserver/handler"
	"carbon-tracker-go/migrations"
	"carbon-tracker-go/pkg/logger"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

type testEnv struct {
	server     *httptest.Server
	authServer *httptest.Server
	db         *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	authServer := newAuthServer(t)
	log := logger.Nop()

	cfg := config.Default()
	cfg.DB = config.DBConfig{DSN: dsn}
	cfg.HTTP.RateLimit = 0
	cfg.Supabase = config.SupabaseConfig{
		URL:            authServer.URL,
		PublishableKey: "test-key",
		AuthTimeout:    2 * time.Second,
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if _, err := db.Migrate(context.Background(), dbConn, migrations.FS, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	catalogService := catalogdomain.NewService(catalogrepo.NewPostgres(dbConn), log)
	if err := catalogService.Seed(context.Background(), catalogdomain.DefaultSeed()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	consumptionService := consumptiondomain.NewService(consumptionrepo.NewPostgres(dbConn), catalogService, log)
	analyticsService := analyticsdomain.NewService(analyticsrepo.NewPostgres(dbConn))
	companyService := companydomain.NewService(companyrepo.NewPostgres(dbConn))
	userService := userdomain.NewService(userrepo.NewPostgres(dbConn))
	handlers := handler.New(consumptionService, catalogService, analyticsService, companyService, log)

	router := httpserver.NewRouter(cfg, handlers, userService, log)
	server := httptest.NewServer(router)

	return &testEnv{server: server, authServer: authServer, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	e.authServer.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func (e *testEnv) url(path string) string {
	return e.server.URL + "/api" + path
}

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		payload := map[string]interface{}{
			"id":    token,
			"email": token + "@example.com",
			"user_metadata": map[string]interface{}{
				"name": "User " + token,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE consumption_table, activity_table, unit_table, company_members, companies, users RESTART IDENTITY CASCADE",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type authMeResponse struct {
	ID     int64  `json:"id"`
	AuthID string `json:"auth_id"`
	Email  string `json:"email"`
}

type activityTypeResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	EmissionFactor float64 `json:"emission_factor"`
	UnitID         *int64  `json:"unit_id"`
}

type consumptionResponse struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	Amount        float64 `json:"amount"`
	CO2Equivalent float64 `json:"co2_equivalent"`
	Date          string  `json:"date"`
	Activity      *struct {
		Name string `json:"name"`
	} `json:"activity_table"`
	Unit *struct {
		Name string `json:"name"`
	} `json:"unit_table"`
}

type consumptionPage struct {
	Data []consumptionResponse `json:"data"`
	Meta struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int   `json:"totalPages"`
	} `json:"meta"`
}

type companyResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

func decode(t *testing.T, body []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func findActivity(t *testing.T, activities []activityTypeResponse, name string) activityTypeResponse {
	t.Helper()
	for _, activity := range activities {
		if activity.Name == name {
			return activity
		}
	}
	t.Fatalf("activity %q not seeded", name)
	return activityTypeResponse{}
}

func TestE2EHealthAndAuth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.url("/health"), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.url("/auth/me"), "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, string(body))
	}
	var errResp errorEnvelope
	decode(t, body, &errResp)
	if errResp.Error.Code != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", errResp.Error.Code)
	}

	authID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	resp, body = requestJSON(t, client, http.MethodGet, env.url("/auth/me"), authID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var me authMeResponse
	decode(t, body, &me)
	if me.ID <= 0 || me.AuthID != authID {
		t.Fatalf("unexpected identity %+v", me)
	}
	if me.Email != authID+"@example.com" {
		t.Fatalf("expected email, got %q", me.Email)
	}
}

func TestE2EConsumptionQueryFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	owner := "11111111-1111-1111-1111-111111111111"
	stranger := "22222222-2222-2222-2222-222222222222"

	resp, body := requestJSON(t, client, http.MethodGet, env.url("/auth/me"), owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var me authMeResponse
	decode(t, body, &me)

	resp, body = requestJSON(t, client, http.MethodGet, env.url("/activity-types"), owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var activities []activityTypeResponse
	decode(t, body, &activities)
	electricity := findActivity(t, activities, "Electricity (grid)")
	gas := findActivity(t, activities, "Natural gas")

	for i, item := range []struct {
		activity activityTypeResponse
		amount   float64
	}{
		{electricity, 100},
		{gas, 10},
		{electricity, 300},
		{gas, 50},
	} {
		resp, body = requestJSON(t, client, http.MethodPost, env.url("/consumption"), owner, map[string]interface{}{
			"amount":                 item.amount,
			"activity_type_table_id": item.activity.ID,
			"unit_id":                item.activity.UnitID,
			"date":                   fmt.Sprintf("2024-03-%02d", i+1),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(body))
		}
	}

	listURL := fmt.Sprintf("%s?page=1&limit=3&sortBy=activity_table.name&sortOrder=desc", env.url(fmt.Sprintf("/users/%d/consumption", me.ID)))
	resp, body = requestJSON(t, client, http.MethodGet, listURL, owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var page consumptionPage
	decode(t, body, &page)
	if page.Meta.Total != 4 || page.Meta.TotalPages != 2 || page.Meta.Limit != 3 {
		t.Fatalf("unexpected meta %+v", page.Meta)
	}
	if len(page.Data) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page.Data))
	}
	if page.Data[0].Activity == nil || page.Data[0].Activity.Name != "Natural gas" {
		t.Fatalf("expected natural gas first, got %+v", page.Data[0].Activity)
	}
	for _, row := range page.Data {
		if row.Unit == nil || row.CO2Equivalent <= 0 {
			t.Fatalf("expected joined unit and computed co2, got %+v", row)
		}
	}

	filterURL := fmt.Sprintf("%s?amountMin=50&sortBy=amount", env.url(fmt.Sprintf("/users/%d/consumption", me.ID)))
	resp, body = requestJSON(t, client, http.MethodGet, filterURL, owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &page)
	if page.Meta.Total != 3 || page.Data[0].Amount != 50 {
		t.Fatalf("unexpected filtered page %+v", page)
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.url(fmt.Sprintf("/users/%d/consumption", me.ID)), stranger, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.url("/analytics/summary?from=2024-03-01&to=2024-03-31"), owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var summary analyticsdomain.SummaryResult
	decode(t, body, &summary)
	if summary.Count != 4 {
		t.Fatalf("expected 4 records in summary, got %d", summary.Count)
	}
}

func TestE2ECompanyFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	user1 := "11111111-1111-1111-1111-111111111111"
	user2 := "22222222-2222-2222-2222-222222222222"

	resp, body := requestJSON(t, client, http.MethodPost, env.url("/companies"), user1, map[string]string{"name": "Acme"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var company companyResponse
	decode(t, body, &company)
	if company.ID == 0 || company.Code == "" {
		t.Fatalf("expected company id and code")
	}

	resp, body = requestJSON(t, client, http.MethodPost, env.url("/companies/join"), user2, map[string]string{"code": company.Code})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.url("/companies/me/members"), user1, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var members []map[string]interface{}
	decode(t, body, &members)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	resp, body = requestJSON(t, client, http.MethodPost, env.url("/companies/leave"), user2, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, string(body))
	}
	resp, body = requestJSON(t, client, http.MethodPost, env.url("/companies/leave"), user1, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.url("/companies/me"), user1, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, string(body))
	}
}
