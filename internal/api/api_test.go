package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campusfound/campusfound/internal/blobstore"
	"github.com/campusfound/campusfound/internal/db"
	"github.com/campusfound/campusfound/internal/model"
)

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()

	database := db.NewTestDB(t)
	blobs, err := blobstore.New(t.TempDir(), "/images")
	if err != nil {
		t.Fatalf("blobstore.New: %v", err)
	}

	router := NewRouter(database, blobs, "test-secret")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, database
}

// signup registers a user and returns their session token.
func signup(t *testing.T, server *httptest.Server, email, role string) string {
	t.Helper()

	req := map[string]string{
		"email":     email,
		"password":  "password",
		"full_name": "Test User",
		"role":      role,
	}
	if role == model.RoleStudent {
		req["student_id_number"] = "63210000"
		req["semester"] = "3"
	} else {
		req["department"] = "Facilities"
	}

	body, _ := json.Marshal(req)
	resp, err := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signup request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup failed: %d", resp.StatusCode)
	}

	var session struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&session)
	if session.Token == "" {
		t.Fatal("empty token from signup")
	}
	return session.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func createReport(t *testing.T, server *httptest.Server, token, title string) int64 {
	t.Helper()

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"title":            title,
		"found_location":   "Main Library",
		"deposit_location": "Lost & Found Office",
		"found_date":       "2024-03-01",
		"found_time":       "09:30",
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var item model.FoundItem
	json.NewDecoder(resp.Body).Decode(&item)
	return item.ID
}

func TestSignupValidation(t *testing.T) {
	server, _ := setupTestServer(t)

	cases := []map[string]string{
		{"email": "bad", "password": "password", "full_name": "Test User", "role": "student"},
		{"email": "a@b.c", "password": "short", "full_name": "Test User", "role": "student"},
		{"email": "a@b.c", "password": "password", "full_name": "T", "role": "student"},
		{"email": "a@b.c", "password": "password", "full_name": "Test User", "role": "professor"},
		// Student without student attributes.
		{"email": "a@b.c", "password": "password", "full_name": "Test User", "role": "student"},
		// Staff without a department.
		{"email": "a@b.c", "password": "password", "full_name": "Test User", "role": "staff"},
	}
	for i, c := range cases {
		body, _ := json.Marshal(c)
		resp, _ := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestDuplicateSignup(t *testing.T) {
	server, _ := setupTestServer(t)

	signup(t, server, "ana@campus.edu", model.RoleStudent)

	body, _ := json.Marshal(map[string]string{
		"email": "ana@campus.edu", "password": "password", "full_name": "Test User",
		"role": "student", "student_id_number": "63210001", "semester": "1",
	})
	resp, err := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	signup(t, server, "ana@campus.edu", model.RoleStudent)

	body, _ := json.Marshal(map[string]string{"email": "ana@campus.edu", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"email": "ana@campus.edu", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for valid login, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestReportAndListingFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	token := signup(t, server, "ana@campus.edu", model.RoleStudent)

	createReport(t, server, token, "Blue Bottle")
	createReport(t, server, token, "iPhone 14")

	// Full listing, newest first, with counts.
	req, _ := authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var listing struct {
		Items  []model.FoundItem `json:"items"`
		Counts struct {
			Found int `json:"found"`
		} `json:"counts"`
	}
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	if len(listing.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(listing.Items))
	}
	if listing.Items[0].Title != "iPhone 14" {
		t.Errorf("expected newest first, got %q", listing.Items[0].Title)
	}
	if listing.Counts.Found != 2 {
		t.Errorf("expected 2 found in counts, got %d", listing.Counts.Found)
	}
	if listing.Items[0].ReporterName == "" {
		t.Error("expected reporter name joined into listing")
	}

	// Search filter.
	req, _ = authRequest("GET", server.URL+"/api/items?q=bottle", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	if len(listing.Items) != 1 || listing.Items[0].Title != "Blue Bottle" {
		t.Errorf("expected only the bottle, got %+v", listing.Items)
	}

	// Status filter that matches nothing.
	req, _ = authRequest("GET", server.URL+"/api/items?status=returned", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	if len(listing.Items) != 0 {
		t.Errorf("expected no returned items, got %d", len(listing.Items))
	}
}

func TestValidationFailureSurfacesField(t *testing.T) {
	server, _ := setupTestServer(t)
	token := signup(t, server, "ana@campus.edu", model.RoleStudent)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"found_location":   "Library",
		"deposit_location": "Office",
		"found_date":       "2024-03-01",
		"found_time":       "09:30",
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var errResp map[string]string
	json.NewDecoder(resp.Body).Decode(&errResp)
	if got := errResp["error"]; !strings.Contains(got, "title") {
		t.Errorf("expected error naming the title field, got %q", got)
	}
}

func TestMyReportsAndDelete(t *testing.T) {
	server, _ := setupTestServer(t)
	ana := signup(t, server, "ana@campus.edu", model.RoleStudent)
	bor := signup(t, server, "bor@campus.edu", model.RoleStaff)

	itemID := createReport(t, server, ana, "Blue Bottle")
	createReport(t, server, bor, "Keys")

	// Mine lists only own reports.
	req, _ := authRequest("GET", server.URL+"/api/items/mine", ana, nil)
	resp, _ := http.DefaultClient.Do(req)
	var mine []model.FoundItem
	json.NewDecoder(resp.Body).Decode(&mine)
	resp.Body.Close()
	if len(mine) != 1 || mine[0].Title != "Blue Bottle" {
		t.Errorf("expected only own report, got %+v", mine)
	}

	// Non-owner delete is forbidden and the record survives.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/items/%d", server.URL, itemID), bor, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner delete, got %d", resp.StatusCode)
	}

	req, _ = authRequest("GET", server.URL+"/api/items", ana, nil)
	resp, _ = http.DefaultClient.Do(req)
	var listing struct {
		Items []model.FoundItem `json:"items"`
	}
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	if len(listing.Items) != 2 {
		t.Errorf("expected record to survive forbidden delete, got %d items", len(listing.Items))
	}

	// Owner delete succeeds.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/items/%d", server.URL, itemID), ana, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for owner delete, got %d", resp.StatusCode)
	}

	// Deleting again yields 404.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/items/%d", server.URL, itemID), ana, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
}

func TestStatusTransitionFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	ana := signup(t, server, "ana@campus.edu", model.RoleStudent)
	cene := signup(t, server, "cene@campus.edu", model.RoleStudent)
	staff := signup(t, server, "bor@campus.edu", model.RoleStaff)

	itemID := createReport(t, server, ana, "Blue Bottle")
	url := fmt.Sprintf("%s/api/items/%d/status", server.URL, itemID)

	// An unrelated student may not transition.
	req, _ := authRequest("POST", url, cene, map[string]string{"status": "claimed"})
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for unrelated student, got %d", resp.StatusCode)
	}

	// Skipping a step is rejected.
	req, _ = authRequest("POST", url, ana, map[string]string{"status": "returned"})
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for skipped step, got %d", resp.StatusCode)
	}

	// Reporter advances to claimed, staff to returned.
	req, _ = authRequest("POST", url, ana, map[string]string{"status": "claimed"})
	resp, _ = http.DefaultClient.Do(req)
	var item model.FoundItem
	json.NewDecoder(resp.Body).Decode(&item)
	resp.Body.Close()
	if item.Status != model.StatusClaimed {
		t.Errorf("expected status 'claimed', got %q", item.Status)
	}

	req, _ = authRequest("POST", url, staff, map[string]string{"status": "returned"})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for staff transition, got %d", resp.StatusCode)
	}
	item = model.FoundItem{}
	json.NewDecoder(resp.Body).Decode(&item)
	resp.Body.Close()
	// The response must carry the updated record, never an empty body.
	if item.ID != itemID || item.Status != model.StatusReturned {
		t.Errorf("expected updated item in transition response, got %+v", item)
	}

	// History shows both transitions.
	req, _ = authRequest("GET", fmt.Sprintf("%s/api/items/%d", server.URL, itemID), ana, nil)
	resp, _ = http.DefaultClient.Do(req)
	var detail struct {
		History []model.StatusEvent `json:"history"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if len(detail.History) != 2 {
		t.Errorf("expected 2 status events, got %d", len(detail.History))
	}
}

func TestImageUploadFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	token := signup(t, server, "ana@campus.edu", model.RoleStudent)

	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"title":            "Backpack",
		"found_location":   "Gym",
		"deposit_location": "Front Desk",
		"found_date":       "2024-03-01",
		"found_time":       "09:30",
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	part, _ := mw.CreateFormFile("image", "photo.png")
	part.Write(imgBuf.Bytes())
	mw.Close()

	req, _ := http.NewRequest("POST", server.URL+"/api/items", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("multipart create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var item model.FoundItem
	json.NewDecoder(resp.Body).Decode(&item)
	if item.ImageURL == "" {
		t.Fatal("expected image url on created item")
	}

	// The public URL serves the stored photo.
	imgResp, err := http.Get(server.URL + item.ImageURL)
	if err != nil {
		t.Fatalf("fetching image: %v", err)
	}
	defer imgResp.Body.Close()
	if imgResp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for stored image, got %d", imgResp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _ := setupTestServer(t)
	token := signup(t, server, "ana@campus.edu", model.RoleStudent)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout failed: %d", resp.StatusCode)
	}

	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}
