package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pdm01/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger = zap.NewNop()
	jwtSecret = []byte("test-secret")
	t.Setenv("UPLOAD_BASE", t.TempDir())

	var err error
	db, err = gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	for _, m := range []any{&models.Role{}, &models.Client{}, &models.Profile{}, &models.ShareHistory{}} {
		if err := db.AutoMigrate(m); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	ensureUploadBase()

	r := gin.New()
	setupRoutes(r)
	return r
}

// authToken registers and logs in a client, returning a bearer token.
func authToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "tester", "password": "secret1"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != http.StatusOK && resp.Code != http.StatusConflict {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	body, _ = json.Marshal(map[string]string{"username": "tester", "password": "secret1"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

type formFile struct {
	field, name string
	data        []byte
}

// profileForm builds a multipart body from text fields plus optional files.
func profileForm(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("form file %s: %v", f.field, err)
		}
		_, _ = w.Write(f.data)
	}
	_ = mw.Close()
	return buf, mw.FormDataContentType()
}

func requiredFields(uid, email string) map[string]string {
	return map[string]string{
		"uid":       uid,
		"firstName": "Asha",
		"lastName":  "Verma",
		"dob":       "1990-04-12",
		"gender":    "female",
		"phone":     "+91-9876500000",
		"email":     email,
	}
}

func createProfile(t *testing.T, r *gin.Engine, token string, fields map[string]string, files ...formFile) models.Profile {
	t.Helper()
	body, ct := profileForm(t, fields, files...)
	resp := performRequest(r, http.MethodPost, "/profiles", body, token, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create profile failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var p models.Profile
	if err := json.Unmarshal(resp.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return p
}

func TestCreateAndGetProfile(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	fields := requiredFields("U1", "asha@example.com")
	fields["bankName"] = "State Bank"
	fields["consent"] = "true"
	p := createProfile(t, r, token, fields)

	if p.ID == "" {
		t.Fatal("expected generated id")
	}
	if p.UID != "U1" || p.Email != "asha@example.com" {
		t.Fatalf("unexpected record: %+v", p)
	}
	if p.BankName != "State Bank" || !p.Consent {
		t.Fatalf("optional fields not persisted: %+v", p)
	}

	resp := performRequest(r, http.MethodGet, "/profiles/"+p.ID, nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var got models.Profile
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.ID != p.ID || got.FirstName != "Asha" {
		t.Fatalf("get mismatch: %+v", got)
	}

	// unset optional fields are absent from the stored row, not empty strings
	var nullCount int64
	if err := db.Raw("SELECT count(*) FROM profiles WHERE id = ? AND middle_name IS NULL", p.ID).Scan(&nullCount).Error; err != nil {
		t.Fatalf("raw query: %v", err)
	}
	if nullCount != 1 {
		t.Fatal("expected unset optional field stored as NULL")
	}
}

func TestCreateMissingRequiredField(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	fields := requiredFields("U2", "b@example.com")
	delete(fields, "firstName")
	delete(fields, "phone")
	body, ct := profileForm(t, fields)
	resp := performRequest(r, http.MethodPost, "/profiles", body, token, ct)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var e map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &e)
	// first missing field in declaration order is reported
	if e["error"] != "missing required field: firstName" {
		t.Fatalf("unexpected error message: %q", e["error"])
	}
}

func TestCreateConflicts(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	createProfile(t, r, token, requiredFields("U3", "c@example.com"))

	// same uid, different email
	body, ct := profileForm(t, requiredFields("U3", "other@example.com"))
	resp := performRequest(r, http.MethodPost, "/profiles", body, token, ct)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate uid got %d body=%s", resp.Code, resp.Body.String())
	}

	// same email, different uid
	body, ct = profileForm(t, requiredFields("U4", "c@example.com"))
	resp = performRequest(r, http.MethodPost, "/profiles", body, token, ct)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestPartialUpdate(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	fields := requiredFields("U5", "d@example.com")
	fields["occupation"] = "engineer"
	p := createProfile(t, r, token, fields)

	body, ct := profileForm(t, map[string]string{"firstName": "Meera"})
	resp := performRequest(r, http.MethodPut, "/profiles/"+p.ID, body, token, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("update failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var got models.Profile
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.FirstName != "Meera" {
		t.Fatalf("firstName not updated: %+v", got)
	}
	if got.LastName != "Verma" || got.Occupation != "engineer" || got.Email != "d@example.com" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestUpdateUnknownIDFailsGenerically(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	body, ct := profileForm(t, map[string]string{"firstName": "Nobody"})
	resp := performRequest(r, http.MethodPut, "/profiles/does-not-exist", body, token, ct)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unknown id got %d", resp.Code)
	}
}

func TestUpdateConflict(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	createProfile(t, r, token, requiredFields("U6", "first@example.com"))
	p2 := createProfile(t, r, token, requiredFields("U7", "second@example.com"))

	body, ct := profileForm(t, map[string]string{"email": "first@example.com"})
	resp := performRequest(r, http.MethodPut, "/profiles/"+p2.ID, body, token, ct)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	p := createProfile(t, r, token, requiredFields("U8", "e@example.com"))

	resp := performRequest(r, http.MethodDelete, "/profiles/"+p.ID, nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// record is gone
	resp = performRequest(r, http.MethodGet, "/profiles/"+p.ID, nil, token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", resp.Code)
	}

	// repeating the delete surfaces an error, not a no-op
	resp = performRequest(r, http.MethodDelete, "/profiles/"+p.ID, nil, token, "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on repeat delete got %d", resp.Code)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	resp := performRequest(r, http.MethodGet, "/profiles/never-created", nil, token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestFileFields(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	p := createProfile(t, r, token, requiredFields("U9", "f@example.com"),
		formFile{field: "photo", name: "me.jpg", data: []byte("JPEGDATA")},
		formFile{field: "idDocument", name: "empty.pdf", data: nil}, // zero-byte: skipped
	)

	if p.Photo == "" || filepath.Dir(p.Photo) != "/uploads" {
		t.Fatalf("expected public photo path, got %q", p.Photo)
	}
	if p.IDDocument != "" {
		t.Fatalf("zero-byte upload must leave the field unset, got %q", p.IDDocument)
	}
	onDisk := filepath.Join(os.Getenv("UPLOAD_BASE"), filepath.Base(p.Photo))
	data, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("uploaded file not readable: %v", err)
	}
	if string(data) != "JPEGDATA" {
		t.Fatalf("stored content mismatch: %q", data)
	}

	// a new upload replaces the reference but keeps the old file on disk
	body, ct := profileForm(t, nil, formFile{field: "photo", name: "me.jpg", data: []byte("NEWDATA")})
	resp := performRequest(r, http.MethodPut, "/profiles/"+p.ID, body, token, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("update with file failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var got models.Profile
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Photo == p.Photo || got.Photo == "" {
		t.Fatalf("expected fresh storage path, got %q", got.Photo)
	}
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("previous file should remain on disk: %v", err)
	}
}

func TestDeleteLeavesFilesAndHistory(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	p := createProfile(t, r, token, requiredFields("U10", "g@example.com"),
		formFile{field: "signature", name: "sig.png", data: []byte("PNGDATA")})

	entry := models.ShareHistory{ProfileID: p.ID, SharedWith: "Acme Bank", Purpose: "kyc verification", SharedFields: "uid,firstName,panNumber", SharedAt: time.Now()}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed share history: %v", err)
	}

	resp := performRequest(r, http.MethodDelete, "/profiles/"+p.ID, nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete failed status=%d", resp.Code)
	}

	// file survives
	if _, err := os.Stat(filepath.Join(os.Getenv("UPLOAD_BASE"), filepath.Base(p.Signature))); err != nil {
		t.Fatalf("referenced file removed on delete: %v", err)
	}
	// history rows survive and remain retrievable
	resp = performRequest(r, http.MethodGet, "/share-history/"+p.ID, nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("share history failed status=%d", resp.Code)
	}
	var entries []models.ShareHistory
	_ = json.Unmarshal(resp.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0].SharedWith != "Acme Bank" {
		t.Fatalf("expected orphaned history row, got %+v", entries)
	}
}

func TestShareHistoryListing(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	p := createProfile(t, r, token, requiredFields("U11", "h@example.com"))
	for _, with := range []string{"Acme Bank", "Metro Hospital"} {
		if err := db.Create(&models.ShareHistory{ProfileID: p.ID, SharedWith: with, SharedAt: time.Now()}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp := performRequest(r, http.MethodGet, "/share-history", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list failed status=%d", resp.Code)
	}
	var all []models.ShareHistory
	_ = json.Unmarshal(resp.Body.Bytes(), &all)
	if len(all) != 2 {
		t.Fatalf("expected 2 entries got %d", len(all))
	}
	// newest first
	if all[0].SharedWith != "Metro Hospital" {
		t.Fatalf("expected newest-first ordering, got %+v", all)
	}

	// unknown profile yields an empty array, not an error
	resp = performRequest(r, http.MethodGet, "/share-history/no-such-profile", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "[]" && body != "[]\n" {
		t.Fatalf("expected empty array, got %s", body)
	}
}

func TestConsentCoercion(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	fields := requiredFields("U12", "i@example.com")
	fields["consent"] = "TRUE"
	p := createProfile(t, r, token, fields)
	if !p.Consent {
		t.Fatal("expected TRUE coerced to true")
	}

	// anything other than "true" is false
	body, ct := profileForm(t, map[string]string{"consent": "yes"})
	resp := performRequest(r, http.MethodPut, "/profiles/"+p.ID, body, token, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("update failed status=%d", resp.Code)
	}
	var got models.Profile
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Consent {
		t.Fatal("expected non-true literal coerced to false")
	}

	// absent consent leaves the stored value untouched
	fields2 := requiredFields("U13", "j@example.com")
	fields2["consent"] = "true"
	p2 := createProfile(t, r, token, fields2)
	body, ct = profileForm(t, map[string]string{"notes": "updated"})
	resp = performRequest(r, http.MethodPut, "/profiles/"+p2.ID, body, token, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("update failed status=%d", resp.Code)
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if !got.Consent {
		t.Fatal("absent consent field must not clear the stored flag")
	}
}

func TestAuthGate(t *testing.T) {
	r := setupTestServer(t)

	resp := performRequest(r, http.MethodGet, "/profiles", nil, "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	token := authToken(t, r)
	resp = performRequest(r, http.MethodGet, "/profiles", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}

	// banned clients are rejected on the next request even with a valid token
	if err := db.Model(&models.Client{}).Where("username = ?", "tester").Update("banned", true).Error; err != nil {
		t.Fatalf("ban client: %v", err)
	}
	resp = performRequest(r, http.MethodGet, "/profiles", nil, token, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for banned client got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestListProfiles(t *testing.T) {
	r := setupTestServer(t)
	token := authToken(t, r)

	resp := performRequest(r, http.MethodGet, "/profiles", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list failed status=%d", resp.Code)
	}
	if body := resp.Body.String(); body != "[]" && body != "[]\n" {
		t.Fatalf("expected empty array, got %s", body)
	}

	createProfile(t, r, token, requiredFields("U14", "k@example.com"))
	createProfile(t, r, token, requiredFields("U15", "l@example.com"))

	resp = performRequest(r, http.MethodGet, "/profiles", nil, token, "")
	var all []models.Profile
	_ = json.Unmarshal(resp.Body.Bytes(), &all)
	if len(all) != 2 {
		t.Fatalf("expected 2 profiles got %d", len(all))
	}
}
