package integration

import (
	"net/http"
	"testing"
)

func TestAuthFlow_RegisterLoginProfile(t *testing.T) {
	app := setupApp(t)

	token, userID := app.registerUser(t, "auth@test.com", "password123")
	if token == "" {
		t.Fatal("expected a token from registration")
	}

	// A fresh login issues a working token too.
	loginToken := app.loginUser(t, "auth@test.com", "password123")

	rec := app.request("GET", "/api/v1/profile", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching profile, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	if user["id"].(string) != userID {
		t.Errorf("expected profile for user %s, got %v", userID, user["id"])
	}
	if user["email"].(string) != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", user["email"])
	}
}

func TestAuthFlow_DuplicateEmail(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "dupe@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"email":"dupe@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
		t.Errorf("expected DUPLICATE_EMAIL, got %s", code)
	}
}

func TestAuthFlow_WrongPassword(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "locked@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"locked@test.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
	}
}

func TestAuthFlow_ProtectedRoutesRejectMissingToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/budgets", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
