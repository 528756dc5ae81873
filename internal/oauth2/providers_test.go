package oauth2

import "testing"

func TestFindByID(t *testing.T) {
	p, ok := FindByID("google")
	if !ok {
		t.Fatal("expected google provider to be found")
	}
	if p.Name != "Google" {
		t.Errorf("got name %q, want Google", p.Name)
	}

	if _, ok := FindByID("does-not-exist"); ok {
		t.Error("expected unknown provider id to not be found")
	}
}

func TestFindByEmail(t *testing.T) {
	p, ok := FindByEmail("someone@gmail.com")
	if !ok || p.ID != "google" {
		t.Errorf("expected gmail.com to resolve to google, got %+v ok=%v", p, ok)
	}

	p, ok = FindByEmail("someone@mail.outlook.com")
	if !ok || p.ID != "microsoft" {
		t.Errorf("expected subdomain of outlook.com to resolve to microsoft, got %+v ok=%v", p, ok)
	}

	if _, ok := FindByEmail("no-at-sign"); ok {
		t.Error("expected malformed email to not resolve")
	}

	if _, ok := FindByEmail("someone@example.com"); ok {
		t.Error("expected unknown domain to not resolve")
	}
}

func TestProviderIsValidRequiresClientID(t *testing.T) {
	p, ok := FindByID("google")
	if !ok {
		t.Fatal("expected google provider to be found")
	}
	if p.IsValid() {
		t.Error("expected provider with empty clientId to be invalid")
	}

	p.ClientID = "abc"
	if !p.IsValid() {
		t.Error("expected provider with clientId and endpoints set to be valid")
	}
}
