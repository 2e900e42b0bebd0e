package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

func fullProfile() client.Profile {
	return client.Profile{
		UserID:            7,
		Nickname:          "ann",
		Bio:               "hello",
		Position:          "Engineer",
		Company:           "Acme",
		Website:           "https://ann.dev",
		Specialties:       []string{"go", "wordpress"},
		Status:            []string{"open-to-work"},
		ProfileVisibility: client.VisibilityPublic,
		CustomEmail:       "ann@example.com",
	}
}

func TestVisibleTo_flagsAreIndependent(t *testing.T) {
	type field struct {
		name string
		set  func(*client.PrivacySettings, bool)
		get  func(client.Profile) bool
	}
	fields := []field{
		{"email", func(p *client.PrivacySettings, v bool) { p.ShowEmail = v }, func(p client.Profile) bool { return p.CustomEmail != "" }},
		{"position", func(p *client.PrivacySettings, v bool) { p.ShowPosition = v }, func(p client.Profile) bool { return p.Position != "" }},
		{"company", func(p *client.PrivacySettings, v bool) { p.ShowCompany = v }, func(p client.Profile) bool { return p.Company != "" }},
		{"website", func(p *client.PrivacySettings, v bool) { p.ShowWebsite = v }, func(p client.Profile) bool { return p.Website != "" }},
		{"specialties", func(p *client.PrivacySettings, v bool) { p.ShowSpecialties = v }, func(p client.Profile) bool { return len(p.Specialties) > 0 }},
	}

	for _, visibility := range []string{client.VisibilityPublic, client.VisibilityPrivate} {
		for mask := 0; mask < 1<<len(fields); mask++ {
			p := fullProfile()
			p.ProfileVisibility = visibility
			for i, f := range fields {
				f.set(&p.PrivacySettings, mask&(1<<i) != 0)
			}

			seen := p.VisibleTo(false)
			for i, f := range fields {
				want := mask&(1<<i) != 0
				if got := f.get(seen); got != want {
					t.Errorf("visibility=%s mask=%05b: %s shown=%v, want %v", visibility, mask, f.name, got, want)
				}
			}
			if seen.Nickname != "ann" || seen.Bio != "hello" {
				t.Errorf("ungated fields changed: %+v", seen)
			}
			if seen.Listed() != (visibility == client.VisibilityPublic) {
				t.Errorf("Listed changed by field flags: mask=%05b", mask)
			}
		}
	}
}

func TestVisibleTo_ownerSeesEverything(t *testing.T) {
	p := fullProfile()
	if got := p.VisibleTo(true); got.CustomEmail == "" || got.Company == "" {
		t.Errorf("owner view was gated: %+v", got)
	}
}

func TestFilterListed(t *testing.T) {
	pub := fullProfile()
	priv := fullProfile()
	priv.UserID = 8
	priv.ProfileVisibility = client.VisibilityPrivate
	priv.PrivacySettings.ShowCompany = true

	out := client.FilterListed([]client.Profile{pub, priv})
	if len(out) != 1 || out[0].UserID != 7 {
		t.Errorf("unexpected listing: %+v", out)
	}
}

func TestUpdateUserProfile_propagatesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"nickname taken"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).UpdateUserProfile(context.Background(), "tok", fullProfile())
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "nickname taken" {
		t.Errorf("err = %q, want %q", err.Error(), "nickname taken")
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Errorf("expected *APIError with 409, got %#v", err)
	}
}

func TestUpdateUserProfile_sendsFullPayload(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	p := fullProfile()
	p.Bio = ""
	saved, err := newClient(t, srv.URL).UpdateUserProfile(context.Background(), "tok", p)
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	for _, key := range []string{"user_id", "nickname", "bio", "specialties", "status", "social_links", "privacy_settings", "profile_visibility"} {
		if _, ok := got[key]; !ok {
			t.Errorf("payload missing %q: %v", key, got)
		}
	}
	if got["user_id"] != float64(7) {
		t.Errorf("user_id = %v", got["user_id"])
	}
	if saved.Nickname != "ann" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestUpdateUserProfile_requiresNickname(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	p := fullProfile()
	p.Nickname = "  "
	_, err := newClient(t, srv.URL).UpdateUserProfile(context.Background(), "tok", p)
	var verr *client.ValidationError
	if !errors.As(err, &verr) || verr.Field != "nickname" {
		t.Fatalf("expected nickname validation error, got %v", err)
	}
	if err.Error() != "nickname is required" {
		t.Errorf("message = %q", err.Error())
	}
	if calls.Load() != 0 {
		t.Errorf("expected no request, got %d", calls.Load())
	}
}

func TestGetUserProfile_normalizesLooseShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_id") != "7" {
			http.Error(w, `{"message":"missing user"}`, http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"success":true,"data":{
			"nickname":"Ann &amp; Bo",
			"specialties":"go, wordpress ,",
			"status":["open-to-work"],
			"profile_visibility":"PUBLIC",
			"social_links":[{"type":"github","url":"https://github.com/ann"},{"type":"x","url":""}],
			"privacy_settings":{"show_email":"1","show_company":true,"show_website":0}
		}}`))
	}))
	defer srv.Close()

	p, err := newClient(t, srv.URL).GetUserProfile(context.Background(), "tok", 7)
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if p.UserID != 7 || p.Nickname != "Ann & Bo" {
		t.Errorf("unexpected identity fields: %+v", p)
	}
	if len(p.Specialties) != 2 || p.Specialties[1] != "wordpress" {
		t.Errorf("Specialties = %v", p.Specialties)
	}
	if !p.Listed() {
		t.Error("expected public profile")
	}
	if len(p.SocialLinks) != 1 {
		t.Errorf("SocialLinks = %v", p.SocialLinks)
	}
	ps := p.PrivacySettings
	if !ps.ShowEmail || !ps.ShowCompany || ps.ShowWebsite || ps.ShowPosition {
		t.Errorf("PrivacySettings = %+v", ps)
	}
}

func TestFetchMembers_dropsPrivateAndGatesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"user_id":1,"nickname":"pub","company":"Acme","profile_visibility":"public","privacy_settings":{"show_company":false}},
			{"user_id":2,"nickname":"priv","profile_visibility":"private"}
		]`))
	}))
	defer srv.Close()

	members := newClient(t, srv.URL).FetchMembers(context.Background())
	if len(members) != 1 || members[0].UserID != 1 {
		t.Fatalf("unexpected members: %+v", members)
	}
	if members[0].Company != "" {
		t.Errorf("company should be hidden, got %q", members[0].Company)
	}
}

func TestFetchUserProfile_logsFullURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	c := newClient(t, srv.URL, client.WithLogger(zap.New(core)))
	if p := c.FetchUserProfile(context.Background(), "tok", 9); p != nil {
		t.Fatalf("expected nil profile, got %+v", p)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	want := srv.URL + "/wp-json/custom-profile/v1/get?user_id=9"
	if got := entries[0].ContextMap()["url"]; got != want {
		t.Errorf("url = %v, want %s", got, want)
	}
}
