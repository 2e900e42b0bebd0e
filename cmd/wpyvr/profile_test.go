package main

import (
	"errors"
	"testing"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

func TestEditBase(t *testing.T) {
	noFetch := func() (*client.Profile, error) {
		t.Error("fetch should not run when a cached profile exists")
		return nil, nil
	}

	// ── cached profile wins ──
	p, err := editBase(&client.Profile{Nickname: "ann", Company: "Acme"}, noFetch, 7)
	if err != nil || p.Nickname != "ann" || p.Company != "Acme" || p.UserID != 7 {
		t.Errorf("cached: %+v %v", p, err)
	}

	// ── fetched profile without user_id is keyed by the session ──
	p, err = editBase(nil, func() (*client.Profile, error) {
		return &client.Profile{Nickname: "ann"}, nil
	}, 7)
	if err != nil || p.Nickname != "ann" || p.UserID != 7 {
		t.Errorf("fetched: %+v %v", p, err)
	}

	// ── no profile yet: start empty so the first update creates it ──
	p, err = editBase(nil, func() (*client.Profile, error) {
		return nil, &client.APIError{Status: 404, Message: "no profile"}
	}, 7)
	if err != nil || p.Nickname != "" || p.UserID != 7 {
		t.Errorf("missing: %+v %v", p, err)
	}

	// ── expired session is still an error ──
	_, err = editBase(nil, func() (*client.Profile, error) {
		return nil, &client.APIError{Status: 401, Message: "expired"}
	}, 7)
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Errorf("unauthorized: err = %v", err)
	}
}
