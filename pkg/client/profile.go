package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Dongwon38/wpyvr-sub000/pkg/htmltext"
)

// Profile visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// SocialLink is one entry of a profile's social_links list.
type SocialLink struct {
	Type string `json:"type" validate:"required"`
	URL  string `json:"url"  validate:"required,url"`
}

// PrivacySettings gate individual profile fields for other viewers. The
// zero value hides everything.
type PrivacySettings struct {
	ShowEmail       bool `json:"show_email"`
	ShowPosition    bool `json:"show_position"`
	ShowCompany     bool `json:"show_company"`
	ShowWebsite     bool `json:"show_website"`
	ShowSpecialties bool `json:"show_specialties"`
}

// Profile is the normalized member profile. The same shape is sent back on
// update; the backend replaces the stored record wholesale.
type Profile struct {
	UserID            int64           `json:"user_id"`
	Nickname          string          `json:"nickname"           validate:"required"`
	Bio               string          `json:"bio"`
	Position          string          `json:"position"`
	Company           string          `json:"company"`
	Website           string          `json:"website"`
	Specialties       []string        `json:"specialties"`
	Status            []string        `json:"status"`
	AvatarURL         string          `json:"avatar_url"`
	ProfileVisibility string          `json:"profile_visibility" validate:"omitempty,oneof=public private"`
	CustomEmail       string          `json:"custom_email"       validate:"omitempty,email"`
	SocialLinks       []SocialLink    `json:"social_links"       validate:"dive"`
	PrivacySettings   PrivacySettings `json:"privacy_settings"`
}

// Listed reports whether the profile may appear in member listings.
func (p Profile) Listed() bool {
	return p.ProfileVisibility == VisibilityPublic
}

func normalizeProfile(r rawRecord) Profile {
	privacy := r.obj("privacy_settings")
	p := Profile{
		UserID:            r.intOr(0, "user_id", "id", "ID"),
		Nickname:          htmltext.Title(r.str("nickname", "display_name", "name")),
		Bio:               htmltext.Title(r.str("bio", "description")),
		Position:          htmltext.Title(r.str("position")),
		Company:           htmltext.Title(r.str("company")),
		Website:           strings.TrimSpace(r.str("website", "url")),
		Specialties:       r.list("specialties"),
		Status:            r.list("status"),
		AvatarURL:         r.str("avatar_url", "avatar"),
		ProfileVisibility: strings.ToLower(r.str("profile_visibility")),
		CustomEmail:       strings.TrimSpace(r.str("custom_email", "email")),
		SocialLinks:       []SocialLink{},
		PrivacySettings: PrivacySettings{
			ShowEmail:       privacy.boolean("show_email"),
			ShowPosition:    privacy.boolean("show_position"),
			ShowCompany:     privacy.boolean("show_company"),
			ShowWebsite:     privacy.boolean("show_website"),
			ShowSpecialties: privacy.boolean("show_specialties"),
		},
	}
	if p.ProfileVisibility != VisibilityPublic {
		p.ProfileVisibility = VisibilityPrivate
	}
	if links, ok := r["social_links"].([]any); ok {
		for _, l := range toRecords(links) {
			link := SocialLink{Type: l.str("type", "platform"), URL: l.str("url")}
			if link.URL != "" {
				p.SocialLinks = append(p.SocialLinks, link)
			}
		}
	}
	return p
}

// GetUserProfile fetches a member's profile with the caller's bearer token.
// Unlike FetchUserProfile it returns the failure.
func (c *Client) GetUserProfile(ctx context.Context, token string, userID int64) (*Profile, error) {
	target := c.profileURL(userID)
	body, err := c.getRaw(ctx, "profile", target, token, CacheNone)
	if err != nil {
		return nil, err
	}
	r, err := decodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("profile response: %w", err)
	}
	p := normalizeProfile(unwrapData(r))
	if p.UserID == 0 {
		p.UserID = userID
	}
	return &p, nil
}

// profileURL is the read endpoint for userID; 0 means the caller.
func (c *Client) profileURL(userID int64) string {
	q := url.Values{}
	if userID > 0 {
		q.Set("user_id", strconv.FormatInt(userID, 10))
	}
	return buildURL(c.baseURL, c.endpoints.ProfileGet, q)
}

// FetchUserProfile is the read-path form of GetUserProfile: nil on any
// failure, including "no profile yet".
func (c *Client) FetchUserProfile(ctx context.Context, token string, userID int64) *Profile {
	p, err := c.GetUserProfile(ctx, token, userID)
	if err != nil {
		c.degrade("profile", c.profileURL(userID), err)
		return nil
	}
	return p
}

// UpdateUserProfile submits the full profile. The nickname and other
// tagged fields are validated before any request is made.
func (c *Client) UpdateUserProfile(ctx context.Context, token string, p Profile) (*Profile, error) {
	p.Nickname = strings.TrimSpace(p.Nickname)
	if p.ProfileVisibility == "" {
		p.ProfileVisibility = VisibilityPrivate
	}
	if p.Specialties == nil {
		p.Specialties = []string{}
	}
	if p.Status == nil {
		p.Status = []string{}
	}
	if p.SocialLinks == nil {
		p.SocialLinks = []SocialLink{}
	}
	if err := Validate(p); err != nil {
		return nil, err
	}

	target := buildURL(c.baseURL, c.endpoints.ProfileUpdate, nil)
	body, err := c.send(ctx, "profile_update", http.MethodPost, target, token, p)
	if err != nil {
		return nil, err
	}

	r, err := decodeRecord(body)
	if err != nil {
		return &p, nil
	}
	r = unwrapData(r)
	if _, ok := r["nickname"]; !ok {
		return &p, nil
	}
	updated := normalizeProfile(r)
	if updated.UserID == 0 {
		updated.UserID = p.UserID
	}
	return &updated, nil
}

// FetchMembers returns the public member directory. Profiles that are not
// public are dropped even if the backend returns them, and each listed
// profile is gated by its own privacy settings.
func (c *Client) FetchMembers(ctx context.Context) []Profile {
	target := buildURL(c.baseURL, c.endpoints.Members, nil)
	records := c.readList(ctx, "members", target, CacheNone)
	all := make([]Profile, 0, len(records))
	for _, r := range records {
		all = append(all, normalizeProfile(r))
	}
	listed := FilterListed(all)
	for i := range listed {
		listed[i] = listed[i].VisibleTo(false)
	}
	return listed
}
