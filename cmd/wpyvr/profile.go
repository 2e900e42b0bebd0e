package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

var profileEdit struct {
	nickname, bio, position, company, website string
	visibility, customEmail                    string
	specialties                                []string
	showEmail, showPosition, showCompany       bool
	showWebsite, showSpecialties               bool
}

func init() {
	f := profileEditCmd.Flags()
	f.StringVar(&profileEdit.nickname, "nickname", "", "Display nickname")
	f.StringVar(&profileEdit.bio, "bio", "", "Short bio")
	f.StringVar(&profileEdit.position, "position", "", "Job title")
	f.StringVar(&profileEdit.company, "company", "", "Company")
	f.StringVar(&profileEdit.website, "website", "", "Personal website")
	f.StringVar(&profileEdit.visibility, "visibility", "", "public or private")
	f.StringVar(&profileEdit.customEmail, "custom-email", "", "Contact email shown on the profile")
	f.StringSliceVar(&profileEdit.specialties, "specialties", nil, "Comma-separated specialties")
	f.BoolVar(&profileEdit.showEmail, "show-email", false, "Show the contact email to others")
	f.BoolVar(&profileEdit.showPosition, "show-position", false, "Show the position to others")
	f.BoolVar(&profileEdit.showCompany, "show-company", false, "Show the company to others")
	f.BoolVar(&profileEdit.showWebsite, "show-website", false, "Show the website to others")
	f.BoolVar(&profileEdit.showSpecialties, "show-specialties", false, "Show specialties to others")

	profileCmd.AddCommand(profileEditCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile [user-id]",
	Short: "Show your profile, or another member's public view",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		token, err := app.session(ctx)
		if err != nil {
			return err
		}
		var userID int64
		if len(args) == 1 {
			if userID, err = parsePostID(args[0]); err != nil {
				return fmt.Errorf("invalid user ID %q", args[0])
			}
		}
		p, err := app.cms.GetUserProfile(ctx, token, userID)
		if err != nil {
			return app.authFailed(err)
		}

		view := *p
		if ident := app.bridge.Identity(); userID != 0 && (ident == nil || ident.WPUserID != userID) {
			if !p.Listed() {
				return fmt.Errorf("member #%d has a private profile", userID)
			}
			view = p.VisibleTo(false)
		}
		if jsonOutput() {
			return printJSON(view)
		}
		printProfile(view)
		return nil
	},
}

func printProfile(p client.Profile) {
	fmt.Printf("Nickname:    %s (#%d)\n", p.Nickname, p.UserID)
	field := func(label, v string) {
		if v != "" {
			fmt.Printf("%-12s %s\n", label+":", v)
		}
	}
	field("Position", p.Position)
	field("Company", p.Company)
	field("Website", p.Website)
	field("Email", p.CustomEmail)
	if len(p.Specialties) > 0 {
		field("Specialties", strings.Join(p.Specialties, ", "))
	}
	field("Visibility", p.ProfileVisibility)
	if p.Bio != "" {
		fmt.Printf("\n%s\n", p.Bio)
	}
}

// editBase picks the profile an edit starts from: the session's cached
// copy, else a fresh fetch, else an empty profile for a member who has
// none yet. Only a 401 from the fetch is an error. The result is always
// keyed by userID.
func editBase(cached *client.Profile, fetch func() (*client.Profile, error), userID int64) (client.Profile, error) {
	var p client.Profile
	if cached != nil {
		p = *cached
	} else {
		fetched, err := fetch()
		if errors.Is(err, client.ErrUnauthorized) {
			return client.Profile{}, err
		}
		if err == nil && fetched != nil {
			p = *fetched
		}
	}
	p.UserID = userID
	return p, nil
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Update your profile",
	Long: `edit changes only the fields whose flags are given; everything else is
sent back unchanged.

  wpyvr profile edit --nickname ann --visibility public --show-company`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		token, err := app.session(ctx)
		if err != nil {
			return err
		}
		ident := app.bridge.Identity()
		if ident == nil {
			return errors.New(`not signed in; run "wpyvr login"`)
		}
		p, err := editBase(app.bridge.Profile(), func() (*client.Profile, error) {
			return app.cms.GetUserProfile(ctx, token, 0)
		}, ident.WPUserID)
		if err != nil {
			return app.authFailed(err)
		}

		f := cmd.Flags()
		set := func(name string, dst *string, v string) {
			if f.Changed(name) {
				*dst = strings.TrimSpace(v)
			}
		}
		set("nickname", &p.Nickname, profileEdit.nickname)
		set("bio", &p.Bio, profileEdit.bio)
		set("position", &p.Position, profileEdit.position)
		set("company", &p.Company, profileEdit.company)
		set("website", &p.Website, profileEdit.website)
		set("visibility", &p.ProfileVisibility, strings.ToLower(profileEdit.visibility))
		set("custom-email", &p.CustomEmail, profileEdit.customEmail)
		if f.Changed("specialties") {
			p.Specialties = profileEdit.specialties
		}
		toggle := func(name string, dst *bool, v bool) {
			if f.Changed(name) {
				*dst = v
			}
		}
		ps := &p.PrivacySettings
		toggle("show-email", &ps.ShowEmail, profileEdit.showEmail)
		toggle("show-position", &ps.ShowPosition, profileEdit.showPosition)
		toggle("show-company", &ps.ShowCompany, profileEdit.showCompany)
		toggle("show-website", &ps.ShowWebsite, profileEdit.showWebsite)
		toggle("show-specialties", &ps.ShowSpecialties, profileEdit.showSpecialties)

		if p.Nickname == "" && !f.Changed("nickname") {
			return errors.New("no profile yet; pass --nickname to create one")
		}
		updated, err := app.cms.UpdateUserProfile(ctx, token, p)
		if err != nil {
			return app.authFailed(err)
		}
		if err := app.bridge.RefreshProfile(ctx); err != nil {
			app.logger.Warn("refresh cached profile after update", zap.Error(err))
		}
		if jsonOutput() {
			return printJSON(updated)
		}
		fmt.Println("✓ Profile updated")
		printProfile(*updated)
		return nil
	},
}
