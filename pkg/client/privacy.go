package client

// VisibleTo returns the copy of p a viewer may see. Owners see everything.
// For anyone else each privacy flag hides only its own field.
func (p Profile) VisibleTo(viewerIsOwner bool) Profile {
	if viewerIsOwner {
		return p
	}
	out := p
	ps := p.PrivacySettings
	if !ps.ShowEmail {
		out.CustomEmail = ""
	}
	if !ps.ShowPosition {
		out.Position = ""
	}
	if !ps.ShowCompany {
		out.Company = ""
	}
	if !ps.ShowWebsite {
		out.Website = ""
	}
	if !ps.ShowSpecialties {
		out.Specialties = []string{}
	}
	return out
}

// FilterListed keeps the profiles whose visibility is public. Field-level
// privacy is left untouched.
func FilterListed(profiles []Profile) []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Listed() {
			out = append(out, p)
		}
	}
	return out
}
