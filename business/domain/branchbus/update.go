package branchbus

func applyUpdate(b *Branch, ub UpdateBranch) {
	if ub.Name != nil {
		b.Name = *ub.Name
	}

	p := &b.Profile

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&p.InternalName, ub.InternalName)
	set(&p.CNPJ, ub.CNPJ)
	set(&p.Address, ub.Address)
	set(&p.Neighborhood, ub.Neighborhood)
	set(&p.Number, ub.Number)
	set(&p.Complement, ub.Complement)
	set(&p.City, ub.City)
	set(&p.State, ub.State)
	set(&p.StateShort, ub.StateShort)
	set(&p.ZipCode, ub.ZipCode)
	set(&p.Email, ub.Email)
	set(&p.Website, ub.Website)
	set(&p.LogoURL, ub.LogoURL)

	if ub.Telephone != nil {
		p.Telephone = *ub.Telephone
	}

	if ub.Whatsapp != nil {
		p.Whatsapp = *ub.Whatsapp
	}

	if ub.Latitude != nil {
		p.Latitude = nil
		if ub.Latitude.Valid {
			v := ub.Latitude.V
			p.Latitude = &v
		}
	}

	if ub.Longitude != nil {
		p.Longitude = nil
		if ub.Longitude.Valid {
			v := ub.Longitude.V
			p.Longitude = &v
		}
	}
}
