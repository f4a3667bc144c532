package legacy

import (
	"context"
	"strconv"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// Preferences are the UI settings stored on a profile row.
type Preferences struct {
	Notifications bool   `json:"notifications"`
	DarkMode      bool   `json:"darkMode"`
	Language      string `json:"language"`
	Theme         string `json:"theme"`
}

// Profile is one Perfiles_Emprendedoras row.
type Profile struct {
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	BusinessName  string      `json:"businessName"`
	BusinessType  string      `json:"businessType"`
	Avatar        string      `json:"avatar"`
	Rango         string      `json:"rango"`
	FechaRegistro string      `json:"fechaRegistro"`
	Preferences   Preferences `json:"preferences"`
}

// ProfileStats are the counters kept on a profile row.
type ProfileStats struct {
	TotalVentas     int     `json:"totalVentas"`
	ClientesActivos int     `json:"clientesActivos"`
	PlacasGeneradas int     `json:"placasGeneradas"`
	Rating          float64 `json:"rating"`
}

// Profiles works on the Perfiles_Emprendedoras sheet.
type Profiles struct {
	repo *sheetrepo.Repository
}

func NewProfiles(repo *sheetrepo.Repository) *Profiles {
	return &Profiles{repo: repo}
}

func (p *Profiles) find(ctx context.Context, username string) (sheetrepo.Record, error) {
	t, idx, err := p.repo.Locate(ctx, TableProfiles, sheetrepo.FieldEqualsFold("username", username))
	if err != nil {
		return nil, err
	}
	return t.Records[idx], nil
}

func (p *Profiles) Get(ctx context.Context, username string) (*Profile, error) {
	r, err := p.find(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Username:      r.Get("username"),
		Email:         r.Get("email"),
		Phone:         r.Get("phone"),
		Address:       r.Get("address"),
		BusinessName:  r.Get("businessName"),
		BusinessType:  r.Get("businessType"),
		Avatar:        r.Get("avatar"),
		Rango:         r.Get("rango"),
		FechaRegistro: r.Get("fechaRegistro"),
		Preferences: Preferences{
			Notifications: r.Get("notifications") == "true",
			DarkMode:      r.Get("darkMode") == "true",
			Language:      r.Get("language"),
			Theme:         r.Get("theme"),
		},
	}, nil
}

func (p *Profiles) Stats(ctx context.Context, username string) (*ProfileStats, error) {
	r, err := p.find(ctx, username)
	if err != nil {
		return nil, err
	}
	rating, _ := strconv.ParseFloat(r.Get("rating"), 64)
	return &ProfileStats{
		TotalVentas:     parseInt(r.Get("totalVentas")),
		ClientesActivos: parseInt(r.Get("clientesActivos")),
		PlacasGeneradas: parseInt(r.Get("placasGeneradas")),
		Rating:          rating,
	}, nil
}

// Update writes the given columns of the profile. The username column is
// never changed; columns the sheet lacks fail with sheetrepo.ErrSchemaMismatch.
func (p *Profiles) Update(ctx context.Context, username string, fields map[string]string) error {
	updates := make(map[string]string, len(fields))
	for k, v := range fields {
		if k != "username" {
			updates[k] = v
		}
	}
	return p.repo.WithTableLock(ctx, TableProfiles, func(ctx context.Context) error {
		return p.repo.PointUpdate(ctx, TableProfiles, sheetrepo.FieldEqualsFold("username", username), updates)
	})
}
