package legacy

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goliatone/go-sheet-catalog/internal/sessions"
	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

const (
	TableUsers    = "usuarios"
	TableSales    = "ventas"
	TableClients  = "clientes"
	TableProducts = "productos"
	TableBanks    = "bancos"
	TableExtras   = "extras"
	TableProfiles = "Perfiles_Emprendedoras"
)

var (
	ErrInvalidCredentials = errors.New("legacy: invalid username or password")
	ErrUserExists         = errors.New("legacy: username already registered")
	ErrWrongPassword      = errors.New("legacy: current password is incorrect")
)

var (
	userFields    = []string{"username", "password", "rango", "codigo_emprendedora", "tipo_usuario"}
	saleFields    = []string{"username", "descripcion", "puntos", "banco", "valor_comisionable", "cuotas", "fecha", "activo"}
	clientFields  = []string{"username", "nombre", "direccion", "banco", "phone"}
	extraFields   = []string{"banner"}
	profileFields = []string{"username"}
)

// Schemas lists the header layout of every sheet the legacy services use.
func Schemas() []sheetrepo.Schema {
	return []sheetrepo.Schema{
		{Table: TableUsers, Fields: userFields},
		{Table: TableSales, Fields: saleFields},
		{Table: TableClients, Fields: clientFields},
		{Table: TableExtras, Fields: extraFields},
		{Table: TableProfiles, Fields: profileFields},
		sessions.Schema(),
	}
}

// Services bundles the legacy sheet services over one repository.
type Services struct {
	Users    *Users
	Sales    *Sales
	Clients  *Clients
	Profiles *Profiles
	Sheets   *Sheets
}

func New(repo *sheetrepo.Repository) *Services {
	return &Services{
		Users:    NewUsers(repo),
		Sales:    NewSales(repo),
		Clients:  NewClients(repo),
		Profiles: NewProfiles(repo),
		Sheets:   NewSheets(repo),
	}
}

func normalizeUser(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return int(parseFloat(s))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
