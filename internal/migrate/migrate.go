// Package migrate copies the product and user sheets into the relational
// store.
package migrate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-sheet-catalog/catalog"
	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// ProductSink receives products keyed by combo.
type ProductSink interface {
	UpsertByCombo(ctx context.Context, p *store.Product) (*store.Product, bool, error)
}

// UserSink receives users keyed by username.
type UserSink interface {
	UpsertByUsername(ctx context.Context, u *store.User) (*store.User, bool, error)
}

// Failure is a row that could not be written.
type Failure struct {
	Row int    `json:"row"`
	Key string `json:"key"`
	Err string `json:"error"`
}

// Counts summarizes one table.
type Counts struct {
	Migrated int       `json:"migrated"`
	Created  int       `json:"created"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	Failures []Failure `json:"failures,omitempty"`
}

func (c *Counts) fail(idx int, key string, err error) {
	c.Errors++
	c.Failures = append(c.Failures, Failure{Row: sheetrepo.RowNumber(idx), Key: key, Err: err.Error()})
}

type Report struct {
	Products Counts `json:"products"`
	Users    Counts `json:"users"`
}

type Option func(*Migrator)

// WithProductRange reads products from r instead of "productos".
func WithProductRange(r string) Option {
	return func(m *Migrator) { m.productRange = r }
}

// WithUserTable reads users from table instead of "usuarios".
func WithUserTable(table string) Option {
	return func(m *Migrator) { m.userTable = table }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Migrator) { m.logger = l }
}

// Migrator upserts every keyed sheet row. Rows without a combo or username
// are skipped; a failed row is reported and the run continues.
type Migrator struct {
	repo         *sheetrepo.Repository
	products     ProductSink
	users        UserSink
	productRange string
	userTable    string
	logger       *zap.Logger
}

func New(repo *sheetrepo.Repository, products ProductSink, users UserSink, opts ...Option) *Migrator {
	m := &Migrator{
		repo:         repo,
		products:     products,
		users:        users,
		productRange: "productos",
		userTable:    "usuarios",
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run migrates products, then users. It only fails when a sheet cannot be
// read or ctx is done.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	if err := m.migrateProducts(ctx, &report.Products); err != nil {
		return report, err
	}
	if err := m.migrateUsers(ctx, &report.Users); err != nil {
		return report, err
	}
	m.logger.Info("migration finished",
		zap.Int("products", report.Products.Migrated),
		zap.Int("product_errors", report.Products.Errors),
		zap.Int("users", report.Users.Migrated),
		zap.Int("user_errors", report.Users.Errors),
	)
	return report, nil
}

func (m *Migrator) migrateProducts(ctx context.Context, c *Counts) error {
	records, err := m.repo.FetchTable(ctx, m.productRange)
	if err != nil {
		return fmt.Errorf("migrate: read products: %w", err)
	}
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, ok := productFromRecord(r)
		if !ok {
			c.Skipped++
			continue
		}
		_, created, err := m.products.UpsertByCombo(ctx, p)
		if err != nil {
			m.logger.Warn("product not migrated", zap.Int("combo", p.Combo), zap.Error(err))
			c.fail(i, strconv.Itoa(p.Combo), err)
			continue
		}
		c.Migrated++
		if created {
			c.Created++
		}
	}
	return nil
}

func (m *Migrator) migrateUsers(ctx context.Context, c *Counts) error {
	records, err := m.repo.FetchTable(ctx, m.userTable)
	if err != nil {
		return fmt.Errorf("migrate: read users: %w", err)
	}
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		u, ok := userFromRecord(r)
		if !ok {
			c.Skipped++
			continue
		}
		_, created, err := m.users.UpsertByUsername(ctx, u)
		if err != nil {
			m.logger.Warn("user not migrated", zap.String("username", u.Username), zap.Error(err))
			c.fail(i, u.Username, err)
			continue
		}
		c.Migrated++
		if created {
			c.Created++
		}
	}
	return nil
}

// productFromRecord maps a productos row by header name. Rows are rejected
// when catalog.ParseCombo rejects their combo, so the catalog and the
// database agree on which rows are products.
func productFromRecord(r sheetrepo.Record) (*store.Product, bool) {
	combo, ok := catalog.ParseCombo(r.Get("combo"))
	if !ok {
		return nil, false
	}
	get := func(f string) string { return strings.TrimSpace(r.Get(f)) }
	return &store.Product{
		Combo:       combo,
		Familia:     get("familia"),
		Linea:       get("linea"),
		Codigo:      get("codigo"),
		Descripcion: get("descripcion"),
		Puntos:      get("puntos"),

		PrecioPreferencial:              get("precio_preferencial"),
		PrecioNegocio:                   get("precio_negocio"),
		PrecioEmprendedorNoCategorizado: get("precio_emprendedor_no_categorizado"),
		PrecioEmprendedorCategorizado:   get("precio_emprendedor_categorizado_y_tdf"),
		PrecioEmprendedorSinIVA:         get("precio_emprendedor_sin_iva"),
		PSVPLista:                       get("psvp_lista"),

		VeinticuatroSinInteres: get("veinticuatro_sin_interes"),
		VeinteSinInteres:       get("veinte_sin_interes"),
		DieciochoSinInteres:    get("dieciocho_sin_interes"),
		QuinceSinInteres:       get("quince_sin_interes"),
		CatorceSinInteres:      get("catorce_sin_interes"),
		DoceSinInteres:         get("doce_sin_interes"),
		DiezSinInteres:         get("diez_sin_interes"),
		NueveSinInteres:        get("nueve_sin_interes"),
		SeisSinInteres:         get("seis_sin_interes"),
		TresSinInteres:         get("tres_sin_interes"),
		TresConInteres:         get("tres_con_interes"),
		SeisConInteres:         get("seis_con_interes"),
		PorComisionable:        get("por_comisionable"),
		ValorComisionable:      get("valor_comisionable"),

		Vigencia:     get("vigencia"),
		Imagen:       get("imagen"),
		FichaTecnica: get("ficha_tecnica"),
		Discount:     get("discount"),
		Event:        get("event"),
	}, true
}

func userFromRecord(r sheetrepo.Record) (*store.User, bool) {
	username := strings.TrimSpace(r.Get("username"))
	if username == "" {
		return nil, false
	}
	estado := strings.TrimSpace(r.Get("estado"))
	if estado == "" {
		estado = store.UserActiveValue
	}
	return &store.User{
		Username:           username,
		Password:           r.Get("password"),
		Email:              strings.TrimSpace(r.Get("email")),
		Nombre:             strings.TrimSpace(r.Get("nombre")),
		Apellido:           strings.TrimSpace(r.Get("apellido")),
		Rango:              strings.TrimSpace(r.Get("rango")),
		CodigoEmprendedora: strings.TrimSpace(r.Get("codigo_emprendedora")),
		TipoUsuario:        strings.TrimSpace(r.Get("tipo_usuario")),
		Estado:             estado,
	}, true
}
