package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Product is the full relational product row, pricing included. It is
// private data: public clients only ever see catalog.PublicProduct.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Combo       int       `bun:"combo,unique,notnull" json:"combo"`
	Familia     string    `bun:"familia" json:"familia"`
	Linea       string    `bun:"linea" json:"linea"`
	Codigo      string    `bun:"codigo" json:"codigo"`
	Descripcion string    `bun:"descripcion" json:"descripcion"`
	Puntos      string    `bun:"puntos" json:"puntos"`

	PrecioPreferencial              string `bun:"precio_preferencial" json:"precio_preferencial"`
	PrecioNegocio                   string `bun:"precio_negocio" json:"precio_negocio"`
	PrecioEmprendedorNoCategorizado string `bun:"precio_emprendedor_no_categorizado" json:"precio_emprendedor_no_categorizado"`
	PrecioEmprendedorCategorizado   string `bun:"precio_emprendedor_categorizado_y_tdf" json:"precio_emprendedor_categorizado_y_tdf"`
	PrecioEmprendedorSinIVA         string `bun:"precio_emprendedor_sin_iva" json:"precio_emprendedor_sin_iva"`
	PSVPLista                       string `bun:"psvp_lista" json:"psvp_lista"`

	VeinticuatroSinInteres string `bun:"veinticuatro_sin_interes" json:"veinticuatro_sin_interes"`
	VeinteSinInteres       string `bun:"veinte_sin_interes" json:"veinte_sin_interes"`
	DieciochoSinInteres    string `bun:"dieciocho_sin_interes" json:"dieciocho_sin_interes"`
	QuinceSinInteres       string `bun:"quince_sin_interes" json:"quince_sin_interes"`
	CatorceSinInteres      string `bun:"catorce_sin_interes" json:"catorce_sin_interes"`
	DoceSinInteres         string `bun:"doce_sin_interes" json:"doce_sin_interes"`
	DiezSinInteres         string `bun:"diez_sin_interes" json:"diez_sin_interes"`
	NueveSinInteres        string `bun:"nueve_sin_interes" json:"nueve_sin_interes"`
	SeisSinInteres         string `bun:"seis_sin_interes" json:"seis_sin_interes"`
	TresSinInteres         string `bun:"tres_sin_interes" json:"tres_sin_interes"`
	TresConInteres         string `bun:"tres_con_interes" json:"tres_con_interes"`
	SeisConInteres         string `bun:"seis_con_interes" json:"seis_con_interes"`
	PorComisionable        string `bun:"por_comisionable" json:"por_comisionable"`
	ValorComisionable      string `bun:"valor_comisionable" json:"valor_comisionable"`

	Vigencia     string `bun:"vigencia" json:"vigencia"`
	Imagen       string `bun:"imagen" json:"imagen"`
	FichaTecnica string `bun:"ficha_tecnica" json:"ficha_tecnica"`
	Discount     string `bun:"discount" json:"discount"`
	Event        string `bun:"event" json:"event"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// ProductActiveValue marks a product as currently offered.
const ProductActiveValue = "SI"

// User is a registered seller.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Username           string    `bun:"username,unique,notnull" json:"username"`
	Password           string    `bun:"password" json:"-"`
	Email              string    `bun:"email" json:"email"`
	Nombre             string    `bun:"nombre" json:"nombre"`
	Apellido           string    `bun:"apellido" json:"apellido"`
	Rango              string    `bun:"rango" json:"rango"`
	CodigoEmprendedora string    `bun:"codigo_emprendedora" json:"codigo_emprendedora"`
	TipoUsuario        string    `bun:"tipo_usuario" json:"tipo_usuario"`
	Estado             string    `bun:"estado" json:"estado"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// UserActiveValue is the default Estado of new users.
const UserActiveValue = "Activo"

// Client is a customer owned by one user.
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull" json:"user_id"`
	Nombre    string    `bun:"nombre,notnull" json:"nombre"`
	Apellido  string    `bun:"apellido" json:"apellido"`
	Email     string    `bun:"email" json:"email"`
	Telefono  string    `bun:"telefono" json:"telefono"`
	Direccion string    `bun:"direccion" json:"direccion"`
	Activo    bool      `bun:"activo,notnull,default:true" json:"activo"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

const (
	SaleCompleted = "completada"
	SalePending   = "pendiente"
)

// Sale is a recorded order with its items.
type Sale struct {
	bun.BaseModel `bun:"table:sales,alias:s"`

	ID         uuid.UUID     `bun:"id,pk,type:uuid" json:"id"`
	UserID     uuid.UUID     `bun:"user_id,type:uuid,notnull" json:"user_id"`
	ClientID   uuid.NullUUID `bun:"client_id,type:uuid" json:"client_id"`
	Estado     string        `bun:"estado,notnull" json:"estado"`
	MetodoPago string        `bun:"metodo_pago" json:"metodo_pago"`
	Notas      string        `bun:"notas" json:"notas"`
	Total      float64       `bun:"total,notnull" json:"total"`
	Comision   float64       `bun:"comision,notnull" json:"comision"`
	FechaVenta time.Time     `bun:"fecha_venta,notnull" json:"fecha_venta"`

	Items []*SaleItem `bun:"rel:has-many,join:id=sale_id" json:"items"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	bun.BaseModel `bun:"table:sale_items,alias:si"`

	ID             uuid.UUID     `bun:"id,pk,type:uuid" json:"id"`
	SaleID         uuid.UUID     `bun:"sale_id,type:uuid,notnull" json:"sale_id"`
	ProductID      uuid.NullUUID `bun:"product_id,type:uuid" json:"product_id"`
	Cantidad       int           `bun:"cantidad,notnull" json:"cantidad"`
	PrecioUnitario float64       `bun:"precio_unitario,notnull" json:"precio_unitario"`
	Descuento      float64       `bun:"descuento,notnull" json:"descuento"`
	Subtotal       float64       `bun:"subtotal,notnull" json:"subtotal"`
}
