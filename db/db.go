package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Vendor (Поставщик)
type Vendor struct {
	ID       int    `db:"vendor_id" json:"id"`
	Name     string `db:"name" json:"name"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
	Address  string `db:"address" json:"address"`
	Password string `db:"password" json:"-"`
}

func (s *Storage) CreateVendor(ctx context.Context, v *Vendor) error {
	query := `
        INSERT INTO vendor (name, email, phone, address, password)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING vendor_id`
	return s.db.QueryRowContext(ctx, query,
		v.Name, v.Email, v.Phone, v.Address, v.Password).Scan(&v.ID)
}

func (s *Storage) GetVendor(ctx context.Context, id int) (*Vendor, error) {
	v := &Vendor{}
	query := `SELECT * FROM vendor WHERE vendor_id=$1`
	err := s.db.GetContext(ctx, v, query, id)
	return v, err
}

func (s *Storage) GetVendorByEmail(ctx context.Context, email string) (*Vendor, error) {
	v := &Vendor{}
	query := `SELECT * FROM vendor WHERE email=$1`
	err := s.db.GetContext(ctx, v, query, email)
	return v, err
}

func (s *Storage) ListVendors(ctx context.Context) ([]Vendor, error) {
	vendors := []Vendor{}
	query := `SELECT * FROM vendor ORDER BY name ASC`
	err := s.db.SelectContext(ctx, &vendors, query)
	return vendors, err
}

func (s *Storage) DeleteVendorByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM vendor WHERE email=$1`
	_, err := s.db.ExecContext(ctx, query, email)
	return err
}

// Organisation (Организация-заказчик)
type Organisation struct {
	ID       int    `db:"org_id" json:"id"`
	Name     string `db:"name" json:"name"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone"`
	Address  string `db:"address" json:"address"`
	Password string `db:"password" json:"-"`
}

func (s *Storage) CreateOrganisation(ctx context.Context, o *Organisation) error {
	query := `
        INSERT INTO organisation (name, email, phone, address, password)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING org_id`
	return s.db.QueryRowContext(ctx, query,
		o.Name, o.Email, o.Phone, o.Address, o.Password).Scan(&o.ID)
}

func (s *Storage) GetOrganisation(ctx context.Context, id int) (*Organisation, error) {
	o := &Organisation{}
	query := `SELECT * FROM organisation WHERE org_id=$1`
	err := s.db.GetContext(ctx, o, query, id)
	return o, err
}

func (s *Storage) GetOrganisationByEmail(ctx context.Context, email string) (*Organisation, error) {
	o := &Organisation{}
	query := `SELECT * FROM organisation WHERE email=$1`
	err := s.db.GetContext(ctx, o, query, email)
	return o, err
}

// Today возвращает текущую дату без компонента времени,
// для сравнения с окнами открытия/закрытия тендера.
func Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
