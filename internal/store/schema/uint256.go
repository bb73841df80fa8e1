package schema

import (
	"database/sql/driver"
	"fmt"

	"github.com/holiman/uint256"
	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// Uint256 is a 256-bit unsigned integer column (token ids, balances).
// It is stored as numeric(78,0) on PostgreSQL and as decimal text on other dialects.
type Uint256 uint256.Int

// NewUint256 copies v into a column value; nil is stored as zero
func NewUint256(v *uint256.Int) Uint256 {
	if v == nil {
		return Uint256{}
	}
	return Uint256(*v)
}

// Int returns a copy of the value as a *uint256.Int
func (u Uint256) Int() *uint256.Int {
	v := uint256.Int(u)
	return &v
}

// String returns the decimal representation
func (u Uint256) String() string {
	return u.Int().Dec()
}

// Value implements the driver.Valuer interface for writing to database
func (u Uint256) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan implements the sql.Scanner interface for reading from database
func (u *Uint256) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		*u = Uint256{}
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		if v < 0 {
			return fmt.Errorf("negative uint256 value %d", v)
		}
		*u = Uint256(*uint256.NewInt(uint64(v)))
		return nil
	default:
		return fmt.Errorf("unsupported uint256 source type %T", value)
	}

	parsed, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("failed to parse uint256 %q: %w", s, err)
	}
	*u = Uint256(*parsed)
	return nil
}

// GormDataType returns the generic data type of the column
func (Uint256) GormDataType() string {
	return "uint256"
}

// GormDBDataType returns the dialect-specific column type
func (Uint256) GormDBDataType(db *gorm.DB, _ *gormschema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric(78,0)"
	}
	return "text"
}
