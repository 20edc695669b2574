package identity

import (
	"errors"
	"fmt"
)

// TypeBusiness tags a business identity account. It is currently the only
// registered identity type.
const TypeBusiness uint8 = 1

const (
	// MaxNameLength bounds the business name in bytes.
	MaxNameLength = 64
	// MaxLogoURILength bounds the logo URI in bytes.
	MaxLogoURILength = 200
)

var (
	// ErrInvalidNameLength is returned when the business name is empty or
	// exceeds MaxNameLength bytes.
	ErrInvalidNameLength = errors.New("identity: invalid name length")
	// ErrInvalidLogoURILength is returned when the logo URI exceeds
	// MaxLogoURILength bytes.
	ErrInvalidLogoURILength = errors.New("identity: invalid logo uri length")
	// ErrUnauthorized marks update attempts by a principal other than the
	// account's recorded authority.
	ErrUnauthorized = errors.New("identity: caller is not the account authority")
)

// BusinessIdentity is the on-chain record tied one-to-one to a wallet. The
// authority, identity type, creation time and bump are fixed at creation;
// name, logo URI and the update timestamp may change on authorised updates.
type BusinessIdentity struct {
	Authority    [32]byte
	IdentityType uint8
	Name         string
	LogoURI      string
	CreatedAt    int64
	UpdatedAt    int64
	Bump         uint8
}

// ValidateName checks the byte-length bounds for a business name.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return fmt.Errorf("%w: must be between 1 and %d bytes", ErrInvalidNameLength, MaxNameLength)
	}
	return nil
}

// ValidateLogoURI checks the byte-length bound for a logo URI. An empty URI
// is allowed.
func ValidateLogoURI(uri string) error {
	if len(uri) > MaxLogoURILength {
		return fmt.Errorf("%w: must be at most %d bytes", ErrInvalidLogoURILength, MaxLogoURILength)
	}
	return nil
}

// Validate ensures the record payload is well formed before encoding.
func (r *BusinessIdentity) Validate() error {
	if r == nil {
		return errors.New("identity: record nil")
	}
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if err := ValidateLogoURI(r.LogoURI); err != nil {
		return err
	}
	if r.IdentityType != TypeBusiness {
		return fmt.Errorf("identity: unknown identity type %d", r.IdentityType)
	}
	if r.CreatedAt <= 0 {
		return errors.New("identity: createdAt must be positive")
	}
	if r.UpdatedAt < r.CreatedAt {
		return errors.New("identity: updatedAt must not precede createdAt")
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *BusinessIdentity) Clone() *BusinessIdentity {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}
