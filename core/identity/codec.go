package identity

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// RecordSize is the fixed allocation for an encoded account:
// 8 (discriminator) + 32 (authority) + 1 (identity_type) +
// 4+64 (name) + 4+200 (logo_uri) + 8 (created_at) + 8 (updated_at) + 1 (bump).
// The allocation is worst-case-sized regardless of actual string lengths so
// the account never needs to grow after creation.
const RecordSize = 8 + 32 + 1 + (4 + MaxNameLength) + (4 + MaxLogoURILength) + 8 + 8 + 1

// ErrBadDiscriminator marks raw account data that does not start with the
// BusinessIdentity discriminator.
var ErrBadDiscriminator = errors.New("identity: bad record discriminator")

// recordDiscriminator is the first 8 bytes of sha256("account:BusinessIdentity").
// Clients parsing raw storage use it to recognise identity accounts.
var recordDiscriminator = func() [8]byte {
	digest := sha256.Sum256([]byte("account:BusinessIdentity"))
	var d [8]byte
	copy(d[:], digest[:8])
	return d
}()

// Discriminator returns the 8-byte tag prefixed to every encoded record.
func Discriminator() [8]byte { return recordDiscriminator }

// Encode serialises the record into its fixed 330-byte account image. String
// fields occupy worst-case slots with a little-endian length prefix; unused
// slot bytes stay zero.
func Encode(r *BusinessIdentity) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, RecordSize)
	off := 0
	copy(buf[off:], recordDiscriminator[:])
	off += 8
	copy(buf[off:], r.Authority[:])
	off += 32
	buf[off] = r.IdentityType
	off++
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Name)))
	off += 4
	copy(buf[off:], r.Name)
	off += MaxNameLength
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.LogoURI)))
	off += 4
	copy(buf[off:], r.LogoURI)
	off += MaxLogoURILength
	binary.LittleEndian.PutUint64(buf[off:], uint64(r.CreatedAt))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(r.UpdatedAt))
	off += 8
	buf[off] = r.Bump
	return buf, nil
}

// Decode parses a fixed-layout account image back into a record.
func Decode(data []byte) (*BusinessIdentity, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("identity: record must be %d bytes, got %d", RecordSize, len(data))
	}
	if !bytes.Equal(data[:8], recordDiscriminator[:]) {
		return nil, ErrBadDiscriminator
	}
	r := &BusinessIdentity{}
	off := 8
	copy(r.Authority[:], data[off:off+32])
	off += 32
	r.IdentityType = data[off]
	off++
	nameLen := binary.LittleEndian.Uint32(data[off:])
	off += 4
	if nameLen > MaxNameLength {
		return nil, fmt.Errorf("identity: corrupt name length %d", nameLen)
	}
	r.Name = string(data[off : off+int(nameLen)])
	off += MaxNameLength
	logoLen := binary.LittleEndian.Uint32(data[off:])
	off += 4
	if logoLen > MaxLogoURILength {
		return nil, fmt.Errorf("identity: corrupt logo uri length %d", logoLen)
	}
	r.LogoURI = string(data[off : off+int(logoLen)])
	off += MaxLogoURILength
	r.CreatedAt = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	r.UpdatedAt = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	r.Bump = data[off]
	return r, nil
}
