package idwrap

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDWrap is the primary key type of every storyline record. It is stored as
// the 16 byte binary form of a ULID.
type IDWrap struct {
	ulid ulid.ULID
}

var ErrInvalidID = errors.New("invalid id")

func New(id ulid.ULID) IDWrap {
	return IDWrap{ulid: id}
}

func NewNow() IDWrap {
	return IDWrap{ulid: ulid.Make()}
}

func NewText(text string) (IDWrap, error) {
	id, err := ulid.Parse(text)
	if err != nil {
		return IDWrap{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, text, err)
	}
	return IDWrap{ulid: id}, nil
}

func NewTextMust(text string) IDWrap {
	id, err := NewText(text)
	if err != nil {
		panic(err)
	}
	return id
}

func NewFromBytes(data []byte) (IDWrap, error) {
	var id ulid.ULID
	if err := id.UnmarshalBinary(data); err != nil {
		return IDWrap{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return IDWrap{ulid: id}, nil
}

func (u IDWrap) String() string {
	return u.ulid.String()
}

func (u IDWrap) Bytes() []byte {
	return u.ulid[:]
}

func (u IDWrap) Compare(id IDWrap) int {
	return u.ulid.Compare(id.ulid)
}

func (u IDWrap) Equal(id IDWrap) bool {
	return u.ulid == id.ulid
}

// IsZero reports whether the id was never assigned.
func (u IDWrap) IsZero() bool {
	return u.ulid == ulid.ULID{}
}

func (u IDWrap) Time() time.Time {
	return time.UnixMilli(int64(u.ulid.Time())).UTC()
}

func (u IDWrap) Value() (driver.Value, error) {
	return u.ulid[:], nil
}

func (u *IDWrap) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return u.ulid.UnmarshalBinary(v)
	case string:
		parsed, err := ulid.Parse(v)
		if err != nil {
			return err
		}
		u.ulid = parsed
		return nil
	case nil:
		return fmt.Errorf("%w: cannot scan NULL", ErrInvalidID)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidID, value)
	}
}

func (u IDWrap) MarshalText() ([]byte, error) {
	return u.ulid.MarshalText()
}

func (u *IDWrap) UnmarshalText(text []byte) error {
	return u.ulid.UnmarshalText(text)
}
