package serialization

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
)

// MaxVarBytesLength bounds any single length-prefixed byte field. Anything
// longer is treated as malformed input rather than allocated.
const MaxVarBytesLength = 1 << 24

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var buf [8]byte
	var err error
	// Attempt to write the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case uint8:
		buf[0] = e
		_, err = w.Write(buf[:1])

	case bool:
		if e {
			buf[0] = 0x01
		}
		_, err = w.Write(buf[:1])

	case uint32:
		binary.LittleEndian.PutUint32(buf[:4], e)
		_, err = w.Write(buf[:4])

	case uint64:
		binary.LittleEndian.PutUint64(buf[:], e)
		_, err = w.Write(buf[:])

	case externalapi.DomainHash:
		_, err = w.Write(e.ByteSlice())

	case *externalapi.DomainHash:
		_, err = w.Write(e.ByteSlice())

	case externalapi.DomainTransactionID:
		_, err = w.Write(e.ByteSlice())

	case *externalapi.DomainTransactionID:
		_, err = w.Write(e.ByteSlice())

	case []byte:
		return WriteVarBytes(w, e)

	default:
		return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
	}
	return errors.WithStack(err)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to writeElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteVarBytes writes a u64 length prefix followed by the bytes themselves.
// Fields longer than MaxVarBytesLength are refused since ReadVarBytes could
// not read them back.
func WriteVarBytes(w io.Writer, bytes []byte) error {
	if len(bytes) > MaxVarBytesLength {
		return errors.Wrapf(errMalformed, "byte field of length %d exceeds the maximum of %d",
			len(bytes), MaxVarBytesLength)
	}
	err := WriteElement(w, uint64(len(bytes)))
	if err != nil {
		return err
	}
	_, err = w.Write(bytes)
	return errors.WithStack(err)
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	var buf [8]byte
	// Attempt to read the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case *uint8:
		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return errors.WithStack(err)
		}
		*e = buf[0]
		return nil

	case *bool:
		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return errors.WithStack(err)
		}
		switch buf[0] {
		case 0x00:
			*e = false
		case 0x01:
			*e = true
		default:
			return errors.Wrapf(errMalformed, "in order to keep serialization canonical, true has to"+
				" always be 0x01")
		}
		return nil

	case *uint32:
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return errors.WithStack(err)
		}
		*e = binary.LittleEndian.Uint32(buf[:4])
		return nil

	case *uint64:
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = binary.LittleEndian.Uint64(buf[:])
		return nil

	case *externalapi.DomainHash:
		var hashBytes [externalapi.DomainHashSize]byte
		if _, err := io.ReadFull(r, hashBytes[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = *externalapi.NewDomainHashFromByteArray(&hashBytes)
		return nil

	case *externalapi.DomainTransactionID:
		var hashBytes [externalapi.DomainHashSize]byte
		if _, err := io.ReadFull(r, hashBytes[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = *externalapi.NewDomainTransactionIDFromByteArray(&hashBytes)
		return nil

	case *[]byte:
		bytes, err := ReadVarBytes(r)
		if err != nil {
			return err
		}
		*e = bytes
		return nil
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadVarBytes reads a field written by WriteVarBytes.
func ReadVarBytes(r io.Reader) ([]byte, error) {
	var length uint64
	err := ReadElement(r, &length)
	if err != nil {
		return nil, err
	}
	if length > MaxVarBytesLength {
		return nil, errors.Wrapf(errMalformed, "byte field of length %d exceeds the maximum of %d",
			length, MaxVarBytesLength)
	}
	bytes := make([]byte, length)
	_, err = io.ReadFull(r, bytes)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return bytes, nil
}

// ReadCount reads a u64 element count and rejects counts that could not
// possibly fit in the remaining input, given each element takes at least
// minElementSize bytes.
func ReadCount(r io.Reader, remaining int, minElementSize int) (uint64, error) {
	var count uint64
	err := ReadElement(r, &count)
	if err != nil {
		return 0, err
	}
	if minElementSize > 0 && count > uint64(remaining/minElementSize) {
		return 0, errors.Wrapf(errMalformed, "count %d can't fit in the remaining %d bytes", count, remaining)
	}
	return count, nil
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}
