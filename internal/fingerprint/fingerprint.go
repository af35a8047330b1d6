// Package fingerprint parses and encodes the artifacts.dat binary format:
// a set of maps, each mapping a package identity to the Version it was
// last built against. A package's build output is fresh when at least one
// of its stored fingerprint maps is set-equal to the "expected"
// fingerprint computed from the current manifest.
package fingerprint

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/elm-tooling/epm/internal/identity"
	"github.com/elm-tooling/epm/internal/semver"
)

// Sanity caps guarding against corrupt or hostile input.
const (
	MaxSetSize    = 1000
	MaxMapSize    = 1000
	MaxComponentLen = 255
)

// Entry is one (package identity, version) pair within a fingerprint map.
type Entry struct {
	Package identity.Identity
	Version semver.Version
}

// Map is one fingerprint: a set of Entry, compared by set-of-entries
// equality. Entry order carries no meaning.
type Map []Entry

// Equal reports whether m and o contain the same set of entries,
// irrespective of order or duplicates.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	count := make(map[Entry]int, len(m))
	for _, e := range m {
		count[e]++
	}
	for _, e := range o {
		count[e]--
	}
	for _, c := range count {
		if c != 0 {
			return false
		}
	}
	return true
}

// Set is the parsed artifacts.dat contents: a set of fingerprint Maps.
type Set []Map

// ContainsEquivalent reports whether any Map in s is set-equal to expected.
func (s Set) ContainsEquivalent(expected Map) bool {
	for _, m := range s {
		if m.Equal(expected) {
			return true
		}
	}
	return false
}

// Decode parses the big-endian binary layout. Any bound violation
// (set_size/map_size/component length over its cap) or unexpected EOF is
// a parse error.
func Decode(r io.Reader) (Set, error) {
	br := &byteReader{r: r}

	setSize, err := readU64(br)
	if err != nil {
		return nil, errors.Wrap(err, "reading fingerprint set size")
	}
	if setSize > MaxSetSize {
		return nil, errors.Errorf("fingerprint set size %d exceeds maximum of %d", setSize, MaxSetSize)
	}

	set := make(Set, 0, setSize)
	for i := uint64(0); i < setSize; i++ {
		m, err := decodeMap(br)
		if err != nil {
			return nil, errors.Wrapf(err, "reading fingerprint %d", i)
		}
		set = append(set, m)
	}
	return set, nil
}

func decodeMap(br *byteReader) (Map, error) {
	mapSize, err := readU64(br)
	if err != nil {
		return nil, errors.Wrap(err, "reading map size")
	}
	if mapSize > MaxMapSize {
		return nil, errors.Errorf("fingerprint map size %d exceeds maximum of %d", mapSize, MaxMapSize)
	}

	m := make(Map, 0, mapSize)
	for i := uint64(0); i < mapSize; i++ {
		e, err := decodeEntry(br)
		if err != nil {
			return nil, errors.Wrapf(err, "reading entry %d", i)
		}
		m = append(m, e)
	}
	return m, nil
}

func decodeEntry(br *byteReader) (Entry, error) {
	author, err := readString(br)
	if err != nil {
		return Entry{}, errors.Wrap(err, "reading author")
	}
	project, err := readString(br)
	if err != nil {
		return Entry{}, errors.Wrap(err, "reading project")
	}
	v, err := decodeVersion(br)
	if err != nil {
		return Entry{}, errors.Wrap(err, "reading version")
	}
	return Entry{Package: identity.Identity{Author: author, Name: project}, Version: v}, nil
}

func readString(br *byteReader) (string, error) {
	n, err := br.readByte()
	if err != nil {
		return "", err
	}
	if n > MaxComponentLen {
		return "", errors.Errorf("component length %d exceeds maximum of %d", n, MaxComponentLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// extendedMarker signals the extended (u16-per-component) version form.
const extendedMarker = 0xFF

func decodeVersion(br *byteReader) (semver.Version, error) {
	first, err := br.peekByte()
	if err != nil {
		return semver.Version{}, err
	}
	if first == extendedMarker {
		br.discardPeeked()
		var major, minor, patch uint16
		if err := binary.Read(br.r, binary.BigEndian, &major); err != nil {
			return semver.Version{}, err
		}
		if err := binary.Read(br.r, binary.BigEndian, &minor); err != nil {
			return semver.Version{}, err
		}
		if err := binary.Read(br.r, binary.BigEndian, &patch); err != nil {
			return semver.Version{}, err
		}
		return semver.New(major, minor, patch), nil
	}

	major, err := br.readByte()
	if err != nil {
		return semver.Version{}, err
	}
	minor, err := br.readByte()
	if err != nil {
		return semver.Version{}, err
	}
	patch, err := br.readByte()
	if err != nil {
		return semver.Version{}, err
	}
	return semver.New(uint16(major), uint16(minor), uint16(patch)), nil
}

func readU64(br *byteReader) (uint64, error) {
	var v uint64
	err := binary.Read(br.r, binary.BigEndian, &v)
	return v, err
}

// Encode writes s in the same binary layout Decode reads, choosing the
// compact (single-byte) component form when all three version components
// fit in a byte, and the extended (0xFF marker + u16 triple) form
// otherwise.
func Encode(w io.Writer, s Set) error {
	if err := binary.Write(w, binary.BigEndian, uint64(len(s))); err != nil {
		return err
	}
	for _, m := range s {
		if err := binary.Write(w, binary.BigEndian, uint64(len(m))); err != nil {
			return err
		}
		for _, e := range m {
			if err := writeString(w, e.Package.Author); err != nil {
				return err
			}
			if err := writeString(w, e.Package.Name); err != nil {
				return err
			}
			if err := encodeVersion(w, e.Version); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > MaxComponentLen {
		return errors.Errorf("component %q exceeds maximum length of %d", s, MaxComponentLen)
	}
	if _, err := w.Write([]byte{byte(len(s))}); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func encodeVersion(w io.Writer, v semver.Version) error {
	if v.Major() <= 0xff && v.Minor() <= 0xff && v.Patch() <= 0xff {
		_, err := w.Write([]byte{byte(v.Major()), byte(v.Minor()), byte(v.Patch())})
		return err
	}
	if _, err := w.Write([]byte{extendedMarker}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, v.Major()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, v.Minor()); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, v.Patch())
}

// byteReader is a tiny buffered single-byte-peek helper, since the binary
// layout needs one byte of lookahead to tell compact from extended version
// encoding apart.
type byteReader struct {
	r      io.Reader
	peeked bool
	b      byte
}

func (br *byteReader) readByte() (byte, error) {
	if br.peeked {
		br.peeked = false
		return br.b, nil
	}
	var buf [1]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (br *byteReader) peekByte() (byte, error) {
	if br.peeked {
		return br.b, nil
	}
	var buf [1]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return 0, err
	}
	br.b = buf[0]
	br.peeked = true
	return br.b, nil
}

func (br *byteReader) discardPeeked() {
	br.peeked = false
}
