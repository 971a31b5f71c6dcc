package hashing

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
)

// ChecksumReaderProxy is a proxy that calculates the MD5 checksum of data as it's read.
type ChecksumReaderProxy struct {
	reader   io.Reader
	checksum hash.Hash
	read     int64
}

// NewMD5ReaderProxy creates a new instance of ChecksumReaderProxy.
func NewMD5ReaderProxy(reader io.Reader) *ChecksumReaderProxy {
	return &ChecksumReaderProxy{
		reader:   reader,
		checksum: md5.New(),
	}
}

// Read reads data from the underlying reader and feeds it to the checksum.
func (p *ChecksumReaderProxy) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		// hash.Hash.Write never returns an error
		_, _ = p.checksum.Write(buf[:n])
		p.read += int64(n)
	}
	return n, err
}

// BytesRead returns the number of bytes passed through the proxy so far.
func (p *ChecksumReaderProxy) BytesRead() int64 {
	return p.read
}

// GetChecksum returns the MD5 checksum of everything read so far as a hex string.
func (p *ChecksumReaderProxy) GetChecksum() string {
	return hex.EncodeToString(p.checksum.Sum(nil))
}

// ChecksumStringSet is a string set that keeps an MD5 checksum of its entries
// in insertion order. Duplicates do not change the checksum, so two sets built
// from the same input in the same order have the same checksum.
//
// The set is not safe for concurrent mutation. Once built it is meant to be
// published read-only.
type ChecksumStringSet struct {
	set      map[string]struct{}
	checksum hash.Hash
}

func NewChecksumStringSet() *ChecksumStringSet {
	return &ChecksumStringSet{
		set:      make(map[string]struct{}),
		checksum: md5.New(),
	}
}

// Put adds str to the set and reports whether it was not present before.
func (p *ChecksumStringSet) Put(str string) bool {
	if _, ok := p.set[str]; ok {
		return false
	}
	_, _ = io.WriteString(p.checksum, str)
	_, _ = p.checksum.Write([]byte{'\n'})
	p.set[str] = struct{}{}
	return true
}

// Contains reports whether str is in the set.
func (p *ChecksumStringSet) Contains(str string) bool {
	_, ok := p.set[str]
	return ok
}

func (p *ChecksumStringSet) Size() int {
	return len(p.set)
}

func (p *ChecksumStringSet) GetChecksum() string {
	return hex.EncodeToString(p.checksum.Sum(nil))
}
