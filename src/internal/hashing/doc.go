// Package hashing provides MD5 checksum calculation utilities.
//
// The block list cache builds every refreshed domain set with a
// ChecksumStringSet, so an unchanged refresh can be recognised by comparing
// checksums. The HTTP list source wraps response bodies with a
// ChecksumReaderProxy to report what it downloaded.
//
// # Example Usage
//
//	proxy := hashing.NewMD5ReaderProxy(resp.Body)
//	_, _ = io.Copy(io.Discard, proxy)
//	fmt.Printf("%d bytes, MD5: %s\n", proxy.BytesRead(), proxy.GetChecksum())
//
//	set := hashing.NewChecksumStringSet()
//	set.Put("ads.example.com")
//	fmt.Printf("%d entries, MD5: %s\n", set.Size(), set.GetChecksum())
package hashing
