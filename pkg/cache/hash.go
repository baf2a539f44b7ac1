package cache

import "crypto/sha512"

// SHA512Provider hashes package content with SHA-512.
type SHA512Provider struct{}

// Algorithm returns "SHA512".
func (SHA512Provider) Algorithm() string { return "SHA512" }

// CalculateHash returns the SHA-512 digest of data.
func (SHA512Provider) CalculateHash(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}
