package password

// Hasher defines the interface for password hashing implementations.
// The same interface digests email one-time codes before they are stored.
type Hasher interface {
	// Hash hashes a plaintext password with a fresh salt.
	// Two calls with the same input produce different digests, so digests
	// must never be compared for equality directly.
	Hash(password string) (string, error)

	// Verify checks if the provided password matches the stored hash
	Verify(password, hashedPassword string) (bool, error)
}
