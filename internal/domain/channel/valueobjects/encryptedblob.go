package valueobjects

// EncryptedBlob is the persisted form of a channel credential. IV and
// Ciphertext are base64 (std encoding); the GCM tag is part of Ciphertext.
type EncryptedBlob struct {
	IV          string `json:"iv"`
	Ciphertext  string `json:"ciphertext"`
	AlgorithmID string `json:"algorithmId"`
}

func (b EncryptedBlob) IsZero() bool {
	return b.IV == "" && b.Ciphertext == ""
}
