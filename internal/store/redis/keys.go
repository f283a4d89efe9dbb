package redis

import "fmt"

const (
	// KeyPrefixDocument is the prefix for document keys
	KeyPrefixDocument = "marks:doc:"
	// KeyAllDocuments is the key for the set of all document names
	KeyAllDocuments = "marks:docs:all"
)

// DocumentKey returns the Redis key for a document name
func DocumentKey(name string) string {
	return KeyPrefixDocument + name
}

// AllDocumentsKey returns the key for the set of all document names
func AllDocumentsKey() string {
	return KeyAllDocuments
}

// ExtractDocumentName extracts the document name from a Redis key
func ExtractDocumentName(key string) (string, error) {
	if len(key) <= len(KeyPrefixDocument) || key[:len(KeyPrefixDocument)] != KeyPrefixDocument {
		return "", fmt.Errorf("invalid document key: %s", key)
	}
	return key[len(KeyPrefixDocument):], nil
}
