package utils

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Errorf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

// DeriveID returns a name-based (v5) UUID under the namespace id. The same
// inputs always produce the same id, so derived standard ids are stable across
// passes and processes.
func DeriveID(namespace string, name string) (string, error) {
	ns, err := uuid.Parse(namespace)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(ns, []byte(name)).String(), nil
}
