package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// itoa formats an id for log messages
func itoa(v uint) string {
	return fmt.Sprintf("%d", v)
}

// GenerateCertificateNumber returns a unique certificate number
func GenerateCertificateNumber() string {
	return "CERT-" + uuid.NewString()
}
