package common

import (
	uuid "github.com/nu7hatch/gouuid"
)

// GenUUID returns a random v4 uuid string.
func GenUUID() string {
	// uuid.NewV4() reads from crypto/rand and only fails if that fails, retry until it doesn't.
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
