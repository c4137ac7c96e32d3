package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskConnectionString(t *testing.T) {
	tcases := map[string]struct {
		in   string
		want string
	}{
		"password":    {"postgres://audit:s3cret@db:5432/audit", "postgres://audit:****@db:5432/audit"},
		"no password": {"postgres://audit@db/audit", "postgres://audit@db/audit"},
		"no scheme":   {"host=db user=audit", "host=db user=audit"},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, maskConnectionString(tc.in))
		})
	}
}
