package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"products/1_a.jpg":       "products/1_a.jpg",
		"/products/1_a.jpg":      "products/1_a.jpg",
		"../../etc/passwd":       "etc/passwd",
		"products/../x.png":      "x.png",
		"":                       "",
		"products//double/.png": "products/double/.png",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanPath(in), in)
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("http://localhost:8080/media/", "products/17_mil de Thiès.jpg")
	assert.Equal(t, "http://localhost:8080/media/products/17_mil%20de%20Thi%C3%A8s.jpg", got)
}
