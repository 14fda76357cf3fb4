package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommaSep(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitCommaSep(" a, b,,c ,"))
	assert.Nil(t, SplitCommaSep(""))
}

func TestSplitCommaSepToMap(t *testing.T) {
	m := SplitCommaSepToMap("k1=v1, k2 = v2,bad,k3=a=b")
	assert.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, m)
}

func TestGenUUID(t *testing.T) {
	a, b := GenUUID(), GenUUID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
