package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmounts(t *testing.T) {
	got, err := ParseAmounts(" 100, 250 ,500,")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 250, 500}, got)

	_, err = ParseAmounts("100, -5")
	assert.Error(t, err)

	_, err = ParseAmounts("")
	assert.Error(t, err)

	_, err = ParseAmounts("1,2,3,4,5,6,7,8,9,10")
	assert.Error(t, err)
}

func TestFormatAmountsRoundTrip(t *testing.T) {
	in := []int{100, 150, 200}
	assert.Equal(t, "100, 150, 200", FormatAmounts(in))

	out, err := ParseAmounts(FormatAmounts(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
