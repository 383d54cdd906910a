package out

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUCIValue_ScalarAndListForms(t *testing.T) {
	scalar := UCIValue{"br-lan"}
	assert.Equal(t, "br-lan", scalar.String())
	assert.Equal(t, []string{"br-lan"}, scalar.List())
	assert.True(t, scalar.IsSet())

	list := UCIValue{"net1", "net2"}
	assert.Equal(t, "net1", list.String())
	assert.Equal(t, []string{"net1", "net2"}, list.List())
	assert.True(t, list.Contains("net2"))
	assert.False(t, list.Contains("net3"))
}

func TestUCIValue_Unset(t *testing.T) {
	var unset UCIValue
	assert.Equal(t, "", unset.String())
	assert.Equal(t, []string{}, unset.List())
	assert.False(t, unset.IsSet())
	assert.False(t, unset.Contains(""))

	empty := UCIValue{}
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
