package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationTypeMembers(t *testing.T) {
	loc := &LocationType{MeterNumbers: " M-1, M-2,,M-3 "}
	assert.Equal(t, []string{"M-1", "M-2", "M-3"}, loc.Members())

	empty := &LocationType{}
	assert.Nil(t, empty.Members())
}

func TestLocationTypeAddMember(t *testing.T) {
	loc := &LocationType{}
	loc.AddMember("M-1")
	loc.AddMember("M-2")
	loc.AddMember("M-1")

	assert.Equal(t, "M-1,M-2", loc.MeterNumbers)
}

func TestLocationTypeRemoveMember(t *testing.T) {
	loc := &LocationType{MeterNumbers: "M-1,M-2"}

	assert.True(t, loc.RemoveMember("M-1"))
	assert.Equal(t, "M-2", loc.MeterNumbers)

	assert.False(t, loc.RemoveMember("M-2"))
	assert.Equal(t, "", loc.MeterNumbers)
}
