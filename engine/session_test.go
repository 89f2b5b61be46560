package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crafted-tech/packflow"
)

func TestSessionHiveFollowsElevation(t *testing.T) {
	assert.Equal(t, packflow.HiveMachine, Session{Elevated: true}.Hive())
	assert.Equal(t, packflow.HiveUser, Session{Elevated: false}.Hive())
}

func TestSessionSelected(t *testing.T) {
	all := Session{}
	assert.True(t, all.selected("Main", true))
	assert.True(t, all.selected("Extras", false))

	some := Session{Sections: []string{"Extras"}}
	assert.True(t, some.selected("Main", true), "required sections ignore selection")
	assert.True(t, some.selected("Extras", false))
	assert.False(t, some.selected("Docs", false))

	none := Session{Sections: []string{}}
	assert.False(t, none.selected("Extras", false))
}

func TestNewSessionNormalizesLanguage(t *testing.T) {
	s := NewSession("/opt/app", "es-MX", nil)
	assert.Equal(t, "es", s.Language)
	assert.NotEmpty(t, s.ID)
}
