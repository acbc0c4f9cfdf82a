package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("VF_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetDurationEnv("VF_TEST_DURATION", time.Minute))

	t.Setenv("VF_TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, GetDurationEnv("VF_TEST_DURATION", time.Minute))

	assert.Equal(t, time.Hour, GetDurationEnv("VF_TEST_UNSET", time.Hour))
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("VF_TEST_LIST", " a, ,b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, GetListEnv("VF_TEST_LIST"))
	assert.Nil(t, GetListEnv("VF_TEST_UNSET"))
}

func TestGetAPIPrefix(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"api", "/api"},
		{"/api/v1/", "/api/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("API_PREFIX", tt.value)
			assert.Equal(t, tt.want, GetAPIPrefix())
		})
	}
}
