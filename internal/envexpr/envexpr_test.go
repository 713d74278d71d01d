package envexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	testCases := []struct {
		name   string
		env    map[string]string
		input  string
		expect string
	}{
		{
			name:   "no references",
			input:  "just a plain string",
			expect: "just a plain string",
		},
		{
			name:   "single reference",
			env:    map[string]string{"FOO": "bar"},
			input:  "value is ${env.FOO}",
			expect: "value is bar",
		},
		{
			name:   "repeated references",
			env:    map[string]string{"A": "1", "B": "2"},
			input:  "${env.A}-${env.B}-${env.A}",
			expect: "1-2-1",
		},
		{
			name:   "unset variable becomes empty",
			input:  "unset=${env.FORKLY_NOT_SET}-end",
			expect: "unset=-end",
		},
		{
			name:   "missing closing brace stays literal",
			input:  "start ${env.X and ${env.FORKLY_NOT_SET} end",
			expect: "start ${env.X and  end",
		},
		{
			name:   "empty key expands to nothing",
			input:  "oops ${env.} done",
			expect: "oops  done",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			for key, value := range testCase.env {
				t.Setenv(key, value)
			}
			assert.Equal(t, testCase.expect, Expand(testCase.input))
		})
	}
}
