package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"O'Brien’s Group", "o'brien's group"},
		{"O'Brien's Group", "o'brien's group"},
		{"  Men’s   Bible\tStudy ", "men's bible study"},
		{"Alpha – Omega", "alpha - omega"},
		{"Alpha — Omega", "alpha - omega"},
		{"“Quoted” Group!", "quoted group"},
		{"Café Night", "caf night"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Key(tc.in), "Key(%q)", tc.in)
	}
}

func TestKey_ApostropheVariantsCollide(t *testing.T) {
	base := Key("Dad's Night")
	for _, v := range []string{"Dad’s Night", "Dad‘s Night", "Dad`s Night", "Dad´s Night", "DAD'S NIGHT"} {
		assert.Equal(t, base, Key(v), "variant %q", v)
	}
}

func TestRulesCorrect(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, "A Widow's Walk", r.Correct("a widows walk"))
	assert.Equal(t, "A Widow's Walk", r.Correct("A Widow’s Walk"))
	assert.Equal(t, "A Widow's Walk", r.Correct("  a widows' walk  "))
	assert.Equal(t, "Young Adults", r.Correct("Young Adults"))
	assert.Equal(t, "", r.Correct(""))
}
